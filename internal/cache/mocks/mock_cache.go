package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"qdadoc/internal/model"
)

type MockDocumentCache struct {
	mock.Mock
}

func (m *MockDocumentCache) Get(ctx context.Context, id string) (*model.Document, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Document), args.Bool(1), args.Error(2)
}

func (m *MockDocumentCache) Set(ctx context.Context, doc *model.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentCache) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
