package repository

import (
	"context"
	"errors"

	"qdadoc/internal/model"
)

// ErrNotFound is returned when no document matches the given ID.
var ErrNotFound = errors.New("repository: document not found")

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored document.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a page of document summaries, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.DocumentSummary], error)

	// UpdateMeta applies a metadata patch and returns the updated document, or ErrNotFound.
	// Content is never written.
	UpdateMeta(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error)

	// Delete removes a document by ID, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
