package cache

import (
	"context"

	"qdadoc/internal/model"
)

// DocumentCache holds documents by ID. Implementations report a miss with
// (nil, false, nil); errors are for transport failures only.
type DocumentCache interface {
	Get(ctx context.Context, id string) (*model.Document, bool, error)
	Set(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id string) error
}

// Noop is used when no cache is configured.
type Noop struct{}

var _ DocumentCache = Noop{}

func (Noop) Get(context.Context, string) (*model.Document, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, *model.Document) error                 { return nil }
func (Noop) Delete(context.Context, string) error                       { return nil }
