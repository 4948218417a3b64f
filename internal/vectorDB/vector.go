package vectorDB

import (
	"context"

	"github.com/akolanti/smartsort/internal/domain/docModel"
)

// Index stores one vector per chunk.
type Index interface {
	HealthCheck(ctx context.Context) error
	// EnsureCollection creates the collection with the given vector size when it is missing.
	EnsureCollection(ctx context.Context, dimension uint64) error
	// ReplaceDocumentPoints drops the document's previous points and upserts one point per chunk,
	// returning the point ids in chunk order.
	ReplaceDocumentPoints(ctx context.Context, doc docModel.Document, chunks []docModel.Chunk, vectors [][]float32) ([]string, error)
}
