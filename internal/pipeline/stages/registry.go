package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/smartsort/internal/classifier/model"
	"github.com/akolanti/smartsort/internal/classifier/rules"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/embedding"
	"github.com/akolanti/smartsort/internal/pipeline/chunking"
	"github.com/akolanti/smartsort/internal/pipeline/extraction"
	"github.com/akolanti/smartsort/internal/vectorDB"
)

var (
	ErrMissingDocumentId = errors.New("payload has no document_id")
	ErrNoExtractedText   = errors.New("document has no extracted text")
	ErrNoChunks          = errors.New("no chunks found for document")
)

type TextExtractor interface {
	Extract(ctx context.Context, rel string, mimeType string) (extraction.Result, error)
}

type RuleMatcher interface {
	Classify(ctx context.Context, doc docModel.Document) (rules.Match, bool, error)
}

type ModelClassifier interface {
	Classify(ctx context.Context, doc docModel.Document) (model.Result, bool)
}

// Dependencies wires the stage handlers. Embedder and Index may be nil, the embed stage then skips.
type Dependencies struct {
	Documents docModel.DocumentStore
	Extractor TextExtractor
	Splitter  chunking.Splitter
	Embedder  embedding.Embedder
	Index     vectorDB.Index
	Rules     RuleMatcher
	Model     ModelClassifier
	Now       func() time.Time

	// EmbedTimeout bounds one embedding request, zero means config.EmbeddingTimeout
	EmbedTimeout time.Duration
}

// Registry maps every pipeline job type to its handler.
func Registry(deps Dependencies) map[jobModel.JobType]jobModel.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.EmbedTimeout <= 0 {
		deps.EmbedTimeout = config.EmbeddingTimeout
	}
	if deps.Splitter.TargetSize == 0 {
		deps.Splitter = chunking.NewSplitter()
	}
	return map[jobModel.JobType]jobModel.Handler{
		jobModel.JobTypeExtractText:      NewExtractText(deps),
		jobModel.JobTypeChunkText:        NewChunkText(deps),
		jobModel.JobTypeEmbedChunks:      NewEmbedChunks(deps),
		jobModel.JobTypeClassifyDocument: NewClassifyDocument(deps),
	}
}

func documentId(payload json.RawMessage) (int64, error) {
	var p jobModel.DocumentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, fmt.Errorf("decoding payload: %w", err)
	}
	if p.DocumentId == 0 {
		return 0, ErrMissingDocumentId
	}
	return p.DocumentId, nil
}

// loadDocument decodes the payload and fetches the document it names.
func loadDocument(ctx context.Context, docs docModel.DocumentStore, payload json.RawMessage) (docModel.Document, error) {
	id, err := documentId(payload)
	if err != nil {
		return docModel.Document{}, err
	}
	doc, err := docs.GetDocument(ctx, id)
	if err != nil {
		return docModel.Document{}, fmt.Errorf("document %d: %w", id, err)
	}
	return doc, nil
}
