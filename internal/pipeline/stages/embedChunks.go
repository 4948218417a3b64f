package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/embedding"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/internal/vectorDB"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

type EmbedChunks struct {
	docs     docModel.DocumentStore
	embedder embedding.Embedder
	index    vectorDB.Index
	timeout  time.Duration
	logger   *logger_i.Logger
}

func NewEmbedChunks(deps Dependencies) *EmbedChunks {
	if deps.EmbedTimeout <= 0 {
		deps.EmbedTimeout = config.EmbeddingTimeout
	}
	return &EmbedChunks{
		docs:     deps.Documents,
		embedder: deps.Embedder,
		index:    deps.Index,
		timeout:  deps.EmbedTimeout,
		logger:   logger_i.NewLogger("embed_chunks"),
	}
}

func (h *EmbedChunks) Execute(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
	doc, err := loadDocument(ctx, h.docs, payload)
	if err != nil {
		return jobModel.Failed(err)
	}

	if reason := h.unavailable(ctx); reason != "" {
		h.logger.Warn("Skipping embeddings", "documentId", doc.Id, "reason", reason)
		if err := h.markAnalyzed(ctx, doc); err != nil {
			return jobModel.Failed(err)
		}
		return jobModel.Skipped(reason)
	}

	chunks, err := h.docs.ListChunks(ctx, doc.Id)
	if err != nil {
		return jobModel.Failed(err)
	}
	if len(chunks) == 0 {
		return jobModel.Failed(fmt.Errorf("%w %d", ErrNoChunks, doc.Id))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	start := time.Now()
	vectors, err := h.embed(ctx, texts)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return jobModel.Failed(fmt.Errorf("embedding generation failed: %w", err))
	}
	if len(vectors) != len(chunks) || len(vectors[0]) == 0 {
		return jobModel.Failed(fmt.Errorf("embedding generation returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	indexCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if err := h.index.EnsureCollection(indexCtx, uint64(len(vectors[0]))); err != nil {
		return jobModel.Failed(fmt.Errorf("ensuring vector collection: %w", err))
	}

	start = time.Now()
	pointIds, err := h.index.ReplaceDocumentPoints(indexCtx, doc, chunks, vectors)
	metrics.CaptureExecutionMetrics("vector_upsert", time.Since(start))
	if err != nil {
		return jobModel.Failed(err)
	}
	for i, c := range chunks {
		if err := h.docs.SetChunkVectorPoint(ctx, c.Id, pointIds[i]); err != nil {
			return jobModel.Failed(err)
		}
	}

	if err := h.markAnalyzed(ctx, doc); err != nil {
		return jobModel.Failed(err)
	}
	h.logger.Info("Embedded chunks", "documentId", doc.Id, "count", len(pointIds))
	return jobModel.Succeeded(map[string]any{
		"embedded_count": len(pointIds),
		"skipped":        false,
	})
}

// unavailable returns a skip reason, or "" when both dependencies answer.
func (h *EmbedChunks) unavailable(ctx context.Context) string {
	if h.embedder == nil || h.index == nil {
		return "embedding provider or vector index not configured"
	}
	pingCtx, cancel := context.WithTimeout(ctx, config.EmbeddingPingTimeout)
	defer cancel()
	if err := h.embedder.Ping(pingCtx); err != nil {
		return fmt.Sprintf("embedding provider %s not available: %v", h.embedder.Name(), err)
	}
	if err := h.index.HealthCheck(pingCtx); err != nil {
		return fmt.Sprintf("vector index not available: %v", err)
	}
	return ""
}

func (h *EmbedChunks) embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.embedder.BatchEmbedding(ctx, texts)
}

// markAnalyzed only advances the status column. Classify may have committed while this job ran.
func (h *EmbedChunks) markAnalyzed(ctx context.Context, doc docModel.Document) error {
	_, err := h.docs.AdvanceStatus(ctx, doc.Id, docModel.StatusAnalyzed)
	return err
}
