package stages

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/pipeline/chunking"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

type ChunkText struct {
	docs     docModel.DocumentStore
	splitter chunking.Splitter
	logger   *logger_i.Logger
}

func NewChunkText(deps Dependencies) *ChunkText {
	return &ChunkText{docs: deps.Documents, splitter: deps.Splitter, logger: logger_i.NewLogger("chunk_text")}
}

func (h *ChunkText) Execute(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
	doc, err := loadDocument(ctx, h.docs, payload)
	if err != nil {
		return jobModel.Failed(err)
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return jobModel.Failed(ErrNoExtractedText)
	}

	pieces := h.splitter.Split(doc.ExtractedText)
	chunks := make([]docModel.Chunk, len(pieces))
	total := 0
	for i, p := range pieces {
		chunks[i] = docModel.Chunk{DocumentId: doc.Id, Index: p.Index, Text: p.Text, TokenEstimate: p.TokenEstimate}
		total += utf8.RuneCountInString(p.Text)
	}

	if err := h.docs.ReplaceChunks(ctx, doc.Id, chunks); err != nil {
		return jobModel.Failed(err)
	}

	if _, err := h.docs.AdvanceStatus(ctx, doc.Id, docModel.StatusAnalyzing); err != nil {
		return jobModel.Failed(err)
	}

	h.logger.Info("Created chunks", "documentId", doc.Id, "count", len(chunks))
	return jobModel.Succeeded(map[string]any{
		"chunks_count": len(chunks),
		"total_chars":  total,
	})
}
