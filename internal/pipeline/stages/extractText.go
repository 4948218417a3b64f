package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

type ExtractText struct {
	docs      docModel.DocumentStore
	extractor TextExtractor
	logger    *logger_i.Logger
}

func NewExtractText(deps Dependencies) *ExtractText {
	return &ExtractText{docs: deps.Documents, extractor: deps.Extractor, logger: logger_i.NewLogger("extract_text")}
}

func (h *ExtractText) Execute(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
	doc, err := loadDocument(ctx, h.docs, payload)
	if err != nil {
		return jobModel.Failed(err)
	}

	source := doc.IngestedPath
	if source == "" {
		source = doc.InboxPath
	}
	h.logger.Debug("Extracting text", "documentId", doc.Id, "path", source)

	res, err := h.extractor.Extract(ctx, source, doc.MimeType)
	if err != nil {
		if uerr := h.docs.SetErrorMessage(ctx, doc.Id, err.Error()); uerr != nil {
			h.logger.Warn("could not record extraction error", "documentId", doc.Id, "error", uerr)
		}
		return jobModel.Failed(fmt.Errorf("extracting %s: %w", source, err))
	}

	pages := res.PageCount
	if err := h.docs.SetExtraction(ctx, doc.Id, res.Text, pages); err != nil {
		return jobModel.Failed(err)
	}

	chars := utf8.RuneCountInString(res.Text)
	h.logger.Info("Extracted text", "documentId", doc.Id, "chars", chars, "pages", pages)
	return jobModel.Succeeded(map[string]any{
		"extracted_text_length": len(res.Text),
		"char_count":            chars,
		"page_count":            pages,
		"method":                string(res.Method),
	})
}
