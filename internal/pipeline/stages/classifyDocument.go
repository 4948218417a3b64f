package stages

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/akolanti/smartsort/internal/classifier/model"
	"github.com/akolanti/smartsort/internal/classifier/rules"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

// ClassifyDocument tries the rules first, then the model, then falls back to Uncategorized.
type ClassifyDocument struct {
	docs   docModel.DocumentStore
	rules  RuleMatcher
	model  ModelClassifier
	now    func() time.Time
	logger *logger_i.Logger
}

func NewClassifyDocument(deps Dependencies) *ClassifyDocument {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ClassifyDocument{
		docs:   deps.Documents,
		rules:  deps.Rules,
		model:  deps.Model,
		now:    now,
		logger: logger_i.NewLogger("classify_document"),
	}
}

func (h *ClassifyDocument) Execute(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
	doc, err := loadDocument(ctx, h.docs, payload)
	if err != nil {
		return jobModel.Failed(err)
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return jobModel.Failed(ErrNoExtractedText)
	}

	var c docModel.Classification
	var result map[string]any
	if h.rules != nil {
		match, ok, err := h.rules.Classify(ctx, doc)
		if err != nil {
			return jobModel.Failed(err)
		}
		if ok {
			c, result = fromRule(doc, match)
		}
	}
	if result == nil && h.model != nil {
		if res, ok := h.model.Classify(ctx, doc); ok {
			c, result = fromModel(res)
		}
	}
	if result == nil {
		c, result = fallback()
	}

	c.AnalyzedAt = h.now().UTC()
	if err := h.docs.SetClassification(ctx, doc.Id, c); err != nil {
		return jobModel.Failed(err)
	}

	h.logger.Info("Classified document", "documentId", doc.Id, "method", result["method"],
		"category", c.Category, "status", doc.Status.Reclassify(c.Status))
	return jobModel.Succeeded(result)
}

// fromRule replaces every suggestion with the rule's actions. Fields the rule leaves unset are
// cleared rather than kept from an earlier model run; the category alone falls back to the stored one.
func fromRule(doc docModel.Document, m rules.Match) (docModel.Classification, map[string]any) {
	category := m.Category
	if category == "" {
		category = doc.Category
	}
	c := docModel.Classification{
		Category:            category,
		SuggestedFilename:   m.SuggestedFilename,
		SuggestedTargetPath: m.TargetPath,
		Confidence:          m.Confidence,
		Trace: &docModel.ClassificationTrace{
			Method:   docModel.TraceMethodRule,
			RuleId:   m.Rule.Id,
			RuleName: m.Rule.Name,
			Tags:     m.Tags,
		},
		Status: docModel.StatusAnalyzed,
	}
	return c, map[string]any{
		"method":     "rules",
		"confidence": c.Confidence,
		"category":   c.Category,
		"rule_name":  m.Rule.Name,
	}
}

func fromModel(res model.Result) (docModel.Classification, map[string]any) {
	c := docModel.Classification{
		Category:            res.Category,
		SuggestedFilename:   res.SuggestedFilename,
		SuggestedTargetPath: res.TargetPath,
		Confidence:          res.Confidence,
		Trace: &docModel.ClassificationTrace{
			Method:      docModel.TraceMethodModel,
			Tags:        res.Tags,
			Provider:    res.Provider,
			Reasoning:   res.Reasoning,
			RawResponse: res.RawResponse,
		},
		Status: docModel.StatusNeedsReview,
	}
	if c.Confidence >= config.ConfidenceThreshold {
		c.Status = docModel.StatusAnalyzed
	}
	return c, map[string]any{
		"method":     "llm",
		"confidence": c.Confidence,
		"category":   c.Category,
		"provider":   res.Provider,
	}
}

func fallback() (docModel.Classification, map[string]any) {
	c := docModel.Classification{
		Category:            config.UncategorizedCategory,
		SuggestedTargetPath: config.UncategorizedTarget,
		Trace:               &docModel.ClassificationTrace{Method: docModel.TraceMethodFallback},
		Status:              docModel.StatusNeedsReview,
	}
	return c, map[string]any{
		"method":     "none",
		"confidence": c.Confidence,
		"category":   c.Category,
	}
}
