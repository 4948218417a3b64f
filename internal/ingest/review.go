package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/storage"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

var ErrNotReviewable = errors.New("document is not awaiting review")

// Overrides carries user decisions. Nil fields are left alone.
type Overrides struct {
	Category   *string `json:"category,omitempty"`
	Filename   *string `json:"filename,omitempty"`
	TargetPath *string `json:"target_path,omitempty"`
}

type ReviewService struct {
	sandbox *storage.Sandbox
	docs    docModel.DocumentStore
	now     func() time.Time
	logger  *logger_i.Logger
}

func NewReviewService(sandbox *storage.Sandbox, docs docModel.DocumentStore) *ReviewService {
	return &ReviewService{
		sandbox: sandbox,
		docs:    docs,
		now:     time.Now,
		logger:  logger_i.NewLogger("Review"),
	}
}

// Approve fixes the final category, filename and target path. Each value is the
// first non-empty of override, earlier user value, suggestion and default.
func (r *ReviewService) Approve(ctx context.Context, id int64, o Overrides) (docModel.Document, error) {
	doc, err := r.docs.GetDocument(ctx, id)
	if err != nil {
		return doc, err
	}
	if !doc.Status.Reviewable() {
		return doc, fmt.Errorf("%w: document %d is %s", ErrNotReviewable, id, doc.Status)
	}

	doc.UserCategory = firstNonEmpty(deref(o.Category), doc.UserCategory, doc.Category)
	doc.UserFilename = firstNonEmpty(deref(o.Filename), doc.UserFilename, doc.SuggestedFilename, doc.OriginalFilename)
	doc.UserTargetPath = firstNonEmpty(deref(o.TargetPath), doc.UserTargetPath, doc.SuggestedTargetPath, config.UncategorizedTarget)
	doc.Status = docModel.StatusApproved
	now := r.now().UTC()
	doc.ApprovedAt = &now

	if err := r.docs.UpdateDocument(ctx, doc); err != nil {
		return doc, err
	}
	r.logger.Info("Document approved", "documentId", id, "category", doc.UserCategory, "target", doc.UserTargetPath)
	return r.docs.GetDocument(ctx, id)
}

// Reject parks a copy of the file in the errors folder and marks the document ERROR.
// A failed copy is logged and does not block the status change.
func (r *ReviewService) Reject(ctx context.Context, id int64) (docModel.Document, error) {
	doc, err := r.docs.GetDocument(ctx, id)
	if err != nil {
		return doc, err
	}

	if doc.IngestedPath != "" {
		dst := path.Join(config.ErrorsDir, path.Base(doc.IngestedPath))
		if _, err := r.sandbox.Copy(doc.IngestedPath, dst, true); err != nil {
			r.logger.Warn("Could not copy file to errors", "documentId", id, "error", err)
		}
	}

	doc.Status = docModel.StatusError
	if err := r.docs.UpdateDocument(ctx, doc); err != nil {
		return doc, err
	}
	r.logger.Info("Document rejected", "documentId", id)
	return r.docs.GetDocument(ctx, id)
}

// Update only touches the user override fields.
func (r *ReviewService) Update(ctx context.Context, id int64, o Overrides) (docModel.Document, error) {
	doc, err := r.docs.GetDocument(ctx, id)
	if err != nil {
		return doc, err
	}
	if o.Category != nil {
		doc.UserCategory = *o.Category
	}
	if o.Filename != nil {
		doc.UserFilename = *o.Filename
	}
	if o.TargetPath != nil {
		doc.UserTargetPath = *o.TargetPath
	}
	if err := r.docs.UpdateDocument(ctx, doc); err != nil {
		return doc, err
	}
	return r.docs.GetDocument(ctx, id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
