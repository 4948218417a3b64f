package api

import (
	"encoding/json"
	"time"

	"github.com/akolanti/smartsort/internal/domain/docModel"
)

// ErrorResponse is the body of every rejected or failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"document not found"`
	// Resource is the document id, job id or inbox path the request named.
	Resource string `json:"resource,omitempty" example:"12"`
	TraceId  string `json:"trace_id,omitempty" example:"5b1f0c1e-7a8e-4a57-9a55-2d0c8a7e9f10"`
}

type JobResponse struct {
	Id          string            `json:"id" example:"5b1f0c1e-7a8e-4a57-9a55-2d0c8a7e9f10"`
	JobType     string            `json:"job_type,omitempty" example:"extract_text"`
	Status      string            `json:"status" example:"COMPLETED"`
	DocumentId  int64             `json:"document_id,omitempty" example:"12"`
	Priority    int               `json:"priority,omitempty" example:"50"`
	DependsOn   string            `json:"depends_on,omitempty"`
	Result      json.RawMessage   `json:"result,omitempty" swaggertype:"object"`
	Error       *JobOutgoingError `json:"error,omitempty"`
	CreatedTime time.Time         `json:"created_time,omitempty"`
	StartedTime time.Time         `json:"started_time,omitempty"`
	EndTime     time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type QueueResponse struct {
	Length int64 `json:"length" example:"3"`
}

type RequeueResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type DocumentResponse struct {
	Document    docModel.Document `json:"document"`
	ChunksCount int               `json:"chunks_count" example:"4"`
}

type DocumentListResponse struct {
	Documents []docModel.Document `json:"documents"`
	Limit     int                 `json:"limit" example:"50"`
	Offset    int                 `json:"offset" example:"0"`
}

type IngestResponse struct {
	DocumentId  int64    `json:"document_id" example:"12"`
	Status      string   `json:"status" example:"INGESTED"`
	Message     string   `json:"message"`
	IsDuplicate bool     `json:"is_duplicate"`
	DuplicateOf int64    `json:"duplicate_of,omitempty"`
	SHA256      string   `json:"sha256"`
	JobIds      []string `json:"job_ids,omitempty"`
	StatusURLs  []string `json:"status_urls,omitempty"`
}

type ReviewResponse struct {
	Message  string            `json:"message"`
	Document docModel.Document `json:"document"`
}

// requests---------------------

type IngestRequest struct {
	InboxPath string `json:"inbox_path" validate:"required" example:"00_inbox/invoice.pdf"`
}

type ApproveRequest struct {
	FinalCategory   *string `json:"final_category,omitempty"`
	FinalFilename   *string `json:"final_filename,omitempty"`
	FinalTargetPath *string `json:"final_target_path,omitempty"`
}

type UpdateDocumentRequest struct {
	UserCategory   *string `json:"user_approved_category,omitempty"`
	UserFilename   *string `json:"user_approved_filename,omitempty"`
	UserTargetPath *string `json:"user_approved_target_path,omitempty"`
}
