package mcpServer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type JobStatusInput struct {
	JobId string `json:"job_id" jsonschema:"the id returned when the job was enqueued"`
}

type JobStatusOutput struct {
	Found      bool           `json:"found"`
	Id         string         `json:"id,omitempty"`
	JobType    string         `json:"job_type,omitempty"`
	Status     string         `json:"status,omitempty"`
	DocumentId int64          `json:"document_id,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  string         `json:"created_at,omitempty"`
	EndedAt    string         `json:"ended_at,omitempty"`
}

type QueueLengthInput struct{}

type QueueLengthOutput struct {
	Length int64 `json:"length"`
}

type IngestInput struct {
	InboxPath string `json:"inbox_path" jsonschema:"path relative to the storage root, must start with 00_inbox/"`
}

type IngestOutput struct {
	DocumentId  int64    `json:"document_id"`
	Status      string   `json:"status"`
	IsDuplicate bool     `json:"is_duplicate"`
	DuplicateOf int64    `json:"duplicate_of,omitempty"`
	SHA256      string   `json:"sha256"`
	JobIds      []string `json:"job_ids,omitempty"`
}

type GetDocumentInput struct {
	DocumentId int64 `json:"document_id" jsonschema:"numeric document id"`
}

type DocumentOutput struct {
	Id                  int64    `json:"id"`
	OriginalFilename    string   `json:"original_filename"`
	Status              string   `json:"status"`
	MimeType            string   `json:"mime_type,omitempty"`
	Category            string   `json:"category,omitempty"`
	SuggestedFilename   string   `json:"suggested_filename,omitempty"`
	SuggestedTargetPath string   `json:"suggested_target_path,omitempty"`
	Confidence          float64  `json:"confidence"`
	Method              string   `json:"classification_method,omitempty"`
	Tags                []string `json:"tags,omitempty"`
	ChunksCount         int      `json:"chunks_count"`
	ErrorMessage        string   `json:"error_message,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "job_status",
		Description: "Look up a pipeline job by id",
	}, s.handleJobStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "queue_length",
		Description: "Number of jobs waiting in the queue",
	}, s.handleQueueLength)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a file from the inbox and queue its analysis pipeline",
	}, s.handleIngest)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch a document with its classification",
	}, s.handleGetDocument)
}

func (s *Server) handleJobStatus(ctx context.Context, _ *mcp.CallToolRequest, in JobStatusInput) (*mcp.CallToolResult, JobStatusOutput, error) {
	if in.JobId == "" {
		return nil, JobStatusOutput{}, errors.New("job_id is required")
	}
	job, found, err := s.service.JobStatus(ctx, in.JobId)
	if err != nil {
		return nil, JobStatusOutput{}, err
	}
	if !found {
		return nil, JobStatusOutput{Found: false, Id: in.JobId}, nil
	}
	return nil, toJobOutput(job), nil
}

func (s *Server) handleQueueLength(ctx context.Context, _ *mcp.CallToolRequest, _ QueueLengthInput) (*mcp.CallToolResult, QueueLengthOutput, error) {
	n, err := s.service.QueueLength(ctx)
	if err != nil {
		return nil, QueueLengthOutput{}, err
	}
	return nil, QueueLengthOutput{Length: n}, nil
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, in IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	res, err := s.service.IngestDocument(ctx, in.InboxPath)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	s.logger.Info("Ingested through MCP", "documentId", res.DocumentId, "duplicate", res.IsDuplicate)
	return nil, IngestOutput{
		DocumentId:  res.DocumentId,
		Status:      string(res.Status),
		IsDuplicate: res.IsDuplicate,
		DuplicateOf: res.DuplicateOf,
		SHA256:      res.SHA256,
		JobIds:      res.JobIds,
	}, nil
}

func (s *Server) handleGetDocument(ctx context.Context, _ *mcp.CallToolRequest, in GetDocumentInput) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, chunks, err := s.service.Document(ctx, in.DocumentId)
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	return nil, toDocumentOutput(doc, chunks), nil
}

func toJobOutput(job jobModel.Job) JobStatusOutput {
	out := JobStatusOutput{
		Found:      true,
		Id:         job.Id,
		JobType:    string(job.JobType),
		Status:     string(job.Status),
		DocumentId: job.DocumentId,
		Error:      job.Error,
		CreatedAt:  formatTime(job.CreatedTime),
		EndedAt:    formatTime(job.EndTime),
	}
	if len(job.Result) > 0 {
		_ = json.Unmarshal(job.Result, &out.Result)
	}
	return out
}

func toDocumentOutput(doc docModel.Document, chunks int) DocumentOutput {
	out := DocumentOutput{
		Id:                  doc.Id,
		OriginalFilename:    doc.OriginalFilename,
		Status:              string(doc.Status),
		MimeType:            doc.MimeType,
		Category:            doc.Category,
		SuggestedFilename:   doc.SuggestedFilename,
		SuggestedTargetPath: doc.SuggestedTargetPath,
		ChunksCount:         chunks,
		ErrorMessage:        doc.ErrorMessage,
	}
	if doc.Confidence != nil {
		out.Confidence = *doc.Confidence
	}
	if doc.Trace != nil {
		out.Method = string(doc.Trace.Method)
		out.Tags = doc.Trace.Tags
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
