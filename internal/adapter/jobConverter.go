package adapter

import (
	"fmt"
	"net/http"

	"github.com/akolanti/smartsort/internal/api"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/ingest"
)

func StatusURL(id string) string {
	return fmt.Sprintf("/jobs/%s", id)
}

func ToRequeueResponse(id string) api.RequeueResponse {
	return api.RequeueResponse{
		Id:        id,
		StatusURL: StatusURL(id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error != "" {
		errorPtr = &api.JobOutgoingError{
			Code:    http.StatusInternalServerError,
			Message: job.Error,
			// failed jobs are only retried through an explicit requeue
			Retry: job.Status == jobModel.JobStatusFailed,
		}
	}

	return api.JobResponse{
		Id:          job.Id,
		JobType:     string(job.JobType),
		Status:      string(job.Status),
		DocumentId:  job.DocumentId,
		Priority:    job.Priority,
		DependsOn:   job.DependsOn,
		Result:      job.Result,
		Error:       errorPtr,
		CreatedTime: job.CreatedTime,
		StartedTime: job.StartedTime,
		EndTime:     job.EndTime,
	}
}

func ToIngestResponse(res ingest.Result) api.IngestResponse {
	out := api.IngestResponse{
		DocumentId:  res.DocumentId,
		Status:      string(res.Status),
		Message:     res.Message,
		IsDuplicate: res.IsDuplicate,
		DuplicateOf: res.DuplicateOf,
		SHA256:      res.SHA256,
		JobIds:      res.JobIds,
	}
	for _, id := range res.JobIds {
		out.StatusURLs = append(out.StatusURLs, StatusURL(id))
	}
	return out
}

func ToDocumentResponse(doc docModel.Document, chunks int) api.DocumentResponse {
	return api.DocumentResponse{Document: doc, ChunksCount: chunks}
}

func ApproveOverrides(req api.ApproveRequest) ingest.Overrides {
	return ingest.Overrides{
		Category:   req.FinalCategory,
		Filename:   req.FinalFilename,
		TargetPath: req.FinalTargetPath,
	}
}

func UpdateOverrides(req api.UpdateDocumentRequest) ingest.Overrides {
	return ingest.Overrides{
		Category:   req.UserCategory,
		Filename:   req.UserFilename,
		TargetPath: req.UserTargetPath,
	}
}

func ToErrorResponse(resource string, message string, code int, traceId string) api.ErrorResponse {
	return api.ErrorResponse{
		Error: api.ErrorDetail{
			Code:     code,
			Message:  message,
			Resource: resource,
			TraceId:  traceId,
		},
	}
}
