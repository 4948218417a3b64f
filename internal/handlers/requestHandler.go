package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akolanti/smartsort/internal/adapter"
	"github.com/akolanti/smartsort/internal/adapter/utils"
	"github.com/akolanti/smartsort/internal/api"
	"github.com/akolanti/smartsort/internal/domain/docModel"
)

const maxUploadSize = 32 << 20 //32mb

// GetJobStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves a pipeline job by id, including its result or error text.
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Router       /jobs/{id} [get]
func GetJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	id := utils.PathParam(r, "id")
	result, found, err := svc.JobStatus(r.Context(), id)
	if err != nil {
		logRH.Error("Job lookup failed", "jobId", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Queue backend error")
		return
	}
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, id, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// RequeueJobHandler godoc
// @Summary      Requeue a job
// @Description  Enqueues a fresh copy of a finished job. The original record is untouched.
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      202  {object}  api.RequeueResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /jobs/{id}/requeue [post]
func RequeueJobHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	id := utils.PathParam(r, "id")
	newId, err := svc.Requeue(r.Context(), id)
	if err != nil {
		writeServiceError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToRequeueResponse(newId))
}

// GetQueueHandler godoc
// @Summary      Queue length
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  api.QueueResponse
// @Router       /queue [get]
func GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	n, err := svc.QueueLength(r.Context())
	if err != nil {
		logRH.Error("Queue length failed", "error", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Queue backend unavailable")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.QueueResponse{Length: n})
}

// HealthHandler godoc
// @Summary      Liveness of the queue backend and the database
// @Tags         Health
// @Produce      json
// @Success      200  {object}  job.Health
// @Failure      503  {object}  job.Health
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	h := svc.Health(r.Context())
	code := http.StatusOK
	if h.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJsonResponse(w, code, h)
}

// PostIngestHandler godoc
// @Summary      Ingest a document from the inbox
// @Description  Hashes the file, stores an immutable copy and queues extract, chunk, embed and classify.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.IngestRequest  true  "Inbox relative path"
// @Success      202      {object}  api.IngestResponse
// @Success      200      {object}  api.IngestResponse  "Duplicate content"
// @Failure      403      {object}  api.ErrorResponse   "Path outside the inbox"
// @Failure      404      {object}  api.ErrorResponse   "File not found"
// @Router       /documents/ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	var req api.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InboxPath == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "inbox_path is required")
		return
	}
	res, err := svc.IngestDocument(r.Context(), req.InboxPath)
	if err != nil {
		writeServiceError(w, req.InboxPath, err)
		return
	}
	code := http.StatusAccepted
	if res.IsDuplicate {
		code = http.StatusOK
	}
	writeJsonResponse(w, code, adapter.ToIngestResponse(res))
}

// UploadDocumentHandler godoc
// @Summary      Upload a document into the inbox and ingest it
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        document  formData  file  true  "The file to ingest"
// @Success      202  {object}  api.IngestResponse
// @Failure      400  {object}  api.ErrorResponse  "Missing file or file too large"
// @Router       /documents/upload [post]
func UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}
	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	res, err := svc.UploadDocument(r.Context(), fileMetadata.Filename, fileReader)
	if err != nil {
		writeServiceError(w, fileMetadata.Filename, err)
		return
	}
	code := http.StatusAccepted
	if res.IsDuplicate {
		code = http.StatusOK
	}
	writeJsonResponse(w, code, adapter.ToIngestResponse(res))
}

// ListDocumentsHandler godoc
// @Summary      List documents, newest first
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Status filter, e.g. NEEDS_REVIEW"
// @Param        limit   query  int     false  "Page size (1-1000)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  api.DocumentListResponse
// @Failure      400  {object}  api.ErrorResponse
// @Router       /documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	status := docModel.DocStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Invalid status: "+string(status))
		return
	}
	limit, err := queryInt(q.Get("limit"), 50)
	if err != nil || limit < 1 || limit > 1000 {
		WriteErrorResponse(w, http.StatusBadRequest, "", "limit must be between 1 and 1000")
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "", "offset must not be negative")
		return
	}

	docs, err := svc.ListDocuments(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	if docs == nil {
		docs = []docModel.Document{}
	}
	writeJsonResponse(w, http.StatusOK, api.DocumentListResponse{Documents: docs, Limit: limit, Offset: offset})
}

// GetDocumentHandler godoc
// @Summary      Get a document
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	id, ok := documentId(w, r)
	if !ok {
		return
	}
	doc, chunks, err := svc.Document(r.Context(), id)
	if err != nil {
		writeServiceError(w, strconv.FormatInt(id, 10), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc, chunks))
}

// ApproveDocumentHandler godoc
// @Summary      Approve a reviewed document
// @Description  Only ANALYZED or NEEDS_REVIEW documents can be approved.
// @Tags         Review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  int                 true   "Document ID"
// @Param        request  body  api.ApproveRequest  false  "Final values"
// @Success      200  {object}  api.ReviewResponse
// @Failure      400  {object}  api.ErrorResponse  "Document not reviewable"
// @Router       /documents/{id}/approve [post]
func ApproveDocumentHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	id, ok := documentId(w, r)
	if !ok {
		return
	}
	var req api.ApproveRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	doc, err := svc.Approve(r.Context(), id, adapter.ApproveOverrides(req))
	if err != nil {
		writeServiceError(w, strconv.FormatInt(id, 10), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ReviewResponse{Message: "Document approved successfully", Document: doc})
}

// RejectDocumentHandler godoc
// @Summary      Reject a document
// @Description  Copies the file to 99_errors and marks the document ERROR.
// @Tags         Review
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Document ID"
// @Success      200  {object}  api.ReviewResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id}/reject [post]
func RejectDocumentHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	id, ok := documentId(w, r)
	if !ok {
		return
	}
	doc, err := svc.Reject(r.Context(), id)
	if err != nil {
		writeServiceError(w, strconv.FormatInt(id, 10), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ReviewResponse{Message: "Document rejected and moved to errors", Document: doc})
}

// PatchDocumentHandler godoc
// @Summary      Update user override fields
// @Tags         Review
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  int                        true  "Document ID"
// @Param        request  body  api.UpdateDocumentRequest  true  "Overrides"
// @Success      200  {object}  api.ReviewResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id} [patch]
func PatchDocumentHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := ready(w, r)
	if !ok {
		return
	}
	id, ok := documentId(w, r)
	if !ok {
		return
	}
	var req api.UpdateDocumentRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	doc, err := svc.UpdateDocument(r.Context(), id, adapter.UpdateOverrides(req))
	if err != nil {
		writeServiceError(w, strconv.FormatInt(id, 10), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ReviewResponse{Message: "Document updated successfully", Document: doc})
}
