package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/akolanti/smartsort/internal/adapter"
	"github.com/akolanti/smartsort/internal/adapter/utils"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/job"
	"github.com/akolanti/smartsort/internal/storage"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

// WriteErrorResponse writes the error envelope. The trace id comes from the header the middleware set.
func WriteErrorResponse(w http.ResponseWriter, httpCode int, resource string, message string) {
	writeJsonResponse(w, httpCode, adapter.ToErrorResponse(resource, message, httpCode, w.Header().Get("X-Trace-Id")))
}

// ready resolves the installed service and checks the request is still live.
func ready(w http.ResponseWriter, r *http.Request) (*job.Service, bool) {
	svc := currentService()
	if svc == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Service not initialised")
		return nil, false
	}
	if !validateContext(r.Context()) {
		WriteErrorResponse(w, http.StatusRequestTimeout, "", "Request cancelled")
		return nil, false
	}
	return svc, true
}

func validateContext(ctx context.Context) bool {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	if ctx.Err() != nil {
		logRH.Warn("context error", "traceId", traceId, "error", ctx.Err())
		return false
	}
	return true
}

func documentId(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, raw, err := utils.DocumentIdParam(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, raw, "Invalid document id")
		return 0, false
	}
	return id, true
}

func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, http.StatusNotFound, r.URL.Path, "No such route")
}

func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, http.StatusMethodNotAllowed, r.URL.Path, r.Method+" is not allowed on this route")
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// decodeOptionalBody accepts an empty body and rejects malformed JSON.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	WriteErrorResponse(w, http.StatusBadRequest, "", "Invalid JSON body")
	return false
}

func writeServiceError(w http.ResponseWriter, id string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logRH.Error("Request failed", "id", id, "error", err)
		WriteErrorResponse(w, code, id, "Internal error")
		return
	}
	WriteErrorResponse(w, code, id, err.Error())
}

func statusFor(err error) int {
	var pathErr *storage.PathError
	switch {
	case errors.Is(err, docModel.ErrDocumentNotFound),
		errors.Is(err, jobModel.ErrJobNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrOutsideInbox),
		errors.Is(err, storage.ErrPathTraversal),
		errors.Is(err, storage.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ingest.ErrNotReviewable),
		errors.Is(err, ingest.ErrInvalidFilename),
		errors.Is(err, storage.ErrNotFile):
		return http.StatusBadRequest
	case errors.As(err, &pathErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
