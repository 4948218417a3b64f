package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/handlers"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var (
	authToken string
	noAuth    bool
)

// Init sets the bearer token and resets the per client limiter.
func Init(cfg config.ServerConfig) {
	authToken = cfg.APIKey
	noAuth = cfg.NoAuth
	limit, burst := cfg.RateLimit, cfg.RateBurst
	if limit <= 0 {
		limit = config.RATE_LIMIT_PER_SECOND
	}
	if burst <= 0 {
		burst = config.BURST_RATE_LIMIT_PER_SECOND
	}
	limiterInstance = NewClientRateLimiter(rate.Limit(limit), burst)
}

var GetJobStatusHandler = Wrap(handlers.GetJobStatusHandler)
var GetQueueHandler = Wrap(handlers.GetQueueHandler)
var RequeueJobHandler = Wrap(handlers.RequeueJobHandler)
var PostIngestHandler = Wrap(handlers.PostIngestHandler)
var UploadDocumentHandler = Wrap(handlers.UploadDocumentHandler)
var ListDocumentsHandler = Wrap(handlers.ListDocumentsHandler)
var GetDocumentHandler = Wrap(handlers.GetDocumentHandler)
var ApproveDocumentHandler = Wrap(handlers.ApproveDocumentHandler)
var RejectDocumentHandler = Wrap(handlers.RejectDocumentHandler)
var PatchDocumentHandler = Wrap(handlers.PatchDocumentHandler)

var HealthHandler = WrapPublic(handlers.HealthHandler)

// Wrap runs trace, auth and rate limiting in front of next.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return wrap(next, true)
}

// WrapPublic skips authentication, for liveness checks.
func WrapPublic(next http.HandlerFunc) http.HandlerFunc {
	return wrap(next, false)
}

func wrap(next http.HandlerFunc, withAuth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec}, withAuth)

		if !handleBadRequest(re) {
			recordRequest(re.req, rec.Status)
			return
		}
		next(rec, re.req)
		recordRequest(re.req, rec.Status)
	}
}

func processRequest(re requestResponseStruct, withAuth bool) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	if withAuth {
		re = authenticate(re)
		if re.badRequest.isBadRequest {
			return re //stop if auth fails
		}
	}
	return rateLimiter(re)
}

// recordRequest labels by route pattern so ids do not explode the label set.
func recordRequest(r *http.Request, status int) {
	path := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		path = rc.RoutePattern()
	}
	metrics.HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
}
