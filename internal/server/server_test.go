package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/akolanti/smartsort/internal/api"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/data/sqlStore"
	"github.com/akolanti/smartsort/internal/data/store"
	"github.com/akolanti/smartsort/internal/handlers"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/job"
	"github.com/akolanti/smartsort/internal/middleware"
	"github.com/akolanti/smartsort/internal/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	sb, err := storage.New(filepath.Join(t.TempDir(), "root"))
	if err != nil {
		t.Fatal(err)
	}
	docs, err := sqlStore.Open(filepath.Join(t.TempDir(), "smartsort.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = docs.Close() })
	q := store.InitInMemoryJobQueue()
	handlers.InitJobHandler(job.InitJobService(job.ServiceConfig{
		Queue:     q,
		Documents: docs,
		Rules:     docs,
		Ingester:  ingest.NewService(sb, docs, q),
		Reviewer:  ingest.NewReviewService(sb, docs),
	}))
	middleware.Init(config.ServerConfig{APIKey: "secret", RateLimit: 1000, RateBurst: 1000})
	return NewRouter()
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)
	tests := []struct {
		name   string
		method string
		target string
		auth   bool
		want   int
	}{
		{"health is public", http.MethodGet, "/health", false, http.StatusOK},
		{"queue needs auth", http.MethodGet, "/queue", false, http.StatusUnauthorized},
		{"queue", http.MethodGet, "/queue", true, http.StatusOK},
		{"job not found", http.MethodGet, "/jobs/missing", true, http.StatusNotFound},
		{"documents list", http.MethodGet, "/documents", true, http.StatusOK},
		{"document not found", http.MethodGet, "/documents/7", true, http.StatusNotFound},
		{"reject not found", http.MethodPost, "/documents/7/reject", true, http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/documents/7", true, http.StatusMethodNotAllowed},
		{"metrics", http.MethodGet, "/metrics", false, http.StatusOK},
		{"swagger redirect", http.MethodGet, "/swagger", false, http.StatusMovedPermanently},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.auth {
				req.Header.Set("Authorization", "Bearer secret")
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rr.Code, tt.want)
			}
		})
	}
}

func TestUnmatchedRoutesUseErrorEnvelope(t *testing.T) {
	router := newTestRouter(t)
	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"unknown path", http.MethodGet, "/folders", http.StatusNotFound},
		{"unknown document subpath", http.MethodGet, "/documents/7/history", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/documents/7", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, nil))
			if rr.Code != tt.want {
				t.Fatalf("%s %s = %d, want %d", tt.method, tt.target, rr.Code, tt.want)
			}
			var res api.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
				t.Fatalf("body is not the error envelope: %v (%s)", err, rr.Body.String())
			}
			if res.Error.Code != tt.want || res.Error.Resource != tt.target {
				t.Errorf("error = %+v", res.Error)
			}
		})
	}
}

func TestShutDownHandler(t *testing.T) {
	signals := make(chan os.Signal, 1)
	stopExecution := make(chan bool)
	stopped, closed := false, false

	go ShutDownHandler(ShutdownParams{
		GracefulShutdown: signals,
		StopExecution:    stopExecution,
		StopWorkers:      func() { stopped = true },
		CloseServices:    func() { closed = true },
	})
	signals <- syscall.SIGTERM

	select {
	case <-stopExecution:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	if !stopped || !closed {
		t.Errorf("stopped=%v closed=%v", stopped, closed)
	}
}
