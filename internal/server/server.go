package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/akolanti/smartsort/internal/adapter/utils"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/handlers"
	"github.com/akolanti/smartsort/internal/middleware"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	// StopWorkers blocks until in-flight jobs are finished
	StopWorkers   func()
	CloseServices context.CancelFunc
}

// NewRouter registers every API route behind the middleware chain.
func NewRouter() http.Handler {
	r := utils.NewRouter(handlers.NotFoundHandler, handlers.MethodNotAllowedHandler)

	r.Get("/health", middleware.HealthHandler)
	r.Get("/queue", middleware.GetQueueHandler)
	r.Get("/jobs/{id}", middleware.GetJobStatusHandler)
	r.Post("/jobs/{id}/requeue", middleware.RequeueJobHandler)

	r.Route("/documents", func(d chi.Router) {
		d.Get("/", middleware.ListDocumentsHandler)
		d.Post("/ingest", middleware.PostIngestHandler)
		d.Post("/upload", middleware.UploadDocumentHandler)
		d.Get("/{id}", middleware.GetDocumentHandler)
		d.Patch("/{id}", middleware.PatchDocumentHandler)
		d.Post("/{id}/approve", middleware.ApproveDocumentHandler)
		d.Post("/{id}/reject", middleware.RejectDocumentHandler)
	})
	return r
}

func CreateServer(listenAddr string) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      NewRouter(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		if shutdownParams.StopWorkers != nil {
			shutdownParams.StopWorkers()
		}
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
