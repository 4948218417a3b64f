package utils

import (
	"fmt"
	"net/http"
	"strconv"

	_ "github.com/akolanti/smartsort/cmd/api/docs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
)

// NewTraceId is used when a request arrives without an X-Trace-Id header.
func NewTraceId() string {
	return uuid.NewString()
}

func PathParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// DocumentIdParam parses the {id} segment of a /documents route. The raw value is
// returned with the error so callers can echo it back.
func DocumentIdParam(request *http.Request) (int64, string, error) {
	raw := chi.URLParam(request, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, raw, fmt.Errorf("invalid document id %q", raw)
	}
	return id, raw, nil
}

// NewRouter returns a router with swagger and prometheus mounted. Unmatched
// paths and methods are answered by the given handlers.
func NewRouter(notFound, methodNotAllowed http.HandlerFunc) *chi.Mux {
	router := chi.NewRouter()
	if notFound != nil {
		router.NotFound(notFound)
	}
	if methodNotAllowed != nil {
		router.MethodNotAllowed(methodNotAllowed)
	}
	InitSwagger(router)
	router.Handle("/metrics", promhttp.Handler())
	return router
}

func InitSwagger(r *chi.Mux) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
