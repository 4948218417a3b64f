package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var jobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "smartsort_jobs_enqueued_total",
	Help: "Jobs added to the queue by type",
}, []string{"job_type"})

var jobsDequeued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "smartsort_jobs_dequeued_total",
	Help: "Jobs claimed by workers by type",
}, []string{"job_type"})

var jobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "smartsort_job_outcomes_total",
	Help: "Finished jobs by type and outcome",
}, []string{"job_type", "outcome"})

var queueLength = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "smartsort_queue_length",
	Help: "Pending jobs at the last length check",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var documentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "smartsort_documents_ingested_total",
	Help: "Ingest requests by result",
}, []string{"result"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsEnqueued(jobType string) {
	jobsEnqueued.WithLabelValues(jobType).Inc()
}

func IncrementJobsDequeued(jobType string) {
	jobsDequeued.WithLabelValues(jobType).Inc()
}

func SetQueueLength(n int64) {
	queueLength.Set(float64(n))
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func IncrementDocumentsIngested(result string) {
	documentsIngested.WithLabelValues(result).Inc()
}

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "smartsort_job_duration_seconds",
	Help:    "Time spent executing a stage handler.",
	Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"job_type"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(jobType string, outcome string, timeElapsed time.Duration) {
	jobDuration.WithLabelValues(jobType).Observe(timeElapsed.Seconds())
	jobOutcomes.WithLabelValues(jobType, outcome).Inc()
}
