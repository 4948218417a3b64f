package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/metrics"
)

func (p *Pool) execute(ctx context.Context, workerId int, job *jobModel.Job) {
	start := time.Now()
	log := p.logger.With("workerId", workerId, "jobId", job.Id, "jobType", job.JobType,
		"documentId", job.DocumentId, "traceId", job.TraceId)

	ctx = context.WithValue(ctx, config.TRACE_ID_KEY, job.TraceId)
	log.Debug("Processing job")

	handler, ok := p.handlers[job.JobType]
	var outcome jobModel.Outcome
	if !ok {
		outcome = jobModel.Failed(fmt.Errorf("Unknown job type: %s", job.JobType))
	} else {
		outcome = safeExecute(ctx, handler, job.Payload)
	}

	switch outcome.Kind {
	case jobModel.OutcomeSucceeded, jobModel.OutcomeSkipped:
		if err := p.queue.Complete(ctx, job.Id, outcome.Result); err != nil {
			log.Error("Failed to record job completion", "error", err)
		}
		if outcome.Kind == jobModel.OutcomeSkipped {
			log.Info("Job skipped", "reason", outcome.Reason)
		} else {
			log.Info("Job completed", "elapsed", time.Since(start))
		}
	default:
		errText := outcome.ErrorText()
		if err := p.queue.Fail(ctx, job.Id, errText); err != nil {
			log.Error("Failed to record job failure", "error", err)
		}
		log.Warn("Job failed", "error", errText)
	}
	metrics.CaptureJobMetrics(string(job.JobType), string(outcome.Kind), time.Since(start))
}

// safeExecute turns a handler panic into a failed outcome.
func safeExecute(ctx context.Context, handler jobModel.Handler, payload json.RawMessage) (outcome jobModel.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = jobModel.Failed(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return handler.Execute(ctx, payload)
}
