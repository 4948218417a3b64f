package jobModel

import (
	"context"
	"encoding/json"
)

type OutcomeKind string

const (
	OutcomeSucceeded OutcomeKind = "succeeded"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is what a stage handler reports back to the worker pool.
// Skipped is a soft condition such as an unreachable external dependency and completes the job.
type Outcome struct {
	Kind   OutcomeKind
	Result map[string]any
	Reason string
	Err    error
}

func Succeeded(result map[string]any) Outcome {
	return Outcome{Kind: OutcomeSucceeded, Result: result}
}

func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason, Result: map[string]any{"skipped": true, "reason": reason}}
}

func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}

func (o Outcome) ErrorText() string {
	if o.Err == nil {
		return "unknown handler failure"
	}
	return o.Err.Error()
}

// Handler executes one pipeline stage against the job payload.
type Handler interface {
	Execute(ctx context.Context, payload json.RawMessage) Outcome
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) Outcome

func (f HandlerFunc) Execute(ctx context.Context, payload json.RawMessage) Outcome {
	return f(ctx, payload)
}
