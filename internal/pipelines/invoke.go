package pipelines

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/normalize"
)

// Settled is the terminal state of one adapter invocation.
type Settled struct {
	Result   address.Result
	Usage    cost.Usage
	Duration time.Duration
}

type attempt struct {
	outcome Outcome
	err     error
}

// Invoke runs adapter under its own timeout and always settles. It returns
// Failed(timeout) once the deadline passes even when the adapter ignores
// ctx, recovers panics into Failed(internal_error), and classifies errors.
// The adapter's goroutine is left to finish on its own after a timeout.
func Invoke(ctx context.Context, adapter Adapter, in address.Input, cfg Config, timeout time.Duration, logger *slog.Logger) Settled {
	id := adapter.ID()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attempt, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attempt{err: &panicError{value: r}}
			}
		}()
		outcome, err := adapter.Run(ctx, in, cfg)
		done <- attempt{outcome: outcome, err: err}
	}()

	var a attempt
	select {
	case a = <-done:
	case <-ctx.Done():
		a = attempt{err: ctx.Err()}
	}

	settled := Settled{Duration: time.Since(start)}

	if a.err != nil {
		reason := Classify(a.err)
		detail := fmt.Sprintf("%s after %s", reason, settled.Duration.Round(time.Millisecond))
		if reason == address.ReasonMisconfigured {
			detail = a.err.Error()
		}
		if p, ok := a.err.(*panicError); ok {
			reason = address.ReasonInternalError
			detail = "adapter panicked"
			logger.Error("pipeline panicked", "pipeline", id, "panic", p.value, "duration", settled.Duration)
		} else {
			logger.Warn("pipeline failed", "pipeline", id, "reason", reason, "error", a.err, "duration", settled.Duration)
		}
		settled.Result = address.Failed(id, reason, detail)
		return settled
	}

	n := a.outcome.Address
	n.Source = id
	n.Confidence = normalize.Clamp(n.Confidence)
	n.Warnings = normalize.Warnings(n.Warnings)
	settled.Result = address.Ok(n)
	settled.Usage = a.outcome.Usage
	logger.Info("pipeline settled", "pipeline", id, "duration", settled.Duration)
	return settled
}

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
