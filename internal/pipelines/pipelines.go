// Package pipelines defines the adapter contract every address backend
// implements and the boundary that turns adapter errors, panics and
// timeouts into Failed results.
package pipelines

import (
	"context"
	"errors"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
)

var (
	// ErrInvalidOutput marks a backend response that could not be mapped.
	ErrInvalidOutput = errors.New("invalid backend output")
	// ErrThrottled marks an upstream quota or rate rejection.
	ErrThrottled = errors.New("upstream throttled")
	// ErrMisconfigured marks a pipeline that cannot run with the current configuration.
	ErrMisconfigured = errors.New("pipeline misconfigured")
)

// Config is resolved once per request and shared by every adapter.
type Config struct {
	ModelID        string
	PromptTemplate string
	Pricing        cost.Pricing
}

// Outcome is a successful adapter run.
type Outcome struct {
	Address address.Normalized
	Usage   cost.Usage
}

// Adapter wraps one backend.
type Adapter interface {
	ID() address.PipelineID
	Run(ctx context.Context, in address.Input, cfg Config) (Outcome, error)
}

// Classify maps an adapter error to a failure reason.
func Classify(err error) address.FailureReason {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return address.ReasonTimeout
	case errors.Is(err, ErrInvalidOutput):
		return address.ReasonInvalidOutput
	case errors.Is(err, ErrThrottled):
		return address.ReasonThrottled
	case errors.Is(err, ErrMisconfigured):
		return address.ReasonMisconfigured
	}
	return address.ReasonUpstreamError
}
