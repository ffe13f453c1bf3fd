package pipelines

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/addrsplit/internal/address"
)

// Registry maps pipeline ids to adapters and their timeouts.
type Registry struct {
	adapters map[address.PipelineID]Adapter
	timeouts map[address.PipelineID]time.Duration
	fallback time.Duration
}

// NewRegistry creates a Registry whose adapters time out after timeout
// unless overridden with SetTimeout.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		adapters: make(map[address.PipelineID]Adapter),
		timeouts: make(map[address.PipelineID]time.Duration),
		fallback: timeout,
	}
}

// Register adds a, replacing any adapter with the same id.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.ID()] = a
}

// SetTimeout overrides the timeout of one pipeline.
func (r *Registry) SetTimeout(id address.PipelineID, d time.Duration) {
	if d > 0 {
		r.timeouts[id] = d
	}
}

// Timeout returns the timeout applied to id.
func (r *Registry) Timeout(id address.PipelineID) time.Duration {
	if d, ok := r.timeouts[id]; ok {
		return d
	}
	return r.fallback
}

// Adapter returns the adapter for id. Known ids without a registered
// adapter yield an Unavailable adapter so every selection gets a slot.
func (r *Registry) Adapter(id address.PipelineID) Adapter {
	if a, ok := r.adapters[id]; ok {
		return a
	}
	return Unavailable(id, "not registered")
}

// Available lists the registered ids in known order.
func (r *Registry) Available() []address.PipelineID {
	var out []address.PipelineID
	for _, id := range address.Known() {
		a, ok := r.adapters[id]
		if !ok {
			continue
		}
		if _, down := a.(*unavailable); down {
			continue
		}
		out = append(out, id)
	}
	return out
}

type unavailable struct {
	id     address.PipelineID
	reason string
}

// Unavailable returns an adapter that always fails with ErrMisconfigured.
func Unavailable(id address.PipelineID, reason string) Adapter {
	return &unavailable{id: id, reason: reason}
}

func (u *unavailable) ID() address.PipelineID {
	return u.id
}

func (u *unavailable) Run(context.Context, address.Input, Config) (Outcome, error) {
	return Outcome{}, fmt.Errorf("%w: %s", ErrMisconfigured, u.reason)
}
