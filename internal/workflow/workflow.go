// Package workflow fans one address out to the selected pipelines and
// gathers every settled result.
package workflow

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
)

// Outcome is the assembled state after the barrier: one result per
// selected pipeline, plus what each consumed.
type Outcome struct {
	Results   map[address.PipelineID]address.Result
	Usages    map[address.PipelineID]cost.Usage
	Durations map[address.PipelineID]time.Duration
}

// Execute runs every pipeline in ids concurrently, each under its own
// registry timeout, and returns once all have settled. Cancellation of ctx
// does not abort in-flight pipelines; only their own timeouts do.
func Execute(ctx context.Context, rt *Runtime, in address.Input, cfg pipelines.Config, ids []address.PipelineID) Outcome {
	ctx = context.WithoutCancel(ctx)
	settled := make([]pipelines.Settled, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			adapter := rt.Registry.Adapter(id)
			settled[i] = pipelines.Invoke(ctx, adapter, in, cfg, rt.Registry.Timeout(id), rt.Logger)
			return nil
		})
	}
	_ = g.Wait()

	out := Outcome{
		Results:   make(map[address.PipelineID]address.Result, len(ids)),
		Usages:    make(map[address.PipelineID]cost.Usage, len(ids)),
		Durations: make(map[address.PipelineID]time.Duration, len(ids)),
	}
	for i, id := range ids {
		out.Results[id] = settled[i].Result
		out.Usages[id] = settled[i].Usage
		out.Durations[id] = settled[i].Duration
	}

	rt.Logger.InfoContext(ctx, "workflow assembled", "pipelines", len(ids), "ok", okCount(out.Results))
	return out
}

func okCount(results map[address.PipelineID]address.Result) int {
	n := 0
	for _, r := range results {
		if r.IsOK() {
			n++
		}
	}
	return n
}
