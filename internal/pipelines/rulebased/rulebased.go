// Package rulebased implements the rule_based_geonames pipeline: a
// deterministic parser for free-text addresses geocoded through the offline
// GeoNames resolver.
package rulebased

import (
	"context"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/geocode"
	"github.com/JaimeStill/addrsplit/internal/normalize"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
)

// Adapter parses locally and never calls out of process.
type Adapter struct {
	resolver *geocode.Resolver
}

// New creates the rule-based adapter over resolver.
func New(resolver *geocode.Resolver) *Adapter {
	return &Adapter{resolver: resolver}
}

func (a *Adapter) ID() address.PipelineID {
	return address.RuleBasedGeonames
}

func (a *Adapter) Run(ctx context.Context, in address.Input, _ pipelines.Config) (pipelines.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return pipelines.Outcome{}, err
	}

	n := normalize.Record(Parse(in.RawAddress, in.CountryCode), a.ID(), in)
	geocode.Apply(&n, a.resolver.Resolve(n.CountryCode, n.Postcode, n.City))

	return pipelines.Outcome{Address: n, Usage: cost.Usage{Requests: 1}}, nil
}
