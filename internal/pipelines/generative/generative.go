// Package generative implements the llm_geonames pipeline: a Bedrock model
// splits the address from the user's prompt template and the offline
// GeoNames resolver geocodes the result.
package generative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/geocode"
	"github.com/JaimeStill/addrsplit/internal/normalize"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
	"github.com/JaimeStill/addrsplit/internal/prompts"
	"github.com/JaimeStill/addrsplit/pkg/formatting"
)

// DefaultMaxTokens bounds each completion.
const DefaultMaxTokens = 800

// WarnPostcodeInferred is recorded when the postcode came from the nearest
// centroid of the resolved city.
const WarnPostcodeInferred = "postcode_inferred_from_city"

// RequiredKeys must be present in every model reply.
var RequiredKeys = []string{"country_code", "address_line1", "postcode", "city", "confidence", "warnings"}

// Options tunes the adapter. A nil Limiter leaves calls unpaced.
type Options struct {
	MaxTokens int32
	Limiter   *rate.Limiter
}

// Adapter calls one Bedrock runtime client.
type Adapter struct {
	client    Client
	resolver  *geocode.Resolver
	limiter   *rate.Limiter
	maxTokens int32
	logger    *slog.Logger
}

// New creates the adapter.
func New(client Client, resolver *geocode.Resolver, opts Options, logger *slog.Logger) *Adapter {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Adapter{
		client:    client,
		resolver:  resolver,
		limiter:   opts.Limiter,
		maxTokens: opts.MaxTokens,
		logger:    logger.With("pipeline", address.LLMGeonames),
	}
}

func (a *Adapter) ID() address.PipelineID {
	return address.LLMGeonames
}

func (a *Adapter) Run(ctx context.Context, in address.Input, cfg pipelines.Config) (pipelines.Outcome, error) {
	modelID := strings.TrimSpace(cfg.ModelID)
	if modelID == "" {
		modelID = strings.TrimSpace(in.ModelID)
	}
	if a.client == nil || modelID == "" {
		return pipelines.Outcome{}, fmt.Errorf("%w: model_id required", pipelines.ErrMisconfigured)
	}

	template := cfg.PromptTemplate
	if strings.TrimSpace(template) == "" {
		template = prompts.DefaultTemplate
	}
	prompt := prompts.Render(template, in.RecipientName, in.CountryCode, in.RawAddress)

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return pipelines.Outcome{}, fmt.Errorf("%w: %w", pipelines.ErrThrottled, err)
		}
	}

	c, err := a.complete(ctx, modelID, prompt)
	if err != nil {
		return pipelines.Outcome{}, err
	}

	fields, err := decode(c.text)
	if err != nil {
		return pipelines.Outcome{}, err
	}

	n := normalize.Record(fields, address.LLMGeonames, in)
	m := a.resolver.Resolve(n.CountryCode, n.Postcode, n.City)
	geocode.Apply(&n, m)

	if n.Postcode == "" && m.Found {
		if pc, ok := a.resolver.InferPostcode(n.CountryCode, m.Lat, m.Lon); ok {
			n.InferredPostcode = pc.Code
			normalize.Warn(&n, WarnPostcodeInferred)
		}
	}

	return pipelines.Outcome{Address: n, Usage: usage(c, prompt)}, nil
}

func usage(c completion, prompt string) cost.Usage {
	if c.inputTokens > 0 || c.outputTokens > 0 {
		return cost.Usage{InputTokens: c.inputTokens, OutputTokens: c.outputTokens, Requests: 1}
	}
	return cost.Usage{
		InputTokens:  cost.EstimateTokens(prompt),
		OutputTokens: cost.EstimateTokens(c.text),
		Requests:     1,
		Estimated:    true,
	}
}

// decode extracts the reply object and checks the shape of every key the
// pipeline reads.
func decode(text string) (normalize.Fields, error) {
	fields, err := formatting.Parse[map[string]any](text)
	if err != nil || fields == nil {
		return nil, fmt.Errorf("%w: reply is not a JSON object", pipelines.ErrInvalidOutput)
	}

	for _, key := range RequiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %s", pipelines.ErrInvalidOutput, key)
		}
	}

	for key, v := range fields {
		switch key {
		case "confidence":
			if !confidence(v) {
				return nil, fmt.Errorf("%w: confidence must be a number", pipelines.ErrInvalidOutput)
			}
		case "warnings":
			if !warnings(v) {
				return nil, fmt.Errorf("%w: warnings must be a list of strings", pipelines.ErrInvalidOutput)
			}
		case "country_code", "address_line1", "address_line2", "postcode", "city",
			"state_region", "neighborhood", "po_box", "company", "attention":
			if !scalar(v) {
				return nil, fmt.Errorf("%w: %s must be a string", pipelines.ErrInvalidOutput, key)
			}
		}
	}
	return normalize.Fields(fields), nil
}

func scalar(v any) bool {
	switch v.(type) {
	case nil, string, float64:
		return true
	}
	return false
}

func confidence(v any) bool {
	switch v.(type) {
	case float64, string:
		_, ok := normalize.Confidence(v)
		return ok
	}
	return false
}

func warnings(v any) bool {
	switch w := v.(type) {
	case nil, string:
		return true
	case []any:
		for _, item := range w {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}
