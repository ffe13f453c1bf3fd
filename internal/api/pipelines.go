package api

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/location"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/internal/geocode"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
	"github.com/JaimeStill/addrsplit/internal/pipelines/generative"
	locationpipe "github.com/JaimeStill/addrsplit/internal/pipelines/location"
	"github.com/JaimeStill/addrsplit/internal/pipelines/loqate"
	"github.com/JaimeStill/addrsplit/internal/pipelines/rulebased"
)

// newRegistry registers one adapter per known pipeline. Pipelines missing
// their upstream settings are registered as unavailable so a selection
// still settles with a misconfigured failure.
func newRegistry(cfg *config.PipelinesConfig, awsCfg aws.Config, resolver *geocode.Resolver, logger *slog.Logger) *pipelines.Registry {
	reg := pipelines.NewRegistry(cfg.TimeoutDuration())
	for _, id := range address.Known() {
		reg.SetTimeout(id, cfg.TimeoutFor(id))
	}

	reg.Register(rulebased.New(resolver))

	var limiter *rate.Limiter
	if cfg.BedrockRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BedrockRate), 1)
	}
	reg.Register(generative.New(
		bedrockruntime.NewFromConfig(awsCfg),
		resolver,
		generative.Options{MaxTokens: int32(cfg.MaxTokens), Limiter: limiter},
		logger,
	))

	if cfg.PlaceIndex != "" {
		reg.Register(locationpipe.New(location.NewFromConfig(awsCfg), cfg.PlaceIndex))
	} else {
		reg.Register(pipelines.Unavailable(address.AWSServices, "place_index not configured"))
	}

	if cfg.Loqate.Key != "" {
		client := loqate.NewClient(loqate.ClientConfig{
			BaseURL: cfg.Loqate.BaseURL,
			Key:     cfg.Loqate.Key,
			Rate:    rate.Limit(cfg.Loqate.Rate),
		})
		reg.Register(loqate.New(client, resolver))
	} else {
		reg.Register(pipelines.Unavailable(address.Loqate, "loqate key not configured"))
	}

	logger.Info("pipelines registered", "available", reg.Available())
	return reg
}
