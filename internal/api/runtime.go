package api

import (
	"context"
	"fmt"

	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/geocode"
	"github.com/JaimeStill/addrsplit/internal/infrastructure"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
	"github.com/JaimeStill/addrsplit/pkg/auth"
	"github.com/JaimeStill/addrsplit/pkg/pagination"
)

// Runtime extends Infrastructure with the API's shared read-only state:
// the geocode resolver, pricing catalog, pipeline registry and token verifier.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Resolver   *geocode.Resolver
	Catalog    *cost.Catalog
	Registry   *pipelines.Registry
	Verifier   auth.Verifier
}

// NewRuntime creates an API runtime with a module-scoped logger. It loads the
// GeoNames dataset and pricing catalog before any route is served.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	source, err := geonamesSource(&cfg.Geonames, infra)
	if err != nil {
		return nil, err
	}
	dataset, err := geocode.Load(infra.Lifecycle.Context(), source, geocode.Options{
		PostalFile: cfg.Geonames.PostalFile,
		CitiesFile: cfg.Geonames.CitiesFile,
		Countries:  cfg.Geonames.Countries,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("load geonames: %w", err)
	}
	resolver := geocode.NewResolver(dataset)

	catalog, err := cost.LoadCatalog(cfg.Pricing.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load pricing catalog: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Redis:     infra.Redis,
			AWS:       infra.AWS,
		},
		Pagination: cfg.API.Pagination,
		Resolver:   resolver,
		Catalog:    catalog,
		Registry:   newRegistry(&cfg.Pipelines, infra.AWS, resolver, logger),
		Verifier:   newVerifier(infra.Lifecycle.Context(), &cfg.Auth),
	}, nil
}

func geonamesSource(cfg *config.GeonamesConfig, infra *infrastructure.Infrastructure) (geocode.Source, error) {
	if cfg.Source == config.SourceBlob {
		if infra.Storage == nil {
			return nil, fmt.Errorf("geonames blob source requires storage")
		}
		return geocode.BlobSource{Store: infra.Storage, Prefix: cfg.BlobPrefix}, nil
	}
	return geocode.DirSource(cfg.Dir), nil
}

func newVerifier(ctx context.Context, cfg *auth.Config) auth.Verifier {
	if cfg.Dev() {
		return auth.NewDevVerifier(cfg.DevSubject)
	}
	return auth.NewVerifier(ctx, cfg)
}
