package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/internal/models"
	"github.com/JaimeStill/addrsplit/internal/prompts"
	"github.com/JaimeStill/addrsplit/internal/submissions"
	"github.com/JaimeStill/addrsplit/pkg/auth"
	"github.com/JaimeStill/addrsplit/pkg/openapi"
	"github.com/JaimeStill/addrsplit/pkg/routes"
)

// registerRoutes mounts the domain routes behind bearer authentication and,
// unless hidden, serves the OpenAPI document without it.
func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	groups := []routes.Group{
		domain.Models.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		domain.Submissions.Handler().Routes(),
	}

	protected := http.NewServeMux()
	routes.Register(protected, groups...)
	mux.Handle("/", auth.Middleware(runtime.Verifier, runtime.Logger)(protected))

	if cfg.API.OpenAPI.Hidden {
		return nil
	}
	spec, err := buildSpec(cfg, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))
	return nil
}

func buildSpec(cfg *config.Config, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(models.Schemas())
	spec.Components.AddSchemas(prompts.Schemas())
	spec.Components.AddSchemas(submissions.Schemas())
	routes.Describe(spec, "", groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi: %w", err)
	}
	return data, nil
}
