package prompts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/addrsplit/pkg/auth"
	"github.com/JaimeStill/addrsplit/pkg/handlers"
	"github.com/JaimeStill/addrsplit/pkg/openapi"
	"github.com/JaimeStill/addrsplit/pkg/routes"
)

// Handler provides HTTP endpoints for the caller's settings.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler over sys.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "prompts"),
	}
}

// Routes returns the route group for settings endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/prompt",
		Tags:   []string{"Prompt"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Find, OpenAPI: findOp},
			{Method: "PUT", Pattern: "", Handler: h.Save, OpenAPI: saveOp},
		},
	}
}

// Find returns the caller's template, or the default one.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}

	settings, err := h.sys.Find(r.Context(), user)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, settings)
}

// Save replaces the caller's template and pricing.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}

	var cmd SaveCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: malformed body", ErrInvalidTemplate))
		return
	}

	settings, err := h.sys.Save(r.Context(), user, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, settings)
}

// Schemas documents the settings payloads.
func Schemas() map[string]*openapi.Schema {
	pricing := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"input_per_million":    {Type: "number"},
			"output_per_million":   {Type: "number"},
			"location_per_request": {Type: "number"},
			"loqate_per_request":   {Type: "number"},
		},
	}
	return map[string]*openapi.Schema{
		"Pricing": pricing,
		"Settings": {
			Type:     "object",
			Required: []string{"prompt_template", "is_default"},
			Properties: map[string]*openapi.Schema{
				"prompt_template": {Type: "string"},
				"is_default":      {Type: "boolean"},
				"pricing":         openapi.SchemaRef("Pricing"),
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"SaveSettings": {
			Type:     "object",
			Required: []string{"prompt_template"},
			Properties: map[string]*openapi.Schema{
				"prompt_template": {Type: "string", Description: "Must include {address}; may use {name} and {country}"},
				"pricing":         openapi.SchemaRef("Pricing"),
			},
		},
	}
}

var findOp = &openapi.Operation{
	Summary:  "Get the caller's prompt template",
	Security: openapi.BearerAuth(),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Saved or default settings", "Settings"),
		401: openapi.ResponseRef("Unauthorized"),
	},
}

var saveOp = &openapi.Operation{
	Summary:     "Save the caller's prompt template and pricing",
	Security:    openapi.BearerAuth(),
	RequestBody: openapi.RequestBodyJSON("SaveSettings", true),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Saved settings", "Settings"),
		400: openapi.ResponseRef("BadRequest"),
		401: openapi.ResponseRef("Unauthorized"),
	},
}
