package models

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/addrsplit/pkg/handlers"
	"github.com/JaimeStill/addrsplit/pkg/openapi"
	"github.com/JaimeStill/addrsplit/pkg/routes"
)

// Handler provides the model listing endpoint.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler over sys.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "models"),
	}
}

// Routes returns the route group for model endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/models",
		Tags:   []string{"Models"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: listOp},
		},
	}
}

// List returns the text models grouped by provider.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, groups)
}

// Schemas documents the model listing.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Model": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"model_id": {Type: "string"},
				"name":     {Type: "string"},
				"provider": {Type: "string"},
			},
		},
		"ProviderGroup": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"provider": {Type: "string"},
				"models":   {Type: "array", Items: openapi.SchemaRef("Model")},
			},
		},
	}
}

var listOp = &openapi.Operation{
	Summary:  "List Bedrock text models grouped by provider",
	Security: openapi.BearerAuth(),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSONArray("Provider groups", "ProviderGroup"),
		401: openapi.ResponseRef("Unauthorized"),
		502: {Description: "Model catalog unavailable"},
	},
}
