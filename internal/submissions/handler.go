package submissions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/JaimeStill/addrsplit/pkg/auth"
	"github.com/JaimeStill/addrsplit/pkg/handlers"
	"github.com/JaimeStill/addrsplit/pkg/pagination"
	"github.com/JaimeStill/addrsplit/pkg/routes"
)

// Handler provides HTTP endpoints for split requests and submissions.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "submissions"),
		pagination: pagination,
	}
}

// Routes returns the route group for submission endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Tags:   []string{"Submissions"},
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/split", Handler: h.Split, OpenAPI: splitOp},
			{Method: "GET", Pattern: "/recent", Handler: h.Recent, OpenAPI: recentOp},
			{Method: "GET", Pattern: "/submission/{id}", Handler: h.Find, OpenAPI: findOp},
			{Method: "PUT", Pattern: "/submission/{id}/preferred", Handler: h.SetPreferred, OpenAPI: preferredOp},
		},
	}
}

// Split runs the selected pipelines and returns the persisted submission.
func (h *Handler) Split(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}

	var req SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: malformed body", ErrValidation))
		return
	}

	sub, err := h.sys.Split(r.Context(), user, req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, sub)
}

// Recent lists the caller's newest submissions.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}

	limit := pagination.LimitFromQuery(r.URL.Query(), h.pagination)

	items, err := h.sys.Recent(r.Context(), user, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Find returns one of the caller's submissions.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}

	sub, err := h.sys.Find(r.Context(), user, r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sub)
}

// SetPreferred records the caller's preferred pipeline on a submission.
func (h *Handler) SetPreferred(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}

	var req PreferredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: malformed body", ErrInvalidPipelineID))
		return
	}

	sub, err := h.sys.SetPreferred(r.Context(), user, r.PathValue("id"), req.PipelineID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sub)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var limited *RateLimitError
	if errors.As(err, &limited) {
		secs := int(math.Ceil(limited.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(1, secs)))
	}
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}
