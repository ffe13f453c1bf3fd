package prompts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// System defines the public contract for settings operations.
type System interface {
	Handler() *Handler

	// Find returns the user's saved settings or the default template.
	Find(ctx context.Context, userID string) (*Settings, error)
	Save(ctx context.Context, userID string, cmd SaveCommand) (*Settings, error)
}

type system struct {
	store  Store
	logger *slog.Logger
}

// New creates the settings system over store.
func New(store Store, logger *slog.Logger) System {
	return &system{
		store:  store,
		logger: logger.With("system", "prompts"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) Find(ctx context.Context, userID string) (*Settings, error) {
	saved, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(saved.PromptTemplate) == "" {
		saved.PromptTemplate = DefaultTemplate
		saved.IsDefault = true
	}
	return saved, nil
}

func (s *system) Save(ctx context.Context, userID string, cmd SaveCommand) (*Settings, error) {
	if err := Validate(cmd); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	settings := Settings{
		PromptTemplate: strings.TrimSpace(cmd.PromptTemplate),
		Pricing:        cmd.Pricing,
		UpdatedAt:      &now,
	}
	if err := s.store.Put(ctx, userID, settings); err != nil {
		return nil, err
	}

	s.logger.Info("settings saved", "template_bytes", len(settings.PromptTemplate), "pricing", settings.Pricing != nil)
	return &settings, nil
}
