// Package submissions runs split requests through the selected pipelines
// and owns the persisted comparison records.
package submissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
	"github.com/JaimeStill/addrsplit/internal/prompts"
	"github.com/JaimeStill/addrsplit/internal/workflow"
	"github.com/JaimeStill/addrsplit/pkg/pagination"
	"github.com/JaimeStill/addrsplit/pkg/ratelimit"
)

// DefaultRetention is how long a submission stays readable.
const DefaultRetention = 30 * 24 * time.Hour

// System defines the public contract for submission operations.
type System interface {
	Handler() *Handler

	Split(ctx context.Context, userID string, req SplitRequest) (*address.Submission, error)
	Find(ctx context.Context, userID, submissionID string) (*address.Submission, error)
	Recent(ctx context.Context, userID string, limit int) ([]address.Summary, error)
	SetPreferred(ctx context.Context, userID, submissionID, pipelineID string) (*address.Submission, error)
}

type system struct {
	store      Store
	runtime    *workflow.Runtime
	settings   prompts.System
	catalog    *cost.Catalog
	limiter    ratelimit.Limiter
	retention  time.Duration
	pagination pagination.Config
	logger     *slog.Logger
	now        func() time.Time
}

// New creates the submission system. A nil limiter admits every request and
// a non-positive retention falls back to DefaultRetention.
func New(
	store Store,
	runtime *workflow.Runtime,
	settings prompts.System,
	catalog *cost.Catalog,
	limiter ratelimit.Limiter,
	retention time.Duration,
	pagination pagination.Config,
	logger *slog.Logger,
) System {
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &system{
		store:      store,
		runtime:    runtime,
		settings:   settings,
		catalog:    catalog,
		limiter:    limiter,
		retention:  retention,
		pagination: pagination,
		logger:     logger.With("system", "submissions"),
		now:        time.Now,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}

func (s *system) Split(ctx context.Context, userID string, req SplitRequest) (*address.Submission, error) {
	in, ids, err := req.Validate()
	if err != nil {
		return nil, err
	}

	decision, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		s.logger.Warn("rate limiter unavailable, admitting request", "error", err)
	} else if !decision.Allowed {
		return nil, &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	cfg, err := s.config(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	outcome := workflow.Execute(ctx, s.runtime, in, cfg, ids)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate submission id: %w", err)
	}
	created := s.now().UTC()

	sub := &address.Submission{
		SubmissionID: id.String(),
		UserID:       userID,
		CreatedAt:    created,
		ExpiresAt:    created.Add(s.retention),
		Input:        in,
		Results:      outcome.Results,
		Costs:        s.costs(id.String(), outcome, cfg.Pricing),
		Provenance:   address.BuildProvenance(outcome.Results),
	}

	if err := s.store.Put(context.WithoutCancel(ctx), sub); err != nil {
		s.logger.Error("submission not persisted", "submission_id", sub.SubmissionID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.Info("submission persisted", "submission_id", sub.SubmissionID, "pipelines", len(ids))
	return sub, nil
}

// config resolves the per-request pipeline configuration once.
func (s *system) config(ctx context.Context, userID string, in address.Input) (pipelines.Config, error) {
	settings, err := s.settings.Find(ctx, userID)
	if err != nil {
		return pipelines.Config{}, fmt.Errorf("load settings: %w", err)
	}

	cfg := pipelines.Config{
		ModelID:        in.ModelID,
		PromptTemplate: settings.PromptTemplate,
	}
	if s.catalog != nil {
		cfg.Pricing = s.catalog.Resolve(settings.Pricing, in.ModelID)
	} else if settings.Pricing != nil {
		cfg.Pricing = *settings.Pricing
	}
	return cfg, nil
}

// costs prices the pipelines that produced a record.
func (s *system) costs(submissionID string, outcome workflow.Outcome, pricing cost.Pricing) map[address.PipelineID]address.Cost {
	out := make(map[address.PipelineID]address.Cost, len(outcome.Results))
	for id, res := range outcome.Results {
		if !res.IsOK() {
			continue
		}
		c, err := cost.Estimate(id, outcome.Usages[id], pricing)
		if errors.Is(err, cost.ErrNotBilled) {
			continue
		}
		if err != nil {
			s.logger.Warn("cost omitted", "submission_id", submissionID, "pipeline", id, "error", err)
			continue
		}
		out[id] = c
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s *system) Find(ctx context.Context, userID, submissionID string) (*address.Submission, error) {
	if _, err := uuid.Parse(submissionID); err != nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, userID, submissionID)
}

func (s *system) Recent(ctx context.Context, userID string, limit int) ([]address.Summary, error) {
	subs, err := s.store.ListRecent(ctx, userID, s.pagination.Limit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]address.Summary, len(subs))
	for i := range subs {
		out[i] = subs[i].Summarize()
	}
	return out, nil
}

func (s *system) SetPreferred(ctx context.Context, userID, submissionID, pipelineID string) (*address.Submission, error) {
	id, err := address.ParsePipelineID(pipelineID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPipelineID, err)
	}
	if _, err := uuid.Parse(submissionID); err != nil {
		return nil, ErrNotFound
	}

	if err := s.store.SetPreferred(ctx, userID, submissionID, id); err != nil {
		return nil, err
	}

	s.logger.Info("preferred pipeline set", "submission_id", submissionID, "pipeline", id)
	return s.store.Get(ctx, userID, submissionID)
}
