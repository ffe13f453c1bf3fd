// Package models lists the Bedrock foundation models that can back the
// llm_geonames pipeline.
package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/redis/go-redis/v9"
)

// CacheKey holds the cached provider groups.
const CacheKey = "addrsplit:models"

// DefaultTTL is how long a cached listing is served.
const DefaultTTL = time.Hour

// ErrUpstream means the model catalog could not be listed.
var ErrUpstream = errors.New("model catalog unavailable")

// MapHTTPStatus maps model catalog errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Model is one foundation model.
type Model struct {
	ID       string `json:"model_id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// ProviderGroup is the models of one provider, sorted by name.
type ProviderGroup struct {
	Provider string  `json:"provider"`
	Models   []Model `json:"models"`
}

// Client is the slice of the Bedrock control plane the catalog uses.
type Client interface {
	ListFoundationModels(ctx context.Context, params *bedrock.ListFoundationModelsInput, optFns ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error)
}

// Cache is the slice of a Redis client the catalog uses.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// System defines the public contract for the model catalog.
type System interface {
	Handler() *Handler
	List(ctx context.Context) ([]ProviderGroup, error)
}

type system struct {
	client Client
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// New creates the catalog. A nil cache lists from Bedrock on every call.
func New(client Client, cache Cache, ttl time.Duration, logger *slog.Logger) System {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &system{
		client: client,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("system", "models"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) List(ctx context.Context) ([]ProviderGroup, error) {
	if groups, ok := s.cached(ctx); ok {
		return groups, nil
	}

	if s.client == nil {
		return nil, fmt.Errorf("%w: bedrock not configured", ErrUpstream)
	}
	out, err := s.client.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	groups := Group(out.ModelSummaries)
	s.store(ctx, groups)
	return groups, nil
}

func (s *system) cached(ctx context.Context) ([]ProviderGroup, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, CacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("model cache read failed", "error", err)
		}
		return nil, false
	}

	var groups []ProviderGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		s.logger.Warn("model cache entry discarded", "error", err)
		return nil, false
	}
	return groups, true
}

func (s *system) store(ctx context.Context, groups []ProviderGroup) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, CacheKey, data, s.ttl).Err(); err != nil {
		s.logger.Warn("model cache write failed", "error", err)
	}
}

// Group keeps the models whose output includes text, or that declare no
// output modality, and groups them by provider. Providers and models are
// sorted by name.
func Group(summaries []types.FoundationModelSummary) []ProviderGroup {
	var all []Model
	for _, m := range summaries {
		id := aws.ToString(m.ModelId)
		if id == "" || !textOutput(m.OutputModalities) {
			continue
		}
		name := aws.ToString(m.ModelName)
		if name == "" {
			name = id
		}
		all = append(all, Model{ID: id, Name: name, Provider: aws.ToString(m.ProviderName)})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Provider != all[j].Provider {
			return all[i].Provider < all[j].Provider
		}
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})

	groups := make([]ProviderGroup, 0)
	for _, m := range all {
		if n := len(groups); n == 0 || groups[n-1].Provider != m.Provider {
			groups = append(groups, ProviderGroup{Provider: m.Provider})
		}
		last := &groups[len(groups)-1]
		last.Models = append(last.Models, m)
	}
	return groups
}

func textOutput(mods []types.ModelModality) bool {
	if len(mods) == 0 {
		return true
	}
	for _, m := range mods {
		if m == types.ModelModalityText {
			return true
		}
	}
	return false
}
