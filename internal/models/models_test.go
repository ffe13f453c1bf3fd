package models_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/addrsplit/internal/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBedrock struct {
	calls     int
	summaries []types.FoundationModelSummary
	err       error
}

func (f *fakeBedrock) ListFoundationModels(context.Context, *bedrock.ListFoundationModelsInput, ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &bedrock.ListFoundationModelsOutput{ModelSummaries: f.summaries}, nil
}

func summary(id, name, provider string, out ...types.ModelModality) types.FoundationModelSummary {
	return types.FoundationModelSummary{
		ModelId:          aws.String(id),
		ModelName:        aws.String(name),
		ProviderName:     aws.String(provider),
		OutputModalities: out,
	}
}

var catalog = []types.FoundationModelSummary{
	summary("anthropic.claude-3-haiku-20240307-v1:0", "Claude 3 Haiku", "Anthropic", types.ModelModalityText),
	summary("amazon.titan-image-generator-v1", "Titan Image Generator G1", "Amazon", types.ModelModalityImage),
	summary("amazon.nova-lite-v1:0", "Nova Lite", "Amazon", types.ModelModalityText),
	summary("anthropic.claude-3-5-sonnet-20240620-v1:0", "Claude 3.5 Sonnet", "Anthropic", types.ModelModalityText),
	summary("amazon.titan-embed-text-v2:0", "Titan Text Embeddings V2", "Amazon", types.ModelModalityEmbedding),
	summary("meta.llama3-8b-instruct-v1:0", "", "Meta"),
}

func TestGroup(t *testing.T) {
	want := []models.ProviderGroup{
		{Provider: "Amazon", Models: []models.Model{
			{ID: "amazon.nova-lite-v1:0", Name: "Nova Lite", Provider: "Amazon"},
		}},
		{Provider: "Anthropic", Models: []models.Model{
			{ID: "anthropic.claude-3-haiku-20240307-v1:0", Name: "Claude 3 Haiku", Provider: "Anthropic"},
			{ID: "anthropic.claude-3-5-sonnet-20240620-v1:0", Name: "Claude 3.5 Sonnet", Provider: "Anthropic"},
		}},
		{Provider: "Meta", Models: []models.Model{
			{ID: "meta.llama3-8b-instruct-v1:0", Name: "meta.llama3-8b-instruct-v1:0", Provider: "Meta"},
		}},
	}

	if diff := cmp.Diff(want, models.Group(catalog)); diff != "" {
		t.Errorf("Group() mismatch (-want +got):\n%s", diff)
	}
}

func TestListCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fake := &fakeBedrock{summaries: catalog}
	sys := models.New(fake, client, 10*time.Minute, discard())
	ctx := context.Background()

	first, err := sys.List(ctx)
	require.NoError(t, err)
	second, err := sys.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(models.CacheKey))
	assert.Equal(t, 10*time.Minute, mr.TTL(models.CacheKey))

	mr.FastForward(11 * time.Minute)
	_, err = sys.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestListWithoutCache(t *testing.T) {
	fake := &fakeBedrock{summaries: catalog}
	sys := models.New(fake, nil, 0, discard())

	for range 2 {
		_, err := sys.List(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fake.calls)
}

func TestListUpstreamError(t *testing.T) {
	sys := models.New(&fakeBedrock{err: errors.New("access denied")}, nil, 0, discard())

	_, err := sys.List(context.Background())
	require.ErrorIs(t, err, models.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, models.MapHTTPStatus(err))

	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/models", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
