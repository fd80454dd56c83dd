package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edurag/config"
	"edurag/internal/adapter/cache"
	"edurag/internal/adapter/embedding"
	"edurag/internal/adapter/llm"
	"edurag/internal/domain"
	"edurag/internal/logging"
	"edurag/internal/usecase"
)

func TestNewEmbedder(t *testing.T) {
	e, err := newEmbedder(config.EmbeddingConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, mockDimension, e.Dimension())
	assert.IsType(t, &embedding.HashEmbedder{}, e)

	e, err = newEmbedder(config.EmbeddingConfig{Provider: "mock", Dimension: 64, RateLimit: 100})
	require.NoError(t, err)
	assert.Equal(t, 64, e.Dimension())
	assert.IsType(t, &embedding.RateLimited{}, e)

	t.Setenv("EDURAG_TEST_EMBED_KEY", "sk-test")
	e, err = newEmbedder(config.EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", APIKeyEnv: "EDURAG_TEST_EMBED_KEY"})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimension())

	_, err = newEmbedder(config.EmbeddingConfig{Provider: "openai", Model: "m", APIKeyEnv: "EDURAG_TEST_UNSET_KEY"})
	assert.Error(t, err)

	_, err = newEmbedder(config.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)
}

func TestNewGenerator(t *testing.T) {
	g, err := newGenerator(config.GenerationConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &llm.Extractive{}, g)

	g, err = newGenerator(config.GenerationConfig{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "llama3", g.ModelName())

	_, err = newGenerator(config.GenerationConfig{Provider: "nobody"})
	assert.Error(t, err)
}

func TestNewTokenCounter(t *testing.T) {
	c, err := newTokenCounter("heuristic")
	require.NoError(t, err)
	assert.Positive(t, c.CountTokens("admission requirements"))

	_, err = newTokenCounter("sentencepiece")
	assert.Error(t, err)
}

func TestNewStore_Bolt(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	st, err := newStore(context.Background(), cfg, dir)
	require.NoError(t, err)
	defer st.Close()

	_, err = os.Stat(filepath.Join(dir, ".edurag", "documents.db"))
	assert.NoError(t, err)
}

func TestNewStore_PostgresNeedsDSN(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "postgres"
	cfg.Store.PostgresDSNEnv = "EDURAG_TEST_UNSET_DSN"

	_, err := newStore(context.Background(), cfg, t.TempDir())
	assert.ErrorContains(t, err, "EDURAG_TEST_UNSET_DSN")
}

func TestNewApp_EndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "memory"
	ctx := context.Background()

	app, err := newApp(ctx, cfg, t.TempDir(), true, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &cache.CachedRetriever{}, app.Retriever)

	app.Queue.Start(ctx)
	_, err = app.Docs.Upload(ctx, usecase.UploadRequest{
		ID:            "D1",
		InstitutionID: "unilag",
		Title:         "Admission Requirements",
		Text:          "Admission requires a WAEC certificate with five credits.",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		doc, err := app.Docs.Get(ctx, "D1")
		return err == nil && doc.State == domain.StateProcessed
	}, 2*time.Second, 10*time.Millisecond)

	ans, err := app.Answer.Answer(ctx, "unilag", "admission requirements", 0)
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "WAEC certificate")

	require.NoError(t, app.Close())
}

func TestNewApp_RejectsBadChunking(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "memory"
	cfg.Chunking.Overlap = cfg.Chunking.ChunkSize

	_, err := newApp(context.Background(), cfg, t.TempDir(), false, logging.Discard())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(300*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}

func TestRating(t *testing.T) {
	assert.Equal(t, "HIGH", rating(0.9))
	assert.Equal(t, "GOOD", rating(0.6))
	assert.Equal(t, "OK", rating(0.4))
	assert.Equal(t, "LOW", rating(0.1))
}
