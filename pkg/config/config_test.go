package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "./content-store", cfg.Storage.RootDir)
	assert.Equal(t, 20, cfg.Workflow.BatchSize)
	assert.Equal(t, ModeStrict, cfg.App.Mode)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 120, cfg.Workflow.SectionMinWords)
	assert.Equal(t, 400, cfg.Workflow.SectionMaxWords)
	assert.Equal(t, 45*time.Second, cfg.Workflow.StageTimeouts["valuation"])
	assert.Zero(t, cfg.Workflow.StageTTLs["research"])
	assert.True(t, cfg.Workflow.ContinueOnFailure)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Workflow.Draft)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ROOT_DIR", "/tmp/articles")
	t.Setenv("BATCH_SIZE", "5")
	t.Setenv("STAGE_TIMEOUT_RESEARCH", "90")
	t.Setenv("STAGE_TIMEOUT_VALUATION", "2s")
	t.Setenv("KEYWORDS_API_LOGIN", "user")
	t.Setenv("KEYWORDS_API_PASSWORD", "secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("DRAFT", "true")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/articles", cfg.Storage.RootDir)
	assert.Equal(t, 5, cfg.Workflow.BatchSize)
	assert.Equal(t, 90*time.Second, cfg.Workflow.StageTimeouts["research"])
	assert.Equal(t, 2*time.Second, cfg.Workflow.StageTimeouts["valuation"])
	assert.True(t, cfg.Providers.Keywords.HasCredentials())
	assert.Equal(t, "sk-test", cfg.Providers.Image.APIKey, "image key falls back to the OpenAI key")
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.True(t, cfg.Workflow.Draft)
}

func TestLoad_ModeResolution(t *testing.T) {
	t.Run("explicit mode wins", func(t *testing.T) {
		t.Setenv("MODE", "development")
		cfg, err := LoadFile("")
		require.NoError(t, err)
		assert.True(t, cfg.IsDevelopment())
	})

	t.Run("development env selects mock fallback", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		cfg, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, ModeDevelopment, cfg.App.Mode)
	})

	t.Run("NODE_ENV style flag", func(t *testing.T) {
		t.Setenv("NODE_ENV", "development")
		cfg, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, ModeDevelopment, cfg.App.Mode)
	})

	t.Run("strict overrides development env", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("MODE", "strict")
		cfg, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, ModeStrict, cfg.App.Mode)
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Setenv("MODE", "chaos")
		_, err := LoadFile("")
		assert.Error(t, err)
	})
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := LoadFile("")
	assert.Error(t, err)
}

func TestWriteDefaultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articleforge.yaml")
	require.NoError(t, WriteDefaults(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Workflow.BatchSize)
	assert.Equal(t, 3*time.Minute, cfg.Workflow.StageTimeouts["research"])
}
