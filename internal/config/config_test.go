package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "job-analysis-completed", cfg.AnalysisTopic)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.Equal(t, 2*time.Second, cfg.SkillAnnotatorTimeout)
	assert.Equal(t, 8, cfg.RankWorkers)
	assert.Equal(t, []string{"localhost:19092"}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.SkillTaxonomyPath)
}

func Test_Load_EnvModes(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())

	t.Setenv("APP_ENV", "PROD")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.False(t, cfg.IsTest())
}

func Test_Load_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("RANK_WORKERS", "0")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("DASHBOARD_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 1, cfg.RankWorkers)
	assert.True(t, cfg.NarrativeEnabled())
	assert.Equal(t, 5*time.Minute, cfg.DashboardCacheTTL)
}

func Test_GetNarrativeBackoffConfig(t *testing.T) {
	cfg := Config{
		AppEnv:                          "prod",
		NarrativeBackoffMaxElapsedTime:  20 * time.Second,
		NarrativeBackoffInitialInterval: time.Second,
		NarrativeBackoffMaxInterval:     8 * time.Second,
		NarrativeBackoffMultiplier:      2,
	}
	maxElapsed, initial, maxInterval, mult := cfg.GetNarrativeBackoffConfig()
	assert.Equal(t, 20*time.Second, maxElapsed)
	assert.Equal(t, time.Second, initial)
	assert.Equal(t, 8*time.Second, maxInterval)
	assert.InDelta(t, 2.0, mult, 1e-9)

	cfg.AppEnv = "test"
	maxElapsed, initial, _, _ = cfg.GetNarrativeBackoffConfig()
	assert.Equal(t, 2*time.Second, maxElapsed)
	assert.Equal(t, 50*time.Millisecond, initial)
}
