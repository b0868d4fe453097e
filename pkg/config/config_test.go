package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 7.0, cfg.Academic.PassingGrade)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, time.Second, cfg.Audit.RetryDelay)
	assert.Equal(t, 1000, cfg.Audit.MaxEntries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PASSING_GRADE", "6.0")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("AUDIT_RETRY_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Academic.PassingGrade)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Audit.RetryDelay)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}
