package config

import (
	"testing"

	"granttrack/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadOfflineDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MATCH_THRESHOLD", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadOffline()
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Matching.Threshold)
	assert.Equal(t, 4, cfg.Matching.Concurrency)
	assert.Equal(t, 2, cfg.Balancer.DefaultReviewersPerProposal)
	assert.True(t, cfg.Balancer.RotateTies)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/granttrack")
	t.Setenv("MATCH_THRESHOLD", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Threshold")
}
