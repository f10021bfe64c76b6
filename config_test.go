package blobcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestEmptyConfigKeepsCallerTTL(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{})
	require.NoError(t, err)

	opts := ApplyConfig(cfg, Options[string]{TTL: time.Hour})
	assert.Equal(t, time.Hour, opts.TTL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"BLOBCACHE_TTL":            "2h",
		"BLOBCACHE_MAX_ITEMS":      "50",
		"BLOBCACHE_FOLDER":         "thumbs",
		"BLOBCACHE_SWEEP_INTERVAL": "15m",
		"UNRELATED":                "x",
	})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.TTL)
	assert.Equal(t, 50, cfg.MaxItems)
	assert.Equal(t, "thumbs", cfg.Folder)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Empty(t, cfg.Root)
}

func TestLoadConfigRejectsGarbage(t *testing.T) {
	_, err := LoadConfigFrom(map[string]string{"BLOBCACHE_TTL": "soon"})
	assert.Error(t, err)
}

func TestApplyConfigKeepsExplicitOptions(t *testing.T) {
	opts := ApplyConfig(Config{TTL: time.Hour, MaxItems: 50}, Options[string]{
		Root:         "/srv/cache",
		MaxItemCount: 5,
	})
	assert.Equal(t, time.Hour, opts.TTL)
	assert.Equal(t, 50, opts.MaxItemCount)
	assert.Equal(t, "/srv/cache", opts.Root)
	assert.Zero(t, opts.SweepInterval)
}
