package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \":8080\"\n")

	v, err := LoadConfig(path)
	require.NoError(t, err)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.Download.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.Download.PollTimeout)
	assert.Equal(t, int64(2*1024*1024*1024), cfg.Download.MaxFileSize)
	assert.True(t, cfg.Resolver.YoutubeRemoteFirst)
	assert.ElementsMatch(t, []string{"douyin", "xiaohongshu", "tiktok", "instagram"}, cfg.Resolver.MetadataFallbackPlatforms)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
download:
  pollInterval: 500ms
  pollTimeout: 2m
batch:
  concurrency: 5
resolver:
  metadataBackfillPlatforms: ["tiktok"]
`)

	v, err := LoadConfig(path)
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Download.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Download.PollTimeout)
	assert.Equal(t, 5, cfg.Batch.Concurrency)
	assert.Equal(t, []string{"tiktok"}, cfg.Resolver.MetadataBackfillPlatforms)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
