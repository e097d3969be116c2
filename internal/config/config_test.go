package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, 5, cfg.Feed.PageSize)
	require.Equal(t, time.Second, cfg.Feed.Latency)
	require.Equal(t, 0.6, cfg.Viewport.Threshold)
	require.Equal(t, 100*time.Millisecond, cfg.Viewport.Dwell)
	require.Equal(t, 250*time.Millisecond, cfg.Viewport.RetryDelay)
	require.Equal(t, 1500*time.Millisecond, cfg.Effects.HeartTTL)
	require.True(t, cfg.Catalog.Seed)
	require.Equal(t, "0.0.0.0:6540", cfg.Addr())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
feed:
  page_size: 10
  latency: 250ms
viewport:
  dwell: 50ms
logging:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 10, cfg.Feed.PageSize)
	require.Equal(t, 250*time.Millisecond, cfg.Feed.Latency)
	require.Equal(t, 50*time.Millisecond, cfg.Viewport.Dwell)
	require.Equal(t, "debug", cfg.Logging.Level)
	// untouched sections keep their defaults
	require.Equal(t, 0.6, cfg.Viewport.Threshold)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  page_size: 10\n"), 0644))

	t.Setenv("REELVIEW_PAGE_SIZE", "3")
	t.Setenv("REELVIEW_FEED_LATENCY", "0s")
	t.Setenv("REELVIEW_LOG_PRETTY", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Feed.PageSize)
	require.Zero(t, cfg.Feed.Latency)
	require.False(t, cfg.Logging.Pretty)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("REELVIEW_PORT", "eighty")

	_, err := Load("")
	require.ErrorContains(t, err, "REELVIEW_PORT")
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("viewport:\n  threshold: 1.5\n"), 0644))

	_, err := Load(path)
	require.ErrorContains(t, err, "viewport.threshold")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("REELVIEW_TEST_ONLY_HOST=127.0.0.1\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("REELVIEW_TEST_ONLY_HOST") })

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "absent.env")))
	require.Equal(t, "127.0.0.1", os.Getenv("REELVIEW_TEST_ONLY_HOST"))
}
