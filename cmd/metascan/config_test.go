package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metascan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Scan.Parallel)
	assert.Equal(t, 0, cfg.Scan.Workers)
	assert.Equal(t, "metascan.xml", cfg.Snapshot.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
scan:
  parallel: false
  workers: 3
snapshot:
  path: out/index.yaml
log:
  level: debug
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Scan.Parallel)
	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, "out/index.yaml", cfg.Snapshot.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "scan:\n  workers: 3\n")
	t.Setenv("METASCAN_SCAN_WORKERS", "6")
	t.Setenv("METASCAN_SNAPSHOT_PATH", "env.db")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Scan.Workers)
	assert.Equal(t, "env.db", cfg.Snapshot.Path)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"negative workers": "scan:\n  workers: -1\n",
		"bad level":        "log:\n  level: loud\n",
		"empty snapshot":   "snapshot:\n  path: \"\"\n",
	}
	for name, body := range tests {
		_, err := loadConfig(writeConfig(t, body))
		assert.Error(t, err, name)
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := newLogger("info", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown k=v")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))
}
