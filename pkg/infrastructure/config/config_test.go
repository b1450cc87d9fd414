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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "greedy", cfg.Engine.Policy)
	assert.False(t, cfg.Engine.Parallel)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, int32(2), cfg.Output.Precision)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  policy: lp
  parallel: true
scenario:
  dir: ./scenarios/baseline
output:
  format: csv
  precision: 3
server:
  port: 9090
  write_timeout: 1m
`), 0o644))

	t.Setenv("CAPPLAN_OUTPUT_DIR", "/tmp/plans")
	t.Setenv("CAPPLAN_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lp", cfg.Engine.Policy)
	assert.True(t, cfg.Engine.Parallel)
	assert.Equal(t, "./scenarios/baseline", cfg.Scenario.Dir)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, int32(3), cfg.Output.Precision)
	assert.Equal(t, "/tmp/plans", cfg.Output.Dir)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown_policy", func(t *testing.T) {
		t.Setenv("CAPPLAN_ENGINE_POLICY", "annealing")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("unknown_format", func(t *testing.T) {
		t.Setenv("CAPPLAN_OUTPUT_FORMAT", "xlsx")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
