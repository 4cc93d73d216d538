package flopbench

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, TimerProcess, cfg.TimeType)
	assert.Equal(t, DefaultSolvers(), cfg.Solvers)
	assert.Equal(t, 10_000, cfg.Rows)
	assert.Equal(t, 10, cfg.Cols)
	assert.Equal(t, 5, cfg.Granularity)
	assert.Equal(t, 10, cfg.Repeat)
	assert.Equal(t, DefaultSeed, cfg.Seed)
	assert.Equal(t, "complexity_results", cfg.OutputDir)
	assert.True(t, cfg.MemoryProfile)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "flopbench.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	t.Run("overrides keep other defaults", func(t *testing.T) {
		cfg, err := LoadConfig(write(t, "time_type: total\nsolvers: [pytorch-qr, tf-cod]\ndata_rows: 500\nmemory_profile: false\n"))
		require.NoError(t, err)

		assert.Equal(t, TimerTotal, cfg.TimeType)
		assert.Equal(t, []string{"pytorch-qr", "tf-cod"}, cfg.Solvers)
		assert.Equal(t, 500, cfg.Rows)
		assert.False(t, cfg.MemoryProfile)
		assert.Equal(t, 10, cfg.Cols)
		assert.Equal(t, 5, cfg.Granularity)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := LoadConfig(write(t, ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadConfig(write(t, "rowz: 10\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rowz")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flopbench.yaml")
	want := DefaultConfig()
	want.Solvers = []string{"pytorch-qrcp"}
	want.Seed = 7

	require.NoError(t, WriteConfig(path, want))
	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"bad timer", func(c *Config) { c.TimeType = "cpu" }, ErrInvalidTimer},
		{"unknown solver", func(c *Config) { c.Solvers = []string{"numpy"} }, ErrUnknownSolver},
		{"no solvers", func(c *Config) { c.Solvers = nil }, ErrInvalidConfig},
		{"too few rows", func(c *Config) { c.Rows = 9 }, ErrInvalidConfig},
		{"one column", func(c *Config) { c.Cols = 1 }, ErrInvalidConfig},
		{"zero granularity", func(c *Config) { c.Granularity = 0 }, ErrInvalidGranularity},
		{"zero repeat", func(c *Config) { c.Repeat = 0 }, ErrInvalidConfig},
		{"no output dir", func(c *Config) { c.OutputDir = "" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.target)
		})
	}
}
