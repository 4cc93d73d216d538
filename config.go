package flopbench

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls an experiment run.
type Config struct {
	TimeType      TimerKind `yaml:"time_type"`      // "total" or "process"
	Solvers       []string  `yaml:"solvers"`        // Registered solver names (default: DefaultSolvers)
	Rows          int       `yaml:"data_rows"`      // Rows in the generated dataset
	Cols          int       `yaml:"data_cols"`      // Columns, the last one is the target
	Granularity   int       `yaml:"granularity"`    // Schedule step in tenths of a decade
	Repeat        int       `yaml:"repeat"`         // Timed iterations per row count
	Seed          uint64    `yaml:"seed"`           // Dataset seed (0 = DefaultSeed)
	OutputDir     string    `yaml:"output_dir"`     // Root of the output layout
	MemoryProfile bool      `yaml:"memory_profile"` // Re-run each fit under the memory profiler

	// Logger receives progress messages. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the settings used for the published sweep.
func DefaultConfig() Config {
	return Config{
		TimeType:      TimerProcess,
		Solvers:       DefaultSolvers(),
		Rows:          10_000,
		Cols:          10,
		Granularity:   5,
		Repeat:        10,
		Seed:          DefaultSeed,
		OutputDir:     "complexity_results",
		MemoryProfile: true,
	}
}

// ErrInvalidConfig wraps every validation failure except timer and solver errors,
// which keep their own sentinels.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks the config without running anything.
func (c Config) Validate() error {
	if _, err := NewClock(c.TimeType); err != nil {
		return err
	}
	if len(c.Solvers) == 0 {
		return fmt.Errorf("%w: no solvers", ErrInvalidConfig)
	}
	for _, name := range c.Solvers {
		if _, err := LookupSolver(name); err != nil {
			return err
		}
	}
	if c.Rows < MinScheduleRows {
		return fmt.Errorf("%w: data_rows=%d, need at least %d", ErrInvalidConfig, c.Rows, MinScheduleRows)
	}
	if c.Cols < 2 {
		return fmt.Errorf("%w: data_cols=%d, need at least 2", ErrInvalidConfig, c.Cols)
	}
	if c.Granularity < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidGranularity)
	}
	if c.Repeat < 1 {
		return fmt.Errorf("%w: repeat=%d, need at least 1", ErrInvalidConfig, c.Repeat)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// DefaultConfig values; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig saves cfg as YAML, for use as a starting point with LoadConfig.
func WriteConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
