package flopbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// ErrSolverPanic wraps a panic recovered from a solver call.
var ErrSolverPanic = errors.New("solver panicked")

// Run executes a complete experiment: it validates cfg, prepares the output
// layout, generates the dataset, sweeps every solver over the schedule,
// estimates theoretical flops for the solvers that never failed, and writes
// the results.
//
// Solver failures do not fail the run; they are recorded in the metadata.
// Run returns an error only for invalid configuration, I/O failures, or
// context cancellation between iterations.
func Run(ctx context.Context, cfg Config) (*Results, error) {
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clock, err := NewClock(cfg.TimeType)
	if err != nil {
		return nil, err
	}
	log := cfg.logger()

	layout, err := PrepareLayout(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	ds, err := GenerateDataset(cfg.Rows, cfg.Cols, cfg.Seed)
	if err != nil {
		return nil, err
	}
	rank, err := ds.Rank()
	if err != nil {
		return nil, err
	}
	schedule, err := Schedule(cfg.Rows, cfg.Granularity)
	if err != nil {
		return nil, err
	}

	log.Info("experiment ready",
		"shape", fmt.Sprintf("%d x %d", cfg.Rows, cfg.Cols),
		"rank", rank,
		"schedule", schedule,
		"timer", cfg.TimeType)

	started := time.Now()
	sweep, err := Sweep(ctx, SweepConfig{
		Dataset:   ds,
		Solvers:   cfg.Solvers,
		Schedule:  schedule,
		Repeat:    cfg.Repeat,
		Clock:     clock,
		MemoryDir: memoryDir(layout, cfg.MemoryProfile),
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	surviving := make([]string, 0, len(cfg.Solvers))
	for _, name := range cfg.Solvers {
		if !contains(sweep.FailedSolvers, name) {
			surviving = append(surviving, name)
		}
	}

	log.Info("running theoretical estimates", "solvers", surviving)
	theory, missing, err := Theoretical(cfg.Cols, rank, surviving, schedule)
	if err != nil {
		return nil, err
	}
	for _, name := range missing {
		log.Warn("no cost model, skipping theoretical estimate", "solver", name)
	}

	res := &Results{
		Metadata: Metadata{
			RunID:             uuid.NewString(),
			DatasetShape:      fmt.Sprintf("%d x %d", cfg.Rows, cfg.Cols),
			Seed:              cfg.Seed,
			Rank:              rank,
			FailedSolvers:     sweep.FailedSolvers,
			Failures:          sweep.Failures,
			Schedule:          schedule,
			Repeat:            cfg.Repeat,
			TimerMethod:       cfg.TimeType.Describe(),
			Solvers:           surviving,
			MissingCostModels: missing,
			StartedAt:         started,
			FinishedAt:        time.Now(),
		},
		Actual:      sweep.Actual,
		Theoretical: theory,
		Memory:      sweep.Memory,
	}

	if err := WriteResults(layout, res); err != nil {
		return nil, err
	}
	log.Info("results written", "dir", layout.Root, "failed", len(sweep.FailedSolvers))
	return res, nil
}

func memoryDir(l Layout, enabled bool) string {
	if !enabled {
		return ""
	}
	return l.MemoryOutput
}

// SweepConfig is the input to Sweep.
type SweepConfig struct {
	Dataset  *Dataset
	Solvers  []string
	Schedule []int
	Repeat   int
	Clock    Clock

	// MemoryDir receives one memory profile per iteration. Empty disables
	// memory profiling.
	MemoryDir string

	Logger *slog.Logger
}

// SweepResult holds the measurements of a sweep.
type SweepResult struct {
	Actual        TimingResult
	Memory        MemoryResult
	FailedSolvers []string  // in order of first failure
	Failures      []Failure // every failed iteration
}

// Sweep times each solver at each scheduled row count, Repeat times, strictly
// sequentially. A failed iteration is stored as (rows, nil) and the sweep
// moves on.
func Sweep(ctx context.Context, cfg SweepConfig) (*SweepResult, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	records := make([]SolverRecord, 0, len(cfg.Solvers))
	for _, name := range cfg.Solvers {
		rec, err := LookupSolver(name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	res := &SweepResult{
		Actual: make(TimingResult, len(records)),
	}
	if cfg.MemoryDir != "" {
		res.Memory = make(MemoryResult, len(records))
	}

	for _, rec := range records {
		log.Info("working on solver", "solver", rec.Name, "decomposition", rec.Decomposition)
		final := make([]Sample, 0, len(cfg.Schedule)*cfg.Repeat)

		for _, rows := range cfg.Schedule {
			x, y := cfg.Dataset.Prefix(rows)

			for iter := 0; iter < cfg.Repeat; iter++ {
				if err := ctx.Err(); err != nil {
					return nil, fmt.Errorf("sweep cancelled at solver=%s rows=%d: %w", rec.Name, rows, err)
				}

				elapsed, mem, err := measure(rec, x, y, cfg.Clock, cfg.MemoryDir, rows, iter)
				if err != nil {
					log.Warn("solver failed",
						"solver", rec.Name,
						"rows", rows,
						"iteration", iter,
						"error", err)
					if !contains(res.FailedSolvers, rec.Name) {
						res.FailedSolvers = append(res.FailedSolvers, rec.Name)
					}
					res.Failures = append(res.Failures, Failure{
						Solver:    rec.Name,
						Rows:      rows,
						Iteration: iter,
						Error:     err.Error(),
					})
					final = append(final, Sample{Rows: rows})
					continue
				}

				final = append(final, Sample{Rows: rows, Elapsed: &elapsed})
				if mem != nil {
					res.Memory[rec.Name] = append(res.Memory[rec.Name], *mem)
				}
			}
		}

		res.Actual[rec.Name] = final
	}

	return res, nil
}

// measure times one fit, then repeats it under the memory profiler when
// memoryDir is set. Panics from either call are returned as errors.
func measure(rec SolverRecord, x mat.Matrix, y mat.Vector, clock Clock, memoryDir string, rows, iter int) (elapsed int64, mem *MemorySample, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrSolverPanic, p)
		}
	}()

	start := clock()
	_, err = rec.Fit(x, y)
	stop := clock()
	if err != nil {
		return 0, nil, err
	}

	if memoryDir != "" {
		name := MemoryProfileName(rec.Name, rows, iter)
		usage, err := ProfileMemory(filepath.Join(memoryDir, name), func() error {
			_, err := rec.Fit(x, y)
			return err
		})
		if err != nil {
			return 0, nil, err
		}
		mem = &MemorySample{
			Rows:            rows,
			Iteration:       iter,
			TotalAllocBytes: usage.TotalAllocBytes,
			Mallocs:         usage.Mallocs,
			Profile:         name,
		}
	}

	return stop - start, mem, nil
}

// contains checks if slice contains s.
func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
