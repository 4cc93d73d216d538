package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexshd/flopbench"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a complexity sweep and write its results",
		Long: `Generates a synthetic dataset, times every solver over a logarithmic
schedule of row counts, and writes metadata.yaml plus raw timings under the
output directory. Flags override values from --config.`,
		RunE: runSweep,
	}

	defaults := flopbench.DefaultConfig()
	f := cmd.Flags()
	f.String("config", "", "YAML config file")
	f.String("time-type", string(defaults.TimeType), `timer: "total" or "process"`)
	f.StringSlice("solvers", defaults.Solvers, "solvers to sweep")
	f.Int("rows", defaults.Rows, "dataset rows")
	f.Int("cols", defaults.Cols, "dataset columns, the last is the target")
	f.Int("granularity", defaults.Granularity, "schedule step in tenths of a decade")
	f.Int("repeat", defaults.Repeat, "timed iterations per row count")
	f.Uint64("seed", defaults.Seed, "dataset seed")
	f.String("output", defaults.OutputDir, "output directory")
	f.Bool("memory-profile", defaults.MemoryProfile, "write a memory profile per iteration")
	f.Bool("report", true, "render summaries and figures after the sweep")
	return cmd
}

func runSweep(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	cfg := flopbench.DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := flopbench.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if flags.Changed("time-type") {
		v, _ := flags.GetString("time-type")
		cfg.TimeType = flopbench.TimerKind(v)
	}
	if flags.Changed("solvers") {
		cfg.Solvers, _ = flags.GetStringSlice("solvers")
	}
	if flags.Changed("rows") {
		cfg.Rows, _ = flags.GetInt("rows")
	}
	if flags.Changed("cols") {
		cfg.Cols, _ = flags.GetInt("cols")
	}
	if flags.Changed("granularity") {
		cfg.Granularity, _ = flags.GetInt("granularity")
	}
	if flags.Changed("repeat") {
		cfg.Repeat, _ = flags.GetInt("repeat")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("memory-profile") {
		cfg.MemoryProfile, _ = flags.GetBool("memory-profile")
	}
	cfg.Logger = slog.Default()

	res, err := flopbench.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if report, _ := flags.GetBool("report"); report {
		if _, err := flopbench.WriteReport(flopbench.NewLayout(cfg.OutputDir), res, cfg.Logger); err != nil {
			return err
		}
	}
	return nil
}
