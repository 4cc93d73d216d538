package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexshd/flopbench"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [results-dir]",
		Short: "Render summaries and figures from a finished sweep",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := flopbench.DefaultConfig().OutputDir
			if len(args) == 1 {
				dir = args[0]
			}

			layout, err := flopbench.PrepareLayout(dir)
			if err != nil {
				return err
			}
			res, err := flopbench.LoadResults(layout)
			if err != nil {
				return err
			}
			_, err = flopbench.WriteReport(layout, res, slog.Default())
			return err
		},
	}
	return cmd
}
