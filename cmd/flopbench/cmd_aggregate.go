package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexshd/flopbench/aggregate"
)

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Collect circular-data experiment outputs into per-subset CSV tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := aggregate.DefaultConfig()
			cfg.Root, _ = cmd.Flags().GetString("root")
			cfg.Logger = slog.Default()

			sum, err := aggregate.Aggregate(cfg)
			if err != nil {
				return err
			}
			for _, path := range sum.Written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().String("root", aggregate.DefaultConfig().Root, "analysis directory containing outputs/")
	return cmd
}
