package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexshd/flopbench"
)

func newSolversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solvers",
		Short: "List registered solvers and their cost models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOLVER\tLIBRARY\tDECOMPOSITION\tFLOPS (m rows, n cols, r rank)")
			for _, name := range flopbench.SolverNames() {
				rec, err := flopbench.LookupSolver(name)
				if err != nil {
					return err
				}
				formula := rec.Decomposition.Formula()
				if formula == "" {
					formula = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Name, rec.Library, rec.Decomposition, formula)
			}
			return w.Flush()
		},
	}
}
