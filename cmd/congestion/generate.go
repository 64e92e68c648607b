package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wwdelhi/congestion/pkg/logger"
	"github.com/wwdelhi/congestion/pkg/synth"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		rows int
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic trips CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows <= 0 {
				return fmt.Errorf("--rows must be positive, got %d", rows)
			}
			trips := synth.Generate(rows, seed)
			if err := synth.WriteCSV(cmd.OutOrStdout(), trips); err != nil {
				return err
			}
			a.log.Info("Generated trips", logger.Int("rows", rows), logger.Int("seed", int(seed)))
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 1000, "number of trips")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}
