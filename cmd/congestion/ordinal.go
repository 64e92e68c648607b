package main

import (
	"github.com/spf13/cobra"

	"github.com/wwdelhi/congestion/pkg/eda"
	"github.com/wwdelhi/congestion/pkg/mlmodel"
)

// ordinalHeadRows is how many rows the ordinal command previews
const ordinalHeadRows = 5

func newOrdinalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ordinal",
		Short: "Fit an ordered logit on all trips and print coefficient p-values",
		Long: `Encodes every trip (rare weather values are kept as they are),
standardises distance and speed over the full data and fits a cumulative logit
model by BFGS. Prints coefficients, standard errors, z statistics, p-values
and 95% intervals for each feature and threshold. The fit is for
interpretation only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runOrdinal(cmd)
		},
	}
}

func (a *app) runOrdinal(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ds, err := a.loadTrips()
	if err != nil {
		return err
	}

	profile, err := eda.NewProfile(ctx, ds)
	if err != nil {
		return err
	}
	defer profile.Close()
	if err := eda.WriteHead(ctx, out, profile, ordinalHeadRows); err != nil {
		return err
	}

	summary, err := mlmodel.NewService(a.cfg, a.log).FitOrdinal(ds.Trips)
	if err != nil {
		return err
	}

	if _, err := out.Write([]byte("\n")); err != nil {
		return err
	}
	return summary.Write(out)
}
