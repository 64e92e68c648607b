package main

import (
	"github.com/spf13/cobra"

	"github.com/wwdelhi/congestion/pkg/eda"
	"github.com/wwdelhi/congestion/pkg/mlmodel"
)

func newTrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Profile the trips CSV, fit the classifier and report its accuracy",
		Long: `Prints exploratory diagnostics of the trips CSV, folds rare weather
values into "Other", one-hot encodes the categorical columns, splits 80/20
stratified by level, standardises distance and speed on the training part and
fits a multinomial logistic regression. Reports train and test accuracy, the
overfitting gap, 5-fold cross-validation accuracy, the confusion matrix and a
per-class classification report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrain(cmd)
		},
	}
}

func (a *app) runTrain(cmd *cobra.Command) error {
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

	if err := eda.Report(ctx, out, profile, a.cfg.Consolidation.Columns...); err != nil {
		return err
	}

	model, err := mlmodel.NewService(a.cfg, a.log).TrainClassifier(ds.Trips)
	if err != nil {
		return err
	}

	if _, err := out.Write([]byte("\n")); err != nil {
		return err
	}
	return model.Result.WriteReport(out)
}
