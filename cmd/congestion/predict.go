package main

import (
	"github.com/spf13/cobra"

	"github.com/wwdelhi/congestion/pkg/logger"
	"github.com/wwdelhi/congestion/pkg/mlmodel"
	"github.com/wwdelhi/congestion/pkg/models"
)

// referenceTrip is scored when no trip flags are given
var referenceTrip = models.Trip{
	DistanceKm:       15.5,
	AverageSpeedKmph: 25.0,
	Weather:          "Rain",
	TimeOfDay:        "Morning Peak",
	DayOfWeek:        "Weekday",
	RoadType:         "Main Road",
}

func newPredictCmd(a *app) *cobra.Command {
	trip := referenceTrip

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Train in-process and score a single trip",
		Long: `Runs the training pipeline on the trips CSV and scores one trip with
the fitted model. Prints the predicted level and the probability of every
level. A categorical value the model was not trained on is an error.

Example:
  congestion predict --distance 15.5 --speed 25 --weather Rain \
    --time-of-day "Morning Peak" --day-of-week Weekday --road-type "Main Road"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPredict(cmd, trip)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&trip.DistanceKm, "distance", referenceTrip.DistanceKm, "trip distance in km")
	flags.Float64Var(&trip.AverageSpeedKmph, "speed", referenceTrip.AverageSpeedKmph, "average speed in km/h")
	flags.StringVar(&trip.Weather, "weather", referenceTrip.Weather, "weather condition")
	flags.StringVar(&trip.TimeOfDay, "time-of-day", referenceTrip.TimeOfDay, "time of day")
	flags.StringVar(&trip.DayOfWeek, "day-of-week", referenceTrip.DayOfWeek, "Weekday or Weekend")
	flags.StringVar(&trip.RoadType, "road-type", referenceTrip.RoadType, "road type")
	return cmd
}

func (a *app) runPredict(cmd *cobra.Command, trip models.Trip) error {
	ds, err := a.loadTrips()
	if err != nil {
		return err
	}

	model, err := mlmodel.NewService(a.cfg, a.log).TrainClassifier(ds.Trips)
	if err != nil {
		return err
	}
	predictor, err := model.Predictor()
	if err != nil {
		return err
	}

	prediction, err := predictor.Predict(trip)
	if err != nil {
		return err
	}
	a.log.Info("Scored trip",
		logger.String("level", prediction.Level.String()),
		logger.Float("test_accuracy", model.Result.TestMetrics.Accuracy))

	return prediction.Format(cmd.OutOrStdout())
}
