// Command congestion trains and inspects the Delhi traffic congestion models
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wwdelhi/congestion/pkg/config"
	"github.com/wwdelhi/congestion/pkg/dataset"
	"github.com/wwdelhi/congestion/pkg/logger"
)

const serviceName = "congestion"

// app carries what every subcommand needs once the root pre-run has loaded it
type app struct {
	configPath string
	dataPath   string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *logger.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "congestion",
		Short: "Traffic congestion severity models for Delhi trips",
		Long: `congestion estimates the traffic density level (Low, Medium, High,
Very High) of a trip from its distance, average speed, weather, time of day,
day of week and road type.

  train     profile the trips CSV, fit the classifier and report its accuracy
  ordinal   fit an ordered logit on all trips and print coefficient p-values
  predict   train in-process and score a single trip
  generate  write a synthetic trips CSV to stdout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.dataPath, "data", "", "path to the trips CSV (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newTrainCmd(a),
		newOrdinalCmd(a),
		newPredictCmd(a),
		newGenerateCmd(a),
	)
	return root
}

// init loads the config, applies flag overrides and builds the run logger
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataPath = a.dataPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.log = log.WithFields(
		logger.String("run_id", uuid.New().String()),
		logger.String("command", cmd.Name()),
	)
	return nil
}

// loadTrips reads the configured CSV
func (a *app) loadTrips() (*dataset.Dataset, error) {
	ds, err := dataset.Load(a.cfg.DataPath)
	if err != nil {
		return nil, err
	}
	rows, cols := ds.Shape()
	a.log.Info("Loaded trips",
		logger.String("path", a.cfg.DataPath),
		logger.Int("rows", rows),
		logger.Int("columns", cols))
	return ds, nil
}
