package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/di"
	"github.com/aristath/sentinel-risk/pkg/logger"
)

const version = "v1.0.0"

// options are the flags shared by every subcommand
type options struct {
	portfolio  string
	scenarios  string
	logLevel   string
	scenario   string
	paths      int
	horizon    int
	confidence float64
	seed       int64
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "riskctl",
		Short:         "Portfolio risk analysis from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `riskctl loads a portfolio from a YAML file, runs one risk analysis and
prints the result as JSON on stdout. Logs go to stderr.`,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.portfolio, "portfolio", "", "Portfolio positions file (YAML)")
	pf.StringVar(&opts.scenarios, "scenarios", "", "Custom stress scenarios file (YAML)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	pf.IntVar(&opts.paths, "paths", 0, "Monte Carlo path count (default from RISK_MC_PATHS)")
	pf.IntVar(&opts.horizon, "horizon", 0, "Simulation horizon in trading days (default from RISK_MC_HORIZON_DAYS)")
	pf.Float64Var(&opts.confidence, "confidence", 0, "VaR confidence level in (0, 1) (default from RISK_MC_CONFIDENCE)")
	pf.Int64Var(&opts.seed, "seed", 0, "Monte Carlo seed, 0 = time based")

	rootCmd.AddCommand(
		newReportCmd(opts),
		newStressCmd(opts),
		newSimulateCmd(opts),
		newRegimeCmd(opts),
	)
	return rootCmd
}

// container builds the engine for a single run
func (o *options) container(cmd *cobra.Command) (*di.Container, zerolog.Logger, error) {
	log := logger.New(logger.Config{
		Level:  o.logLevel,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})

	cfg, err := config.Load()
	if err != nil {
		return nil, log, err
	}
	cfg.DataFiles.Portfolio = o.portfolio
	cfg.DataFiles.Scenarios = o.scenarios
	if o.paths > 0 {
		cfg.MonteCarlo.Paths = o.paths
	}
	if o.horizon > 0 {
		cfg.MonteCarlo.HorizonDays = o.horizon
	}
	if o.confidence != 0 {
		cfg.MonteCarlo.Confidence = o.confidence
	}
	if o.seed != 0 {
		cfg.MonteCarlo.Seed = o.seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, log, err
	}

	c, err := di.InitializeServices(cfg, log)
	if err != nil {
		return nil, log, err
	}
	if err := di.LoadData(c, log); err != nil {
		c.Close()
		return nil, log, err
	}
	return c, log, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
