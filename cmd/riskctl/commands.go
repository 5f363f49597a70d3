package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/modules/montecarlo"
	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
)

func newReportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate a full risk report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.Reports.Generate(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func newStressCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run deterministic stress scenarios",
		Long:  "Runs every registered scenario, or only --scenario when given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ps := c.PositionStore.All()
			if opts.scenario == "" {
				return printJSON(cmd, c.Stress.RunAll(ps))
			}
			res, err := c.Stress.Run(opts.scenario, ps)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "Scenario id (default: all)")
	return cmd
}

func newSimulateCmd(opts *options) *cobra.Command {
	var withPaths bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a Monte Carlo simulation",
		Long:  "Simulates the portfolio forward. With --scenario the drift is steered toward the scenario's shocked value across the whole horizon.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			cfg := c.Config.MonteCarlo
			summary := portfolio.Summarize(c.PositionStore.All())

			var res *montecarlo.Result
			if opts.scenario == "" {
				res, err = c.MonteCarlo.Simulate(cmd.Context(), montecarlo.Request{
					Composition:     summary.Composition(),
					PortfolioValue:  summary.TotalValue,
					ConfidenceLevel: cfg.Confidence,
					HorizonDays:     cfg.HorizonDays,
					PathCount:       cfg.Paths,
				})
			} else {
				scenario, serr := c.Stress.Scenario(opts.scenario)
				if serr != nil {
					return serr
				}
				res, err = c.MonteCarlo.RunStressTest(cmd.Context(), summary.TotalValue, summary.Composition(), scenario, cfg.Paths)
			}
			if err != nil {
				return err
			}
			if !withPaths {
				res.Paths = nil
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "Stress scenario id to simulate")
	cmd.Flags().BoolVar(&withPaths, "with-paths", false, "Include per-path summaries in the output")
	return cmd
}

func newRegimeCmd(opts *options) *cobra.Command {
	var (
		signals market_regime.Signals
		current string
	)

	cmd := &cobra.Command{
		Use:   "regime",
		Short: "Classify market signals and predict regime transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if current != "" {
				r, err := market_regime.ParseRegime(current)
				if err != nil {
					return err
				}
				if err := c.Regime.SetCurrentRegime(r); err != nil {
					return err
				}
			}
			if signals == (market_regime.Signals{}) {
				return printJSON(cmd, c.Regime.Predict())
			}
			return printJSON(cmd, c.Regime.Observe(signals))
		},
	}

	f := cmd.Flags()
	f.StringVar(&current, "current", "", "Current regime before classification (e.g. bull_quiet)")
	f.Float64Var(&signals.ImpliedVolatility, "vix", 0, "Implied volatility index level")
	f.Float64Var(&signals.ImpliedVolatility3M, "vix3m", 0, "Three-month implied volatility level")
	f.Float64Var(&signals.TrendReturn, "trend", 0, "Trailing market return as a fraction")
	f.Float64Var(&signals.CreditSpreadBps, "credit-spread", 0, "High-yield credit spread in basis points")
	f.Float64Var(&signals.BreadthRatio, "breadth", 0, "Share of issues above their moving average")
	f.Float64Var(&signals.PutCallRatio, "put-call", 0, "Equity put/call ratio")
	return cmd
}
