package di

import (
	"fmt"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/aristath/sentinel-risk/internal/modules/blackswan"
	"github.com/aristath/sentinel-risk/internal/modules/concentration"
	"github.com/aristath/sentinel-risk/internal/modules/correlation"
	"github.com/aristath/sentinel-risk/internal/modules/factors"
	"github.com/aristath/sentinel-risk/internal/modules/montecarlo"
	"github.com/aristath/sentinel-risk/internal/modules/positions"
	"github.com/aristath/sentinel-risk/internal/modules/reporting"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/rs/zerolog"
)

// InitializeServices creates every service from configuration
func InitializeServices(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:  cfg,
		Bus:     events.NewBus(log),
		Metrics: metrics.NewRegistry(),
	}

	c.PositionStore = positions.NewStore(cfg.History.Position, c.Bus, c.Metrics, log)
	c.Factors = factors.NewModel(cfg.History.Factor, log)
	c.Concentration = concentration.NewDetector(concentration.Thresholds{
		Position:   cfg.Thresholds.Position,
		Sector:     cfg.Thresholds.Sector,
		AssetClass: cfg.Thresholds.AssetClass,
		Broker:     cfg.Thresholds.Broker,
		Currency:   cfg.Thresholds.Currency,
		Country:    cfg.Thresholds.Country,
	}, log)
	c.Correlation = correlation.NewEngine(cfg.Correlation, log)
	c.Stress = stress.NewEngine(log)
	c.MonteCarlo = montecarlo.NewSimulator(montecarlo.Config{
		Workers:   cfg.MonteCarlo.Workers,
		BatchSize: cfg.MonteCarlo.BatchSize,
		Seed:      uint64(cfg.MonteCarlo.Seed),
	}, montecarlo.DefaultParamTable(), c.Bus, c.Metrics, log)
	c.Regime = market_regime.NewPredictor(c.Bus, c.Metrics, log)
	c.BlackSwan = blackswan.NewAnalyzer(log)

	c.Reports = reporting.NewService(reporting.Deps{
		Store:         c.PositionStore,
		Factors:       c.Factors,
		Concentration: c.Concentration,
		Correlation:   c.Correlation,
		Stress:        c.Stress,
		MonteCarlo:    c.MonteCarlo,
		Regime:        c.Regime,
		BlackSwan:     c.BlackSwan,
	}, reporting.Config{
		HistoryLength: cfg.History.Report,
		Paths:         cfg.MonteCarlo.Paths,
		HorizonDays:   cfg.MonteCarlo.HorizonDays,
		Confidence:    cfg.MonteCarlo.Confidence,
	}, c.Bus, c.Metrics, log)

	log.Debug().Msg("Services initialized")
	return c, nil
}

// LoadData seeds positions and custom scenarios from the configured YAML files
func LoadData(c *Container, log zerolog.Logger) error {
	if path := c.Config.DataFiles.Scenarios; path != "" {
		n, err := c.Stress.LoadScenarioFile(path)
		if err != nil {
			return fmt.Errorf("failed to load scenarios: %w", err)
		}
		log.Info().Str("file", path).Int("scenarios", n).Msg("Custom scenarios loaded")
	}

	if path := c.Config.DataFiles.Portfolio; path != "" {
		ps, err := positions.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load portfolio: %w", err)
		}
		if err := c.PositionStore.Seed(ps); err != nil {
			return err
		}
		log.Info().Str("file", path).Int("positions", len(ps)).Msg("Portfolio seeded")
	}
	return nil
}
