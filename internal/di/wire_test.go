package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:        "info",
		Port:            8001,
		RequestTimeout:  time.Minute,
		ShutdownTimeout: time.Second,
		History:         config.HistoryConfig{Position: 10, Factor: 10, Report: 5},
		Thresholds: config.ThresholdConfig{
			Position: 0.10, Sector: 0.25, AssetClass: 0.40, Broker: 0.50, Currency: 0.60, Country: 0.60,
		},
		Correlation: 0.70,
		MonteCarlo:  config.MonteCarloConfig{Paths: 100, HorizonDays: 21, Confidence: 0.95, BatchSize: 50, Seed: 42},
		Schedule:    config.ScheduleConfig{Report: "@every 5m", Regime: "@hourly"},
		RateLimit:   config.RateLimitConfig{SimulateRPS: 1, SimulateBurst: 3},
	}
}

func TestWire(t *testing.T) {
	container, jobs, err := Wire(testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.PositionStore)
	assert.NotNil(t, container.Reports)
	assert.NotNil(t, container.Metrics)
	assert.NotNil(t, jobs.GenerateReport)
	assert.NotNil(t, jobs.RegimePrediction)
	assert.Equal(t, 2, container.Scheduler.Len())

	report, err := container.Reports.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, report.RiskScore)
	assert.Equal(t, uint64(42), report.MonteCarlo.Seed)
}

func TestWire_LoadsDataFiles(t *testing.T) {
	dir := t.TempDir()
	portfolio := filepath.Join(dir, "positions.yaml")
	scenarios := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(portfolio, []byte(`
positions:
  - symbol: SPY
    asset_class: equity
    broker: ibkr
    currency: USD
    quantity: 10
    average_cost: 400
    current_price: 500
`), 0o600))
	require.NoError(t, os.WriteFile(scenarios, []byte(`
scenarios:
  - id: taiwan_strait
    name: Taiwan Strait Blockade
    market_impact: -0.25
`), 0o600))

	cfg := testConfig()
	cfg.DataFiles = config.DataFilesConfig{Portfolio: portfolio, Scenarios: scenarios}

	container, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.Equal(t, 1, container.PositionStore.Len())
	_, err = container.Stress.Scenario("taiwan_strait")
	assert.NoError(t, err)
}

func TestWire_Errors(t *testing.T) {
	_, _, err := Wire(nil, zerolog.Nop())
	assert.Error(t, err)

	cfg := testConfig()
	cfg.DataFiles.Portfolio = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = Wire(cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Schedule.Report = "whenever"
	_, _, err = Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}
