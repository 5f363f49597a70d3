package stress

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holding(symbol string, class domain.AssetClass, value float64, beta *float64) domain.Position {
	return domain.Position{
		ID: symbol, Symbol: symbol, AssetClass: class,
		Quantity: 1, AverageCost: value, CurrentPrice: value, Beta: beta,
	}.WithDerived()
}

func TestRun_CovidCrashEndToEnd(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	ps := []domain.Position{holding("SPY", domain.AssetClassEquity, 100_000, domain.Float64(1.2))}

	res, err := e.Run("covid_crash_2020", ps)
	require.NoError(t, err)

	assert.Equal(t, "COVID-19 Crash", res.ScenarioName)
	assert.InDelta(t, -0.408, res.PortfolioImpact, 1e-9)
	assert.InDelta(t, 59_200, res.ValueAfter, 1e-6)
	assert.InDelta(t, -40_800, res.ImpactAmount, 1e-6)
	assert.Equal(t, 100_000.0, res.ValueBefore)
	assert.Equal(t, 180, res.RecoveryDays) // 150 days × 1.2
	assert.Equal(t, 0.0, res.HedgeEffectiveness)
	require.Len(t, res.WorstPositions, 1)
	assert.Equal(t, "SPY", res.WorstPositions[0].Symbol)
	assert.NotEmpty(t, res.Recommendations)
}

func TestRun_UnknownScenario(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	_, err := e.Run("alien_invasion", nil)
	assert.True(t, errors.Is(err, ErrScenarioNotFound))
}

func TestRunAll_DeterministicAndOrdered(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	ps := []domain.Position{
		holding("AAPL", domain.AssetClassEquity, 50_000, domain.Float64(1.1)),
		holding("TLT", domain.AssetClassFixedIncome, 30_000, nil),
		holding("BTC", domain.AssetClassCrypto, 10_000, nil),
		holding("GLD", domain.AssetClassCommodity, 10_000, nil),
	}

	first := e.RunAll(ps)
	second := e.RunAll(ps)
	require.Len(t, first, 10)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].PortfolioImpact, first[i].PortfolioImpact)
	}
	assert.Equal(t, "financial_crisis_2008", first[0].ScenarioID)
}

func TestRunAll_EmptyPortfolio(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	results := e.RunAll(nil)
	require.Len(t, results, 10)
	for _, r := range results {
		assert.Equal(t, 0.0, r.PortfolioImpact)
		assert.Equal(t, 0, r.RecoveryDays)
		assert.Empty(t, r.WorstPositions)
	}
	// all ties: ordered by ID
	assert.Equal(t, "black_monday_1987", results[0].ScenarioID)
}

func TestApply_HedgesAndWorstPositions(t *testing.T) {
	s, err := NewEngine(zerolog.Nop()).Scenario("financial_crisis_2008")
	require.NoError(t, err)

	ps := []domain.Position{holding("PUT", domain.AssetClassDerivative, 10_000, domain.Float64(-1))}
	short := holding("SH", domain.AssetClassEquity, 10_000, domain.Float64(-1))
	short.Name = "ProShares Short S&P500"
	ps = append(ps, short)
	for _, sym := range []string{"A", "B", "C", "D", "E", "F"} {
		ps = append(ps, holding(sym, domain.AssetClassEquity, 10_000, nil))
	}

	res := Apply(s, ps)
	assert.InDelta(t, 0.25, res.HedgeEffectiveness, 1e-12)
	require.Len(t, res.WorstPositions, MaxWorstPositions)
	for _, w := range res.WorstPositions {
		assert.Less(t, w.ImpactAmount, 0.0)
		assert.NotEqual(t, "PUT", w.Symbol)
		assert.NotEqual(t, "SH", w.Symbol)
	}
	// six longs lose 50% and two hedges gain: (−6×5000 + 4000 + 5000) / 80000
	assert.InDelta(t, -21_000.0/80_000, res.PortfolioImpact, 1e-12)
}

func TestApply_GainHasNoRecovery(t *testing.T) {
	s, err := NewEngine(zerolog.Nop()).Scenario("inflation_spike")
	require.NoError(t, err)

	res := Apply(s, []domain.Position{holding("GLD", domain.AssetClassCommodity, 1000, nil)})
	assert.InDelta(t, 0.25, res.PortfolioImpact, 1e-12)
	assert.Equal(t, 0, res.RecoveryDays)
	assert.Contains(t, res.Recommendations[0], "resilient")
}

func TestRecoveryDays_Capped(t *testing.T) {
	s := Scenario{MarketImpact: -0.10, RecoveryDays: 100}
	assert.Equal(t, 200, recoveryDays(s, -0.50))
	assert.Equal(t, 50, recoveryDays(s, -0.05))
	assert.Equal(t, 100, recoveryDays(Scenario{RecoveryDays: 100}, -0.05))
}

func TestAddScenario(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	err := e.AddScenario(Scenario{
		ID:           "taiwan_strait",
		MarketImpact: -0.25,
		Impacts:      map[domain.AssetClass]float64{"Equity": -0.30},
		RecoveryDays: 400,
	})
	require.NoError(t, err)

	s, err := e.Scenario("taiwan_strait")
	require.NoError(t, err)
	assert.True(t, s.Custom)
	assert.Equal(t, "taiwan_strait", s.Name)
	assert.Equal(t, 1.0, s.Volatility)
	assert.Equal(t, 21, s.HorizonDays)
	assert.Equal(t, -0.30, s.Impact(domain.AssetClassEquity))
	assert.Equal(t, -0.25, s.Impact(domain.AssetClassCrypto))
	assert.Len(t, e.Scenarios(), 11)

	// replacing keeps the count
	require.NoError(t, e.AddScenario(Scenario{ID: "taiwan_strait", MarketImpact: -0.2}))
	assert.Len(t, e.Scenarios(), 11)
	assert.Len(t, e.RunAll(nil), 11)

	invalid := []Scenario{
		{},
		{ID: "x", MarketImpact: math.NaN()},
		{ID: "x", MarketImpact: -1.5},
		{ID: "x", Impacts: map[domain.AssetClass]float64{"stocks": -0.1}},
		{ID: "x", Impacts: map[domain.AssetClass]float64{domain.AssetClassEquity: math.Inf(-1)}},
		{ID: "x", RecoveryDays: -1},
		{ID: "x", Volatility: -2},
	}
	for _, s := range invalid {
		assert.True(t, errors.Is(e.AddScenario(s), ErrInvalidScenario), "%+v", s)
	}
}

func TestBuiltinScenarios(t *testing.T) {
	scenarios := BuiltinScenarios()
	require.Len(t, scenarios, 10)
	seen := map[string]bool{}
	for _, s := range scenarios {
		assert.False(t, seen[s.ID], s.ID)
		seen[s.ID] = true
		assert.Len(t, s.Impacts, len(domain.AssetClasses), s.ID)
		assert.Positive(t, s.HorizonDays, s.ID)
		assert.Positive(t, s.Volatility, s.ID)
	}
	assert.Equal(t, -0.34, scenarios[1].Impact(domain.AssetClassEquity))
}

const customYAML = `
scenarios:
  - id: taiwan_strait
    name: Taiwan Strait Blockade
    market_impact: -0.25
    impacts:
      equity: -0.30
      commodity: 0.15
    recovery_days: 400
    volatility: 2.5
    horizon_days: 42
    conditions:
      vix: 55
`

func TestLoadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customYAML), 0o600))

	e := NewEngine(zerolog.Nop())
	n, err := e.LoadScenarioFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := e.Scenario("taiwan_strait")
	require.NoError(t, err)
	assert.Equal(t, "Taiwan Strait Blockade", s.Name)
	assert.Equal(t, 0.15, s.Impact(domain.AssetClassCommodity))
	assert.Equal(t, 42, s.HorizonDays)
	assert.Equal(t, 55.0, s.Conditions["vix"])

	_, err = e.LoadScenarioFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadScenarios(strings.NewReader("scenarios:\n  - id: x\n    bogus: 1\n"))
	assert.Error(t, err)
}

func TestLoadScenarioFile_InvalidEntryRegistersNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := `
scenarios:
  - id: sovereign_default
    market_impact: -0.20
  - id: broken
    market_impact: -1.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	e := NewEngine(zerolog.Nop())
	before := len(e.Scenarios())

	n, err := e.LoadScenarioFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScenario))
	assert.Zero(t, n)
	assert.Len(t, e.Scenarios(), before)

	_, err = e.Scenario("sovereign_default")
	assert.True(t, errors.Is(err, ErrScenarioNotFound))
}

func TestLoadScenarios_EmptyDocument(t *testing.T) {
	scenarios, err := LoadScenarios(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}
