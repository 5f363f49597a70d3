package reporting

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/modules/blackswan"
	"github.com/aristath/sentinel-risk/internal/modules/concentration"
	"github.com/aristath/sentinel-risk/internal/modules/correlation"
	"github.com/aristath/sentinel-risk/internal/modules/factors"
	"github.com/aristath/sentinel-risk/internal/modules/montecarlo"
	"github.com/aristath/sentinel-risk/internal/modules/positions"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, bus *events.Bus) (*Service, *positions.Store) {
	t.Helper()
	log := zerolog.Nop()
	store := positions.NewStore(0, nil, nil, log)
	deps := Deps{
		Store:         store,
		Factors:       factors.NewModel(0, log),
		Concentration: concentration.NewDetector(concentration.DefaultThresholds(), log),
		Correlation:   correlation.NewEngine(0, log),
		Stress:        stress.NewEngine(log),
		MonteCarlo:    montecarlo.NewSimulator(montecarlo.Config{Workers: 2, Seed: 7}, nil, nil, nil, log),
		Regime:        market_regime.NewPredictor(nil, nil, log),
		BlackSwan:     blackswan.NewAnalyzer(log),
	}
	return NewService(deps, Config{Paths: 200, HorizonDays: 21, Confidence: 0.95}, bus, nil, log), store
}

func upsert(t *testing.T, store *positions.Store, id string, class domain.AssetClass, value float64) {
	t.Helper()
	_, err := store.Upsert(domain.Position{
		ID: id, Symbol: id, AssetClass: class, Broker: "ibkr", Currency: domain.CurrencyUSD,
		Quantity: 1, AverageCost: value, CurrentPrice: value,
	})
	require.NoError(t, err)
}

func TestGenerate_EmptyPortfolio(t *testing.T) {
	svc, _ := newService(t, nil)

	report, err := svc.Generate(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 50.0, report.RiskScore)
	assert.Equal(t, domain.RiskLevelElevated, report.RiskLevel)
	assert.Empty(t, report.Alerts)
	assert.Empty(t, report.Concentration)
	assert.Equal(t, 100.0, report.Correlation.DiversificationScore)
	require.NotNil(t, report.MonteCarlo)
	assert.Zero(t, report.MonteCarlo.ProbabilityOfLoss)
	assert.Zero(t, report.MonteCarlo.ProbabilityOfGain)
	assert.Len(t, report.Factors, len(factors.Factors))
	for _, s := range report.StressTests {
		assert.Zero(t, s.PortfolioImpact)
	}
}

func TestGenerate_ConcentratedCryptoPortfolio(t *testing.T) {
	svc, store := newService(t, nil)
	upsert(t, store, "btc", domain.AssetClassCrypto, 100_000)

	report, err := svc.Generate(context.Background())
	require.NoError(t, err)

	// four concentration breaches at high or above plus extreme tail risk
	assert.Equal(t, 100.0, report.RiskScore)
	assert.Equal(t, domain.RiskLevelExtreme, report.RiskLevel)
	assert.Equal(t, domain.RiskLevelExtreme, report.BlackSwan.TailRiskLevel)
	assert.GreaterOrEqual(t, len(report.Alerts), 5)
	assert.Nil(t, report.MonteCarlo.Paths)
	assert.Len(t, report.MonteCarlo.SamplePaths, 5)
	assert.Equal(t, blackswan.SourceReturns, report.BlackSwan.Tail.Source)
}

func TestGenerate_Cancelled(t *testing.T) {
	svc, store := newService(t, nil)
	upsert(t, store, "spy", domain.AssetClassEquity, 10_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	_, ok := svc.Latest()
	assert.False(t, ok)
}

func TestGenerate_FailedRunLeavesFactorHistory(t *testing.T) {
	log := zerolog.Nop()
	store := positions.NewStore(0, nil, nil, log)
	model := factors.NewModel(0, log)
	svc := NewService(Deps{
		Store:         store,
		Factors:       model,
		Concentration: concentration.NewDetector(concentration.DefaultThresholds(), log),
		Correlation:   correlation.NewEngine(0, log),
		Stress:        stress.NewEngine(log),
		MonteCarlo:    montecarlo.NewSimulator(montecarlo.Config{Workers: 2, Seed: 7}, nil, nil, nil, log),
		Regime:        market_regime.NewPredictor(nil, nil, log),
		BlackSwan:     blackswan.NewAnalyzer(log),
	}, Config{Paths: montecarlo.MaxPathCount + 1}, nil, nil, log)
	upsert(t, store, "spy", domain.AssetClassEquity, 10_000)

	_, err := svc.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, montecarlo.ErrInvalidSimulation))
	assert.Empty(t, model.History(factors.Market))

	_, ok := svc.Latest()
	assert.False(t, ok)
}

func TestGenerate_PublishesEvent(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe(1)
	defer unsub()

	svc, _ := newService(t, bus)
	report, err := svc.Generate(context.Background())
	require.NoError(t, err)

	ev := <-ch
	assert.Equal(t, events.ReportGenerated, ev.Type)
	data := ev.Data.(*events.ReportGeneratedData)
	assert.Equal(t, report.ID, data.ReportID)
	assert.Equal(t, report.RiskScore, data.RiskScore)
}

func TestHistoryAndTrend(t *testing.T) {
	svc, store := newService(t, nil)

	first, err := svc.Generate(context.Background())
	require.NoError(t, err)
	upsert(t, store, "btc", domain.AssetClassCrypto, 100_000)
	second, err := svc.Generate(context.Background())
	require.NoError(t, err)

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, second.ID, latest.ID)

	history := svc.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Len(t, svc.History(1), 1)

	trend := svc.Trend(10)
	assert.Equal(t, []float64{50, 100}, trend.Scores)
	assert.Equal(t, 50.0, trend.Change)
	assert.Equal(t, TrendWorsening, trend.Direction)

	assert.Equal(t, TrendStable, svc.Trend(1).Direction)
}

func TestTrend_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{"exactly threshold up is stable", []float64{40, 45}, TrendStable},
		{"exactly threshold down is stable", []float64{45, 40}, TrendStable},
		{"above threshold worsens", []float64{40, 45.5}, TrendWorsening},
		{"below threshold improves", []float64{45.5, 40}, TrendImproving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, nil)
			for _, score := range tt.scores {
				svc.history.Push(&Report{RiskScore: score})
			}
			assert.Equal(t, tt.want, svc.Trend(0).Direction)
		})
	}
}

func TestHistory_Bounded(t *testing.T) {
	svc, _ := newService(t, nil)
	svc.history = utils.NewRing[*Report](3)

	var last *Report
	for i := 0; i < 5; i++ {
		r, err := svc.Generate(context.Background())
		require.NoError(t, err)
		last = r
	}
	history := svc.History(0)
	assert.Len(t, history, 3)
	assert.Equal(t, last.ID, history[0].ID)
}

func TestExportImport(t *testing.T) {
	svc, store := newService(t, nil)
	upsert(t, store, "spy", domain.AssetClassEquity, 60_000)
	upsert(t, store, "agg", domain.AssetClassFixedIncome, 40_000)

	report, err := svc.Generate(context.Background())
	require.NoError(t, err)

	data, err := svc.Export()
	require.NoError(t, err)

	decoded, err := DecodeReports(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, report.ID, decoded[0].ID)
	assert.Equal(t, report.RiskScore, decoded[0].RiskScore)
	assert.Equal(t, report.RiskLevel, decoded[0].RiskLevel)
	assert.Equal(t, report.Summary.TotalValue, decoded[0].Summary.TotalValue)
	assert.Equal(t, len(report.StressTests), len(decoded[0].StressTests))

	other, _ := newService(t, nil)
	n, err := other.Import(data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	latest, ok := other.Latest()
	require.True(t, ok)
	assert.Equal(t, report.ID, latest.ID)

	_, err = DecodeReports([]byte{0xc1})
	assert.Error(t, err)
}
