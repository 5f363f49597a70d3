package factors

import (
	"sync"
	"testing"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
	"github.com/aristath/sentinel-risk/internal/modules/positions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(ps ...domain.Position) (positions.Snapshot, portfolio.Summary) {
	for i := range ps {
		ps[i] = ps[i].WithDerived()
	}
	return positions.Snapshot{Positions: ps, Histories: map[string][]float64{}}, portfolio.Summarize(ps)
}

func techEquity(value float64) domain.Position {
	return domain.Position{
		ID: "aapl", Symbol: "AAPL", AssetClass: domain.AssetClassEquity,
		Quantity: 1, AverageCost: value, CurrentPrice: value,
		Sector: "Technology", Beta: domain.Float64(1.2),
	}
}

func bond(value float64) domain.Position {
	return domain.Position{
		ID: "tlt", Symbol: "TLT", AssetClass: domain.AssetClassFixedIncome,
		Quantity: 1, AverageCost: value, CurrentPrice: value,
	}
}

func byFactor(exposures []Exposure) map[Factor]Exposure {
	out := make(map[Factor]Exposure, len(exposures))
	for _, e := range exposures {
		out[e.Factor] = e
	}
	return out
}

func TestModel_ComputeExposures(t *testing.T) {
	m := NewModel(0, zerolog.Nop())
	snap, summary := snapshot(techEquity(600), bond(400))

	got := m.Compute(snap, summary)
	require.Len(t, got, len(Factors))
	for i, f := range Factors {
		assert.Equal(t, f, got[i].Factor)
	}

	e := byFactor(got)
	assert.InDelta(t, 1.12, e[Market].Exposure, 1e-12)
	assert.Equal(t, 1.0, e[Market].Benchmark)
	assert.InDelta(t, 0.12, e[Market].Active, 1e-12)
	assert.InDelta(t, 0.112, e[Market].Contribution, 1e-12)
	assert.InDelta(t, -0.2, e[Volatility].Exposure, 1e-12)
	assert.InDelta(t, 0.02, e[Volatility].Contribution, 1e-12)
	assert.InDelta(t, 0.44, e[Quality].Exposure, 1e-12)
	assert.InDelta(t, 0.34, e[Growth].Exposure, 1e-12)
	assert.InDelta(t, 0.24, e[Carry].Exposure, 1e-12)
	assert.InDelta(t, -0.3+0.08, e[Value].Exposure, 1e-12)
	assert.InDelta(t, -0.12, e[Size].Exposure, 1e-12)
	assert.Equal(t, 0.0, e[Dividend].Exposure)

	// first sample: no dispersion yet
	assert.Equal(t, 0.0, e[Market].ZScore)
	assert.Equal(t, 50.0, e[Market].Percentile)
	assert.Equal(t, 1, e[Market].HistoryLength)
}

func TestModel_ZeroVarianceHistory(t *testing.T) {
	m := NewModel(0, zerolog.Nop())
	snap, summary := snapshot(techEquity(100))

	for i := 0; i < 5; i++ {
		m.Compute(snap, summary)
	}
	e := byFactor(m.Compute(snap, summary))

	assert.Equal(t, 6, e[Market].HistoryLength)
	assert.Equal(t, 0.0, e[Market].ZScore)
	assert.Equal(t, 50.0, e[Market].Percentile)
}

func TestModel_PercentileAndZScoreAgainstHistory(t *testing.T) {
	m := NewModel(0, zerolog.Nop())
	low, lowSummary := snapshot(techEquity(100), bond(900))
	high, highSummary := snapshot(techEquity(900), bond(100))

	m.Compute(low, lowSummary)
	m.Compute(low, lowSummary)
	e := byFactor(m.Compute(high, highSummary))

	// market exposure rises from 1.02 to 1.18
	assert.InDelta(t, (2+0.5)/3.0*100, e[Market].Percentile, 1e-9)
	assert.Greater(t, e[Market].ZScore, 0.0)
	assert.Greater(t, e[Volatility].ZScore, 0.0) // -0.45 -> -0.05
	assert.Len(t, m.History(Market), 3)
}

func TestModel_HistoryIsBounded(t *testing.T) {
	m := NewModel(4, zerolog.Nop())
	snap, summary := snapshot(techEquity(100))
	for i := 0; i < 10; i++ {
		m.Compute(snap, summary)
	}
	for _, f := range Factors {
		assert.Len(t, m.History(f), 4)
	}
	assert.Nil(t, m.History("unknown"))
}

func TestModel_EmptyPortfolio(t *testing.T) {
	m := NewModel(0, zerolog.Nop())
	snap, summary := snapshot()

	got := m.Compute(snap, summary)
	require.Len(t, got, len(Factors))
	for _, e := range got {
		assert.Equal(t, 0.0, e.Exposure)
		assert.Equal(t, 0.0, e.ZScore)
		assert.Equal(t, 50.0, e.Percentile)
		assert.Equal(t, 0, e.HistoryLength)
	}
}

func TestModel_ConcurrentCompute(t *testing.T) {
	m := NewModel(50, zerolog.Nop())
	snap, summary := snapshot(techEquity(100), bond(100))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				m.Compute(snap, summary)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, m.History(Market), 50)
}

func TestLoading(t *testing.T) {
	crypto := domain.Position{AssetClass: domain.AssetClassCrypto, AverageCost: 100, CurrentPrice: 150}
	utility := domain.Position{AssetClass: domain.AssetClassEquity, Sector: "Utilities", DividendYield: domain.Float64(0.04)}
	reit := domain.Position{AssetClass: domain.AssetClassRealEstate, Sector: "Real Estate"}
	highBeta := domain.Position{AssetClass: domain.AssetClassEquity, Beta: domain.Float64(1.5), Sector: "Consumer-Discretionary"}

	tests := []struct {
		name    string
		p       domain.Position
		factor  Factor
		history []float64
		want    float64
	}{
		{"market defaults to 1", domain.Position{}, Market, nil, 1},
		{"market uses beta", highBeta, Market, nil, 1.5},
		{"momentum from price vs cost", crypto, Momentum, nil, 0.5},
		{"momentum clamps", domain.Position{AverageCost: 10, CurrentPrice: 50}, Momentum, nil, 1},
		{"momentum zero cost", domain.Position{CurrentPrice: 50}, Momentum, nil, 0},
		{"momentum from history", crypto, Momentum, []float64{100, 110}, 0.1},
		{"value sector plus yield", utility, Value, nil, 0.7},
		{"value crypto", crypto, Value, nil, -0.3},
		{"value growth sector", highBeta, Value, nil, -0.5},
		{"quality crypto", crypto, Quality, nil, -0.5},
		{"quality non quality sector", utility, Quality, nil, 0.1},
		{"size high beta equity", highBeta, Size, nil, 0.3},
		{"size crypto", crypto, Size, nil, 0.5},
		{"volatility crypto", crypto, Volatility, nil, 0.8},
		{"carry equity yield", utility, Carry, nil, 0.4},
		{"carry real estate", reit, Carry, nil, 0.3},
		{"liquidity real estate", reit, Liquidity, nil, 0.6},
		{"growth discretionary", highBeta, Growth, nil, 0.4},
		{"growth utilities", utility, Growth, nil, -0.3},
		{"growth crypto", crypto, Growth, nil, 0.5},
		{"dividend", utility, Dividend, nil, 0.4},
		{"dividend missing", crypto, Dividend, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Loading(tt.p, tt.factor, tt.history), 1e-9)
		})
	}
}
