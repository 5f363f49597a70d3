// Package factors decomposes portfolio exposure into ten systematic risk factors
// and keeps a rolling history of each exposure for z-score and percentile context.
package factors

import (
	"math"
	"sync"

	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
	"github.com/aristath/sentinel-risk/internal/modules/positions"
	"github.com/aristath/sentinel-risk/internal/utils"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/rs/zerolog"
)

// Factor identifies a systematic risk driver
type Factor string

const (
	Market     Factor = "market"
	Momentum   Factor = "momentum"
	Value      Factor = "value"
	Quality    Factor = "quality"
	Size       Factor = "size"
	Volatility Factor = "volatility"
	Carry      Factor = "carry"
	Liquidity  Factor = "liquidity"
	Growth     Factor = "growth"
	Dividend   Factor = "dividend"
)

// Factors lists every factor in report order
var Factors = []Factor{Market, Momentum, Value, Quality, Size, Volatility, Carry, Liquidity, Growth, Dividend}

// DefaultHistoryLength is the default per-factor retention
const DefaultHistoryLength = 252

// Benchmark is the neutral reference exposure for a factor
func Benchmark(f Factor) float64 {
	if f == Market {
		return 1.0
	}
	return 0
}

// Exposure is the portfolio's sensitivity to one factor
type Exposure struct {
	Factor        Factor  `json:"factor" msgpack:"factor"`
	Exposure      float64 `json:"exposure" msgpack:"exposure"`
	Benchmark     float64 `json:"benchmark" msgpack:"benchmark"`
	Active        float64 `json:"active" msgpack:"active"`
	ZScore        float64 `json:"z_score" msgpack:"z_score"`
	Percentile    float64 `json:"percentile" msgpack:"percentile"` // 0-100
	Contribution  float64 `json:"contribution" msgpack:"contribution"`
	HistoryLength int     `json:"history_length" msgpack:"history_length"`
}

// Model computes factor exposures. It is safe for concurrent use.
type Model struct {
	histories map[Factor]*utils.Ring[float64]
	log       zerolog.Logger
	mu        sync.Mutex
}

// NewModel creates a model retaining historyLen samples per factor
func NewModel(historyLen int, log zerolog.Logger) *Model {
	if historyLen <= 0 {
		historyLen = DefaultHistoryLength
	}
	m := &Model{
		histories: make(map[Factor]*utils.Ring[float64], len(Factors)),
		log:       log.With().Str("component", "factor_model").Logger(),
	}
	for _, f := range Factors {
		m.histories[f] = utils.NewRing[float64](historyLen)
	}
	return m
}

// Exposures returns Σ weight_i × loading_i per factor without touching history
func Exposures(snap positions.Snapshot, summary portfolio.Summary) map[Factor]float64 {
	out := make(map[Factor]float64, len(Factors))
	for _, f := range Factors {
		out[f] = 0
	}
	if summary.TotalValue == 0 {
		return out
	}
	for _, p := range snap.Positions {
		weight := formulas.Finite(p.MarketValue/summary.TotalValue, 0)
		if weight == 0 {
			continue
		}
		history := snap.History(p.ID)
		for _, f := range Factors {
			out[f] += weight * Loading(p, f, history)
		}
	}
	for f, v := range out {
		out[f] = formulas.Finite(v, 0)
	}
	return out
}

// Compute calculates every factor exposure, records it in the factor history
// and derives z-score and percentile against that history. An empty portfolio
// yields zero exposures and leaves history untouched.
func (m *Model) Compute(snap positions.Snapshot, summary portfolio.Summary) []Exposure {
	raw := Exposures(snap, summary)
	record := summary.TotalValue != 0

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Exposure, 0, len(Factors))
	for _, f := range Factors {
		value := raw[f]
		ring := m.histories[f]

		z, pct := 0.0, 50.0
		if record {
			ring.Push(value)
			history := ring.Values()
			z = formulas.ZScore(value, history)
			pct = formulas.PercentileRank(value, history)
		}

		benchmark := Benchmark(f)
		out = append(out, Exposure{
			Factor:        f,
			Exposure:      value,
			Benchmark:     benchmark,
			Active:        value - benchmark,
			ZScore:        z,
			Percentile:    pct,
			Contribution:  math.Abs(value) / 10,
			HistoryLength: ring.Len(),
		})
	}

	if record {
		m.log.Debug().
			Float64("market", raw[Market]).
			Float64("volatility", raw[Volatility]).
			Int("history", m.histories[Market].Len()).
			Msg("Factor exposures computed")
	}
	return out
}

// History returns a copy of a factor's exposure history, oldest first
func (m *Model) History(f Factor) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ring, ok := m.histories[f]
	if !ok {
		return nil
	}
	return ring.Values()
}
