// Package correlation estimates pairwise position correlation and diversification.
package correlation

import (
	"sort"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/utils"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// DefaultThreshold is the correlation above which a pair is reported
const DefaultThreshold = 0.70

// Pair is a highly correlated pair of positions
type Pair struct {
	SymbolA     string  `json:"symbol_a" msgpack:"symbol_a"`
	SymbolB     string  `json:"symbol_b" msgpack:"symbol_b"`
	Correlation float64 `json:"correlation" msgpack:"correlation"`
}

// Result is the correlation analysis of a position set
type Result struct {
	Symbols              []string    `json:"symbols" msgpack:"symbols"`
	Matrix               [][]float64 `json:"matrix" msgpack:"matrix"`
	HighCorrelations     []Pair      `json:"high_correlations" msgpack:"high_correlations"`
	AverageCorrelation   float64     `json:"average_correlation" msgpack:"average_correlation"`
	DiversificationScore float64     `json:"diversification_score" msgpack:"diversification_score"` // 0-100
	ClusterCount         int         `json:"cluster_count" msgpack:"cluster_count"`
}

// Engine builds correlation matrices from a deterministic similarity heuristic
type Engine struct {
	log       zerolog.Logger
	threshold float64
}

// NewEngine creates an engine. threshold <= 0 selects DefaultThreshold.
func NewEngine(threshold float64, log zerolog.Logger) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{
		threshold: threshold,
		log:       log.With().Str("component", "correlation_engine").Logger(),
	}
}

// PairCorrelation estimates the correlation of two distinct positions
func PairCorrelation(a, b domain.Position) float64 {
	crypto := domain.AssetClassCrypto
	equity, bonds := domain.AssetClassEquity, domain.AssetClassFixedIncome

	switch {
	case a.AssetClass == crypto && b.AssetClass == crypto:
		return 0.85
	case (a.AssetClass == equity && b.AssetClass == bonds) || (a.AssetClass == bonds && b.AssetClass == equity):
		return -0.2
	}

	corr := 0.0
	if a.AssetClass == b.AssetClass {
		corr += 0.5
	}
	if sa := utils.NormalizeKey(a.Sector); sa != "" && sa == utils.NormalizeKey(b.Sector) {
		corr += 0.3
	}
	if ca := utils.NormalizeKey(a.Country); ca != "" && ca == utils.NormalizeKey(b.Country) {
		corr += 0.1
	}
	return formulas.Clamp(corr, -1, 1)
}

// Build computes the matrix over positions in the given order.
// Zero positions yield an empty matrix; one yields [[1]]. Both score 100.
func (e *Engine) Build(positions []domain.Position) Result {
	n := len(positions)
	res := Result{
		Symbols:              make([]string, n),
		Matrix:               [][]float64{},
		HighCorrelations:     []Pair{},
		DiversificationScore: 100,
	}
	clusters := make(map[string]struct{})
	for i, p := range positions {
		res.Symbols[i] = p.Symbol
		clusters[string(p.AssetClass)+"|"+utils.NormalizeKey(p.Sector)] = struct{}{}
	}
	res.ClusterCount = len(clusters)
	if n == 0 {
		return res
	}

	m := mat.NewSymDense(n, nil)
	sum := 0.0
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			c := PairCorrelation(positions[i], positions[j])
			m.SetSym(i, j, c)
			sum += c
			if c > e.threshold {
				res.HighCorrelations = append(res.HighCorrelations, Pair{
					SymbolA:     positions[i].Symbol,
					SymbolB:     positions[j].Symbol,
					Correlation: c,
				})
			}
		}
	}

	res.Matrix = rows(m)

	pairs := n * (n - 1) / 2
	if pairs > 0 {
		res.AverageCorrelation = formulas.Finite(sum/float64(pairs), 0)
		res.DiversificationScore = formulas.Clamp(100*(1-res.AverageCorrelation), 0, 100)
	}

	sort.SliceStable(res.HighCorrelations, func(i, j int) bool {
		return res.HighCorrelations[i].Correlation > res.HighCorrelations[j].Correlation
	})

	e.log.Debug().
		Int("positions", n).
		Int("high_pairs", len(res.HighCorrelations)).
		Float64("diversification", res.DiversificationScore).
		Msg("Correlation matrix built")
	return res
}

func rows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
