// Package blackswan scores portfolio vulnerability to rare catastrophic events.
package blackswan

import (
	"math"
	"sort"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/rs/zerolog"
)

// Tail metric sources
const (
	SourceReturns     = "returns"
	SourceComposition = "composition"
)

// minTailSamples is the sample count needed for moment-based tail metrics
const minTailSamples = 4

// EventRisk is a catalogue event evaluated against the portfolio
type EventRisk struct {
	ID                 string   `json:"id" msgpack:"id"`
	Name               string   `json:"name" msgpack:"name"`
	Category           Category `json:"category" msgpack:"category"`
	Probability        float64  `json:"probability" msgpack:"probability"`
	PortfolioImpact    float64  `json:"portfolio_impact" msgpack:"portfolio_impact"`
	ExpectedLoss       float64  `json:"expected_loss" msgpack:"expected_loss"` // probability x |impact|
	ExpectedLossAmount float64  `json:"expected_loss_amount" msgpack:"expected_loss_amount"`
	HedgeCost          float64  `json:"hedge_cost" msgpack:"hedge_cost"`
	HedgeEffectiveness float64  `json:"hedge_effectiveness" msgpack:"hedge_effectiveness"`
}

// TailMetrics describe the shape of the left tail
type TailMetrics struct {
	Source         string  `json:"source" msgpack:"source"`
	Skewness       float64 `json:"skewness" msgpack:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis" msgpack:"excess_kurtosis"`
	Samples        int     `json:"samples" msgpack:"samples"`
}

// Hedge is the cost/benefit of hedging one event
type Hedge struct {
	EventID     string  `json:"event_id" msgpack:"event_id"`
	Instrument  string  `json:"instrument" msgpack:"instrument"`
	Cost        float64 `json:"cost" msgpack:"cost"`
	Benefit     float64 `json:"benefit" msgpack:"benefit"`
	NetBenefit  float64 `json:"net_benefit" msgpack:"net_benefit"`
	Recommended bool    `json:"recommended" msgpack:"recommended"`
}

// Strategy is a generic portfolio protection option
type Strategy struct {
	Name                string  `json:"name" msgpack:"name"`
	Description         string  `json:"description" msgpack:"description"`
	Cost                float64 `json:"cost" msgpack:"cost"`             // annual, fraction of allocation
	Protection          float64 `json:"protection" msgpack:"protection"` // share of drawdown offset
	Effectiveness       float64 `json:"effectiveness" msgpack:"effectiveness"`
	SuggestedAllocation float64 `json:"suggested_allocation" msgpack:"suggested_allocation"`
}

// Analysis is the black swan view of a portfolio
type Analysis struct {
	TailRiskLevel      domain.RiskLevel  `json:"tail_risk_level" msgpack:"tail_risk_level"`
	Events             []EventRisk       `json:"events" msgpack:"events"`
	Hedges             []Hedge           `json:"hedges" msgpack:"hedges"`
	Strategies         []Strategy        `json:"strategies" msgpack:"strategies"`
	Historical         []HistoricalEvent `json:"historical_events" msgpack:"historical_events"`
	Tail               TailMetrics       `json:"tail_metrics" msgpack:"tail_metrics"`
	VulnerabilityScore float64           `json:"vulnerability_score" msgpack:"vulnerability_score"`
	ExpectedAnnualLoss float64           `json:"expected_annual_loss" msgpack:"expected_annual_loss"`
	PortfolioValue     float64           `json:"portfolio_value" msgpack:"portfolio_value"`
}

var strategyMenu = []struct {
	Strategy
	base float64
}{
	{Strategy{Name: "protective_puts", Description: "Out-of-the-money index puts rolled quarterly", Cost: 0.03, Protection: 0.80, Effectiveness: 0.85}, 0.02},
	{Strategy{Name: "gold_allocation", Description: "Physical or allocated gold as a crisis diversifier", Cost: 0.004, Protection: 0.30, Effectiveness: 0.60}, 0.05},
	{Strategy{Name: "treasury_allocation", Description: "Long-dated government bonds for flight-to-quality rallies", Cost: 0.001, Protection: 0.40, Effectiveness: 0.70}, 0.10},
	{Strategy{Name: "cash_buffer", Description: "Cash reserve to avoid forced selling", Cost: 0.02, Protection: 0.20, Effectiveness: 0.90}, 0.05},
}

// Analyzer evaluates the tail event catalogue
type Analyzer struct {
	events []Event
	log    zerolog.Logger
}

// NewAnalyzer creates an analyzer over the built-in catalogue
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		events: Catalogue(),
		log:    log.With().Str("component", "black_swan").Logger(),
	}
}

// VulnerabilityScore is 50 + 30·equity + 50·crypto − 20·fixed income, clamped to [0, 100]
func VulnerabilityScore(summary portfolio.Summary) float64 {
	score := 50 +
		30*summary.Weight(domain.AssetClassEquity) +
		50*summary.Weight(domain.AssetClassCrypto) -
		20*summary.Weight(domain.AssetClassFixedIncome)
	return formulas.Clamp(formulas.Finite(score, 50), 0, 100)
}

// Analyze scores the portfolio against the catalogue. returns are optional
// simulated or realised returns used for the tail metrics.
func (a *Analyzer) Analyze(summary portfolio.Summary, returns []float64) Analysis {
	value := summary.TotalValue
	composition := summary.Composition()

	risks := make([]EventRisk, 0, len(a.events))
	hedges := make([]Hedge, 0, len(a.events))
	totalExpected := 0.0
	for _, ev := range a.events {
		impact := portfolioImpact(ev, composition)
		expected := formulas.Finite(ev.Probability*math.Abs(impact), 0)
		totalExpected += expected

		risks = append(risks, EventRisk{
			ID:                 ev.ID,
			Name:               ev.Name,
			Category:           ev.Category,
			Probability:        ev.Probability,
			PortfolioImpact:    impact,
			ExpectedLoss:       expected,
			ExpectedLossAmount: expected * value,
			HedgeCost:          ev.HedgeCost,
			HedgeEffectiveness: ev.HedgeEffectiveness,
		})

		benefit := formulas.Finite(expected*ev.HedgeEffectiveness*value, 0)
		cost := ev.HedgeCost * value
		hedges = append(hedges, Hedge{
			EventID:     ev.ID,
			Instrument:  ev.Hedge,
			Cost:        cost,
			Benefit:     benefit,
			NetBenefit:  benefit - cost,
			Recommended: benefit > cost,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		if risks[i].ExpectedLoss != risks[j].ExpectedLoss {
			return risks[i].ExpectedLoss > risks[j].ExpectedLoss
		}
		return risks[i].ID < risks[j].ID
	})
	sort.SliceStable(hedges, func(i, j int) bool {
		return hedges[i].NetBenefit > hedges[j].NetBenefit
	})

	vulnerability := VulnerabilityScore(summary)
	analysis := Analysis{
		Events:             risks,
		Hedges:             hedges,
		Strategies:         strategies(vulnerability),
		Historical:         HistoricalEvents(),
		Tail:               tailMetrics(summary, returns),
		VulnerabilityScore: vulnerability,
		TailRiskLevel:      domain.LevelFromScore(vulnerability),
		ExpectedAnnualLoss: totalExpected,
		PortfolioValue:     value,
	}

	a.log.Debug().
		Float64("vulnerability", vulnerability).
		Str("tail_risk", string(analysis.TailRiskLevel)).
		Str("tail_source", analysis.Tail.Source).
		Msg("Black swan analysis complete")
	return analysis
}

// portfolioImpact is Σ weight_c × impact_c over the asset class composition
func portfolioImpact(ev Event, composition map[string]float64) float64 {
	classes := make([]string, 0, len(composition))
	for class := range composition {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	total := 0.0
	for _, class := range classes {
		weight := composition[class]
		impact := DefaultImpact
		if c, err := domain.ParseAssetClass(class); err == nil {
			impact = ev.Impact(c)
		}
		total += weight * impact
	}
	return formulas.Finite(total, 0)
}

func tailMetrics(summary portfolio.Summary, returns []float64) TailMetrics {
	finite := make([]float64, 0, len(returns))
	for _, r := range returns {
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			finite = append(finite, r)
		}
	}
	if len(finite) >= minTailSamples {
		return TailMetrics{
			Source:         SourceReturns,
			Skewness:       formulas.Skewness(finite),
			ExcessKurtosis: formulas.ExcessKurtosis(finite),
			Samples:        len(finite),
		}
	}

	// Proxies: equity and crypto fatten and skew the left tail, bonds dampen it.
	eq := summary.Weight(domain.AssetClassEquity)
	crypto := summary.Weight(domain.AssetClassCrypto)
	fi := summary.Weight(domain.AssetClassFixedIncome)
	return TailMetrics{
		Source:         SourceComposition,
		Skewness:       formulas.Finite(-0.5*eq-1.0*crypto+0.2*fi, 0),
		ExcessKurtosis: formulas.Finite(math.Max(0, 1.0*eq+3.0*crypto-0.5*fi), 0),
		Samples:        len(finite),
	}
}

// strategies scales each base allocation by vulnerability/50, capped at twice the base
func strategies(vulnerability float64) []Strategy {
	scale := formulas.Clamp(vulnerability/50, 0, 2)
	out := make([]Strategy, len(strategyMenu))
	for i, s := range strategyMenu {
		out[i] = s.Strategy
		out[i].SuggestedAllocation = s.base * scale
	}
	return out
}
