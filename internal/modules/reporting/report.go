// Package reporting composes every risk analysis into a scored report and
// keeps a bounded history of generated reports.
package reporting

import (
	"fmt"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/modules/blackswan"
	"github.com/aristath/sentinel-risk/internal/modules/concentration"
	"github.com/aristath/sentinel-risk/internal/modules/correlation"
	"github.com/aristath/sentinel-risk/internal/modules/factors"
	"github.com/aristath/sentinel-risk/internal/modules/montecarlo"
	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/vmihailenco/msgpack/v5"
)

// Score contributions
const (
	BaseScore                  = 50.0
	ConcentrationPenalty       = 10.0
	SevereStressPenalty        = 5.0
	ExtremeTailPenalty         = 20.0
	HighTailPenalty            = 10.0
	PoorDiversificationPenalty = 15.0

	SevereStressImpact       = -0.30
	PoorDiversificationScore = 40.0
)

// Report is an immutable composite risk assessment
type Report struct {
	GeneratedAt   time.Time                `json:"generated_at" msgpack:"generated_at"`
	MonteCarlo    *montecarlo.Result       `json:"monte_carlo" msgpack:"monte_carlo"`
	ID            string                   `json:"id" msgpack:"id"`
	RiskLevel     domain.RiskLevel         `json:"risk_level" msgpack:"risk_level"`
	Factors       []factors.Exposure       `json:"factors" msgpack:"factors"`
	Concentration []concentration.Risk     `json:"concentration" msgpack:"concentration"`
	StressTests   []stress.Result          `json:"stress_tests" msgpack:"stress_tests"`
	Alerts        []string                 `json:"alerts" msgpack:"alerts"`
	Regime        market_regime.Prediction `json:"regime" msgpack:"regime"`
	BlackSwan     blackswan.Analysis       `json:"black_swan" msgpack:"black_swan"`
	Correlation   correlation.Result       `json:"correlation" msgpack:"correlation"`
	Summary       portfolio.Summary        `json:"summary" msgpack:"summary"`
	RiskScore     float64                  `json:"risk_score" msgpack:"risk_score"`
}

// Inputs are the analysis outputs that drive the risk score
type Inputs struct {
	TailRisk             domain.RiskLevel
	Concentration        []concentration.Risk
	StressTests          []stress.Result
	DiversificationScore float64
}

// Score computes the 0-100 risk score and one alert per contributing condition
func Score(in Inputs) (float64, []string) {
	score := BaseScore
	alerts := []string{}

	for _, r := range in.Concentration {
		if r.Level.AtLeast(domain.RiskLevelHigh) {
			score += ConcentrationPenalty
			alerts = append(alerts, fmt.Sprintf("%s %s concentration in %s: %.1f%% of portfolio (limit %.1f%%)",
				r.Level, r.Type, r.Name, r.Weight*100, r.MaxWeight*100))
		}
	}

	for _, s := range in.StressTests {
		if s.PortfolioImpact < SevereStressImpact {
			score += SevereStressPenalty
			alerts = append(alerts, fmt.Sprintf("%s scenario would cost %.1f%% of portfolio value",
				s.ScenarioName, -s.PortfolioImpact*100))
		}
	}

	switch in.TailRisk {
	case domain.RiskLevelExtreme:
		score += ExtremeTailPenalty
		alerts = append(alerts, "Extreme tail risk exposure to black swan events")
	case domain.RiskLevelHigh:
		score += HighTailPenalty
		alerts = append(alerts, "High tail risk exposure to black swan events")
	}

	if in.DiversificationScore < PoorDiversificationScore {
		score += PoorDiversificationPenalty
		alerts = append(alerts, fmt.Sprintf("Low diversification score %.0f (below %.0f)",
			in.DiversificationScore, PoorDiversificationScore))
	}

	return formulas.Clamp(formulas.Finite(score, BaseScore), 0, 100), alerts
}

// EncodeReports serializes reports with msgpack
func EncodeReports(reports []*Report) ([]byte, error) {
	data, err := msgpack.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reports: %w", err)
	}
	return data, nil
}

// DecodeReports is the inverse of EncodeReports
func DecodeReports(data []byte) ([]*Report, error) {
	var reports []*Report
	if err := msgpack.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}
