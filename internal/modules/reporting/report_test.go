package reporting

import (
	"testing"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/concentration"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		in     Inputs
		score  float64
		alerts int
	}{
		{"neutral", Inputs{TailRisk: domain.RiskLevelElevated, DiversificationScore: 100}, 50, 0},
		{
			"high and extreme concentration count, moderate does not",
			Inputs{
				Concentration: []concentration.Risk{
					{Level: domain.RiskLevelExtreme}, {Level: domain.RiskLevelHigh}, {Level: domain.RiskLevelModerate},
				},
				DiversificationScore: 100,
			},
			70, 2,
		},
		{
			"severe stress scenarios",
			Inputs{
				StressTests:          []stress.Result{{PortfolioImpact: -0.45}, {PortfolioImpact: -0.30}, {PortfolioImpact: -0.31}},
				DiversificationScore: 100,
			},
			60, 2,
		},
		{"extreme tail", Inputs{TailRisk: domain.RiskLevelExtreme, DiversificationScore: 100}, 70, 1},
		{"high tail", Inputs{TailRisk: domain.RiskLevelHigh, DiversificationScore: 100}, 60, 1},
		{"poor diversification", Inputs{DiversificationScore: 39}, 65, 1},
		{
			"clamped",
			Inputs{
				Concentration: []concentration.Risk{
					{Level: domain.RiskLevelExtreme}, {Level: domain.RiskLevelExtreme},
					{Level: domain.RiskLevelExtreme}, {Level: domain.RiskLevelExtreme},
				},
				TailRisk: domain.RiskLevelExtreme,
			},
			100, 6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, alerts := Score(tt.in)
			assert.Equal(t, tt.score, score)
			assert.Len(t, alerts, tt.alerts)
		})
	}
}
