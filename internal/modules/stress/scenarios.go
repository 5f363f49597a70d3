package stress

import "github.com/aristath/sentinel-risk/internal/domain"

// Scenario is a deterministic macro shock. The same shape is used for the
// built-in table, custom scenarios and YAML-loaded definitions.
type Scenario struct {
	Impacts      map[domain.AssetClass]float64 `json:"impacts" yaml:"impacts"`
	Conditions   map[string]float64            `json:"conditions,omitempty" yaml:"conditions"`
	ID           string                        `json:"id" yaml:"id"`
	Name         string                        `json:"name" yaml:"name"`
	Description  string                        `json:"description" yaml:"description"`
	MarketImpact float64                       `json:"market_impact" yaml:"market_impact"` // fallback for unlisted classes
	Volatility   float64                       `json:"volatility" yaml:"volatility"`       // multiplier on normal volatility
	RecoveryDays int                           `json:"recovery_days" yaml:"recovery_days"`
	HorizonDays  int                           `json:"horizon_days" yaml:"horizon_days"`
	Custom       bool                          `json:"custom" yaml:"-"`
}

// Impact returns the shock for an asset class, falling back to MarketImpact
func (s Scenario) Impact(class domain.AssetClass) float64 {
	if v, ok := s.Impacts[class]; ok {
		return v
	}
	return s.MarketImpact
}

func impacts(equity, fixedIncome, commodity, currency, crypto, realEstate, alternative, derivative float64) map[domain.AssetClass]float64 {
	return map[domain.AssetClass]float64{
		domain.AssetClassEquity:      equity,
		domain.AssetClassFixedIncome: fixedIncome,
		domain.AssetClassCommodity:   commodity,
		domain.AssetClassCurrency:    currency,
		domain.AssetClassCrypto:      crypto,
		domain.AssetClassRealEstate:  realEstate,
		domain.AssetClassAlternative: alternative,
		domain.AssetClassDerivative:  derivative,
	}
}

// BuiltinScenarios returns a fresh copy of the historical scenario table
func BuiltinScenarios() []Scenario {
	return []Scenario{
		{
			ID:           "financial_crisis_2008",
			Name:         "2008 Financial Crisis",
			Description:  "Credit freeze and bank failures after the subprime collapse",
			MarketImpact: -0.50,
			Impacts:      impacts(-0.50, 0.05, -0.35, -0.05, -0.60, -0.60, -0.25, -0.40),
			RecoveryDays: 1200,
			Volatility:   3.0,
			HorizonDays:  126,
			Conditions:   map[string]float64{"vix": 80, "credit_spread_bps": 650, "trend_return": -0.45},
		},
		{
			ID:           "covid_crash_2020",
			Name:         "COVID-19 Crash",
			Description:  "Pandemic lockdown sell-off of February and March 2020",
			MarketImpact: -0.34,
			Impacts:      impacts(-0.34, 0.03, -0.25, -0.02, -0.50, -0.40, -0.20, -0.30),
			RecoveryDays: 150,
			Volatility:   4.0,
			HorizonDays:  23,
			Conditions:   map[string]float64{"vix": 82, "credit_spread_bps": 550, "trend_return": -0.34},
		},
		{
			ID:           "flash_crash_2010",
			Name:         "2010 Flash Crash",
			Description:  "Intraday liquidity vacuum in US equities",
			MarketImpact: -0.09,
			Impacts:      impacts(-0.09, 0.01, -0.05, -0.01, -0.15, -0.07, -0.04, -0.12),
			RecoveryDays: 5,
			Volatility:   5.0,
			HorizonDays:  1,
			Conditions:   map[string]float64{"vix": 40, "trend_return": -0.09},
		},
		{
			ID:           "dotcom_bubble_2000",
			Name:         "Dot-com Bubble Burst",
			Description:  "Technology valuation collapse of 2000-2002",
			MarketImpact: -0.49,
			Impacts:      impacts(-0.49, 0.10, -0.10, 0.00, -0.70, -0.10, -0.20, -0.45),
			RecoveryDays: 1800,
			Volatility:   2.0,
			HorizonDays:  252,
			Conditions:   map[string]float64{"vix": 45, "trend_return": -0.49},
		},
		{
			ID:           "black_monday_1987",
			Name:         "Black Monday 1987",
			Description:  "Single-day 22% equity crash driven by program trading",
			MarketImpact: -0.22,
			Impacts:      impacts(-0.22, 0.02, -0.08, -0.03, -0.35, -0.15, -0.10, -0.30),
			RecoveryDays: 400,
			Volatility:   6.0,
			HorizonDays:  1,
			Conditions:   map[string]float64{"vix": 150, "trend_return": -0.22},
		},
		{
			ID:           "rate_shock",
			Name:         "Interest Rate Shock",
			Description:  "Rapid 300bp rise in policy rates",
			MarketImpact: -0.15,
			Impacts:      impacts(-0.15, -0.15, -0.05, 0.05, -0.30, -0.25, -0.10, -0.20),
			RecoveryDays: 365,
			Volatility:   1.8,
			HorizonDays:  63,
			Conditions:   map[string]float64{"rate_change_bps": 300, "vix": 30},
		},
		{
			ID:           "inflation_spike",
			Name:         "Inflation Spike",
			Description:  "Unexpected surge in consumer prices and real-rate repricing",
			MarketImpact: -0.18,
			Impacts:      impacts(-0.18, -0.12, 0.25, -0.05, -0.25, 0.05, 0.00, -0.15),
			RecoveryDays: 300,
			Volatility:   1.6,
			HorizonDays:  126,
			Conditions:   map[string]float64{"cpi_yoy": 0.09, "vix": 32},
		},
		{
			ID:           "recession",
			Name:         "Economic Recession",
			Description:  "Broad contraction in output and earnings",
			MarketImpact: -0.30,
			Impacts:      impacts(-0.30, 0.08, -0.25, -0.03, -0.45, -0.30, -0.15, -0.35),
			RecoveryDays: 540,
			Volatility:   2.0,
			HorizonDays:  189,
			Conditions:   map[string]float64{"gdp_growth": -0.03, "vix": 38, "credit_spread_bps": 500},
		},
		{
			ID:           "geopolitical_crisis",
			Name:         "Geopolitical Crisis",
			Description:  "Military conflict disrupting energy and trade",
			MarketImpact: -0.12,
			Impacts:      impacts(-0.12, 0.04, 0.20, -0.04, -0.20, -0.08, -0.05, -0.15),
			RecoveryDays: 90,
			Volatility:   2.5,
			HorizonDays:  21,
			Conditions:   map[string]float64{"oil_change": 0.40, "vix": 35},
		},
		{
			ID:           "crypto_winter",
			Name:         "Crypto Winter",
			Description:  "Prolonged digital asset bear market with exchange failures",
			MarketImpact: -0.05,
			Impacts:      impacts(-0.05, 0.01, 0.00, 0.00, -0.75, 0.00, -0.05, -0.10),
			RecoveryDays: 730,
			Volatility:   1.5,
			HorizonDays:  252,
			Conditions:   map[string]float64{"btc_drawdown": -0.75},
		},
	}
}
