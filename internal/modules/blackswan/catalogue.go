package blackswan

import "github.com/aristath/sentinel-risk/internal/domain"

// Category groups tail events by origin
type Category string

const (
	CategoryGeopolitical  Category = "geopolitical"
	CategoryFinancial     Category = "financial"
	CategoryPandemic      Category = "pandemic"
	CategoryTechnological Category = "technological"
	CategoryNatural       Category = "natural"
)

// DefaultImpact applies to asset classes an event does not list
const DefaultImpact = -0.15

// Event is a named catastrophic risk
type Event struct {
	Impacts            map[domain.AssetClass]float64 `json:"impacts"`
	ID                 string                        `json:"id"`
	Name               string                        `json:"name"`
	Category           Category                      `json:"category"`
	Hedge              string                        `json:"hedge"`
	Probability        float64                       `json:"probability"`         // annual
	HedgeCost          float64                       `json:"hedge_cost"`          // annual, fraction of portfolio value
	HedgeEffectiveness float64                       `json:"hedge_effectiveness"` // share of the loss the hedge offsets
}

// Impact returns the shock for an asset class
func (e Event) Impact(class domain.AssetClass) float64 {
	if v, ok := e.Impacts[class]; ok {
		return v
	}
	return DefaultImpact
}

// Catalogue returns the fixed tail event table
func Catalogue() []Event {
	return []Event{
		{
			ID: "global_pandemic", Name: "Global pandemic", Category: CategoryPandemic,
			Probability: 0.02, HedgeCost: 0.015, HedgeEffectiveness: 0.60, Hedge: "index put spreads",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.35, domain.AssetClassFixedIncome: 0.05, domain.AssetClassCommodity: -0.30,
				domain.AssetClassCrypto: -0.50, domain.AssetClassRealEstate: -0.30, domain.AssetClassCurrency: 0.02,
			},
		},
		{
			ID: "major_power_conflict", Name: "Major power military conflict", Category: CategoryGeopolitical,
			Probability: 0.03, HedgeCost: 0.010, HedgeEffectiveness: 0.50, Hedge: "gold and long-dated treasuries",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.25, domain.AssetClassFixedIncome: 0.08, domain.AssetClassCommodity: 0.25,
				domain.AssetClassCrypto: -0.30, domain.AssetClassRealEstate: -0.20,
			},
		},
		{
			ID: "sovereign_debt_crisis", Name: "Sovereign debt crisis", Category: CategoryFinancial,
			Probability: 0.04, HedgeCost: 0.012, HedgeEffectiveness: 0.45, Hedge: "credit default swaps",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.25, domain.AssetClassFixedIncome: -0.15, domain.AssetClassCommodity: 0.10,
				domain.AssetClassCurrency: -0.10, domain.AssetClassCrypto: -0.20,
			},
		},
		{
			ID: "banking_system_collapse", Name: "Banking system collapse", Category: CategoryFinancial,
			Probability: 0.015, HedgeCost: 0.020, HedgeEffectiveness: 0.55, Hedge: "financial sector puts",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.45, domain.AssetClassFixedIncome: 0.10, domain.AssetClassCommodity: -0.15,
				domain.AssetClassCrypto: -0.40, domain.AssetClassRealEstate: -0.35,
			},
		},
		{
			ID: "crypto_exchange_collapse", Name: "Major crypto exchange collapse", Category: CategoryFinancial,
			Probability: 0.08, HedgeCost: 0.005, HedgeEffectiveness: 0.70, Hedge: "self-custody and exchange diversification",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.02, domain.AssetClassFixedIncome: 0, domain.AssetClassCommodity: 0,
				domain.AssetClassCurrency: 0, domain.AssetClassCrypto: -0.60,
			},
		},
		{
			ID: "systemic_cyber_attack", Name: "Systemic cyber attack on market infrastructure", Category: CategoryTechnological,
			Probability: 0.05, HedgeCost: 0.008, HedgeEffectiveness: 0.35, Hedge: "volatility call options",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.20, domain.AssetClassFixedIncome: 0.03, domain.AssetClassCrypto: -0.35,
				domain.AssetClassCurrency: -0.05,
			},
		},
		{
			ID: "extreme_solar_storm", Name: "Extreme solar storm", Category: CategoryNatural,
			Probability: 0.01, HedgeCost: 0.004, HedgeEffectiveness: 0.30, Hedge: "physical gold",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.30, domain.AssetClassFixedIncome: -0.05, domain.AssetClassCommodity: 0.15,
				domain.AssetClassCrypto: -0.70, domain.AssetClassRealEstate: -0.10,
			},
		},
		{
			ID: "mega_earthquake", Name: "Mega earthquake in a financial centre", Category: CategoryNatural,
			Probability: 0.02, HedgeCost: 0.003, HedgeEffectiveness: 0.40, Hedge: "catastrophe bonds",
			Impacts: map[domain.AssetClass]float64{
				domain.AssetClassEquity: -0.12, domain.AssetClassFixedIncome: 0.02, domain.AssetClassRealEstate: -0.25,
			},
		},
	}
}

// HistoricalEvent is a reference entry for a past market dislocation
type HistoricalEvent struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Year           int     `json:"year"`
	MarketDrop     float64 `json:"market_drop"` // peak to trough, fraction
	RecoveryMonths int     `json:"recovery_months"`
}

// HistoricalEvents returns the static reference table
func HistoricalEvents() []HistoricalEvent {
	return []HistoricalEvent{
		{"Black Monday", "Single-day 22.6% fall in the Dow driven by portfolio insurance selling", 1987, -0.226, 20},
		{"LTCM collapse", "Leveraged fund failure after the Russian default", 1998, -0.19, 3},
		{"Dot-com bust", "Collapse of internet equity valuations", 2000, -0.49, 56},
		{"September 11 attacks", "US markets closed for four trading days", 2001, -0.12, 2},
		{"Global financial crisis", "Subprime mortgage and banking crisis", 2008, -0.57, 49},
		{"Flash crash", "Intraday liquidity vacuum across US equities", 2010, -0.09, 1},
		{"Swiss franc de-peg", "SNB abandoned the EUR/CHF floor without warning", 2015, -0.15, 12},
		{"COVID-19 crash", "Fastest bear market on record", 2020, -0.34, 5},
		{"FTX collapse", "Exchange insolvency froze customer crypto assets", 2022, -0.25, 15},
	}
}
