// Package domain provides the core position and risk vocabulary shared by every
// risk module. It has no dependencies beyond the standard library.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// AssetClass represents the broad class of an instrument
type AssetClass string

const (
	AssetClassEquity      AssetClass = "equity"
	AssetClassFixedIncome AssetClass = "fixed_income"
	AssetClassCommodity   AssetClass = "commodity"
	AssetClassCurrency    AssetClass = "currency"
	AssetClassCrypto      AssetClass = "crypto"
	AssetClassRealEstate  AssetClass = "real_estate"
	AssetClassAlternative AssetClass = "alternative"
	AssetClassDerivative  AssetClass = "derivative"
)

// AssetClasses lists every supported asset class in canonical order
var AssetClasses = []AssetClass{
	AssetClassEquity,
	AssetClassFixedIncome,
	AssetClassCommodity,
	AssetClassCurrency,
	AssetClassCrypto,
	AssetClassRealEstate,
	AssetClassAlternative,
	AssetClassDerivative,
}

// Valid reports whether the asset class is one of the supported values
func (c AssetClass) Valid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// ParseAssetClass parses a case-insensitive asset class name.
// Hyphens and spaces are accepted in place of underscores ("fixed-income").
func ParseAssetClass(s string) (AssetClass, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	class := AssetClass(normalized)
	if !class.Valid() {
		return "", fmt.Errorf("unknown asset class %q", s)
	}
	return class, nil
}

// Position represents a holding at one broker.
//
// MarketValue and UnrealizedPnL are derived; callers should treat them as
// read-only and let the position store recompute them via WithDerived.
type Position struct {
	LastUpdated   time.Time  `json:"last_updated" yaml:"last_updated"`
	ID            string     `json:"id" yaml:"id"`
	Symbol        string     `json:"symbol" yaml:"symbol"`
	Name          string     `json:"name,omitempty" yaml:"name"`
	AssetClass    AssetClass `json:"asset_class" yaml:"asset_class"`
	Broker        string     `json:"broker" yaml:"broker"`
	Sector        string     `json:"sector,omitempty" yaml:"sector"`
	Industry      string     `json:"industry,omitempty" yaml:"industry"`
	Country       string     `json:"country,omitempty" yaml:"country"`
	Currency      Currency   `json:"currency" yaml:"currency"`
	Beta          *float64   `json:"beta,omitempty" yaml:"beta"`
	DividendYield *float64   `json:"dividend_yield,omitempty" yaml:"dividend_yield"`
	Quantity      float64    `json:"quantity" yaml:"quantity"`
	AverageCost   float64    `json:"average_cost" yaml:"average_cost"`
	CurrentPrice  float64    `json:"current_price" yaml:"current_price"`
	MarketValue   float64    `json:"market_value" yaml:"-"`
	UnrealizedPnL float64    `json:"unrealized_pnl" yaml:"-"`
}

// WithDerived returns a copy with MarketValue and UnrealizedPnL recomputed
func (p Position) WithDerived() Position {
	p.MarketValue = p.Quantity * p.CurrentPrice
	p.UnrealizedPnL = p.Quantity * (p.CurrentPrice - p.AverageCost)
	return p
}

// CostBasis returns quantity times average cost
func (p Position) CostBasis() float64 {
	return p.Quantity * p.AverageCost
}

// BetaOrDefault returns the position beta, or 1 when unset
func (p Position) BetaOrDefault() float64 {
	if p.Beta == nil {
		return 1.0
	}
	return *p.Beta
}

// DividendYieldOrZero returns the dividend yield fraction, or 0 when unset
func (p Position) DividendYieldOrZero() float64 {
	if p.DividendYield == nil {
		return 0
	}
	return *p.DividendYield
}

// Float64 returns a pointer to v. Handy for the optional Beta/DividendYield fields.
func Float64(v float64) *float64 {
	return &v
}
