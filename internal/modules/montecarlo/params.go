package montecarlo

import (
	"sort"
	"strings"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// AssetParams are annualised GBM parameters (fractions)
type AssetParams struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
}

// DefaultParams apply to any asset class or symbol not in the table
var DefaultParams = AssetParams{ExpectedReturn: 0.08, Volatility: 0.20}

// ParamTable maps composition keys (asset classes or symbols) to parameters
type ParamTable map[string]AssetParams

// DefaultParamTable returns the built-in parameters by asset class and for a
// handful of widely held instruments
func DefaultParamTable() ParamTable {
	return ParamTable{
		string(domain.AssetClassEquity):      {0.08, 0.18},
		string(domain.AssetClassFixedIncome): {0.04, 0.06},
		string(domain.AssetClassCommodity):   {0.05, 0.20},
		string(domain.AssetClassCurrency):    {0.01, 0.08},
		string(domain.AssetClassCrypto):      {0.20, 0.70},
		string(domain.AssetClassRealEstate):  {0.07, 0.16},
		string(domain.AssetClassAlternative): {0.07, 0.12},
		string(domain.AssetClassDerivative):  {0.00, 0.45},
		"SPY":                                {0.09, 0.16},
		"QQQ":                                {0.11, 0.22},
		"IWM":                                {0.08, 0.22},
		"TLT":                                {0.04, 0.14},
		"AGG":                                {0.035, 0.05},
		"GLD":                                {0.05, 0.15},
		"VNQ":                                {0.07, 0.20},
		"BTC":                                {0.25, 0.75},
		"ETH":                                {0.25, 0.85},
		"CASH":                               {0.02, 0.0},
	}
}

// Lookup resolves a composition key. Exact keys win, then asset class names
// (case-insensitive), then upper-cased symbols; unknown keys get DefaultParams.
func (t ParamTable) Lookup(key string) AssetParams {
	trimmed := strings.TrimSpace(key)
	if p, ok := t[trimmed]; ok {
		return p
	}
	if class, err := domain.ParseAssetClass(trimmed); err == nil {
		if p, ok := t[string(class)]; ok {
			return p
		}
	}
	if p, ok := t[strings.ToUpper(trimmed)]; ok {
		return p
	}
	return DefaultParams
}

// weight is one usable composition entry
type weight struct {
	key   string
	value float64
}

// normalizeComposition drops non-positive and non-finite weights and rescales
// the rest to sum to 1, ordered by key. The result is nil when nothing usable
// remains.
func normalizeComposition(composition map[string]float64) []weight {
	keys := make([]string, 0, len(composition))
	for k, w := range composition {
		if w > 0 && formulas.Finite(w, 0) == w {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	sum := 0.0
	for _, k := range keys {
		sum += composition[k]
	}
	if sum == 0 {
		return nil
	}
	out := make([]weight, len(keys))
	for i, k := range keys {
		out[i] = weight{key: k, value: composition[k] / sum}
	}
	return out
}

// Blend returns the weight-averaged parameters of a composition.
// An empty or unusable composition yields DefaultParams.
func (t ParamTable) Blend(composition map[string]float64) AssetParams {
	weights := normalizeComposition(composition)
	if weights == nil {
		return DefaultParams
	}
	var out AssetParams
	for _, w := range weights {
		p := t.Lookup(w.key)
		out.ExpectedReturn += w.value * p.ExpectedReturn
		out.Volatility += w.value * p.Volatility
	}
	return out
}
