package factors

import (
	"math"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/utils"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// MomentumLookback is the number of value samples used for history-based momentum
const MomentumLookback = 20

var (
	valueSectors = map[string]bool{
		"financials":         true,
		"financial services": true,
		"energy":             true,
		"utilities":          true,
		"materials":          true,
		"basic materials":    true,
		"real estate":        true,
	}
	growthSectors = map[string]bool{
		"technology":             true,
		"information technology": true,
		"consumer discretionary": true,
		"communication services": true,
	}
	qualitySectors = map[string]bool{
		"healthcare":             true,
		"health care":            true,
		"consumer staples":       true,
		"technology":             true,
		"information technology": true,
	}
)

// Loading returns the heuristic sensitivity of one position to a factor.
// history is the position's market value history, oldest first; it only feeds momentum.
func Loading(p domain.Position, f Factor, history []float64) float64 {
	sector := utils.NormalizeKey(p.Sector)
	yield := formulas.Finite(p.DividendYieldOrZero(), 0)

	switch f {
	case Market:
		return formulas.Finite(p.BetaOrDefault(), 1)

	case Momentum:
		if roc, ok := formulas.RateOfChange(history, MomentumLookback); ok {
			return formulas.Clamp(roc, -1, 1)
		}
		if p.AverageCost == 0 {
			return 0
		}
		return formulas.Clamp(formulas.Finite(p.CurrentPrice/p.AverageCost-1, 0), -1, 1)

	case Value:
		v := 5 * yield
		switch {
		case valueSectors[sector]:
			v += 0.5
		case growthSectors[sector]:
			v -= 0.5
		}
		switch p.AssetClass {
		case domain.AssetClassFixedIncome:
			v += 0.2
		case domain.AssetClassCrypto:
			v -= 0.3
		}
		return formulas.Clamp(v, -1, 1)

	case Quality:
		switch p.AssetClass {
		case domain.AssetClassFixedIncome:
			return 0.5
		case domain.AssetClassEquity:
			if qualitySectors[sector] {
				return 0.4
			}
			return 0.1
		case domain.AssetClassCrypto:
			return -0.5
		}
		return 0

	case Size:
		switch p.AssetClass {
		case domain.AssetClassEquity:
			if p.BetaOrDefault() > 1.3 {
				return 0.3
			}
			return -0.2
		case domain.AssetClassCrypto:
			return 0.5
		}
		return 0

	case Volatility:
		switch p.AssetClass {
		case domain.AssetClassCrypto:
			return 0.8
		case domain.AssetClassFixedIncome:
			return -0.5
		}
		return 0

	case Carry:
		switch p.AssetClass {
		case domain.AssetClassFixedIncome:
			return 0.6
		case domain.AssetClassCurrency:
			return 0.4
		case domain.AssetClassRealEstate:
			return 0.3
		case domain.AssetClassEquity:
			return math.Min(0.5, 10*yield)
		}
		return 0

	case Liquidity:
		switch p.AssetClass {
		case domain.AssetClassAlternative:
			return 0.7
		case domain.AssetClassRealEstate:
			return 0.6
		case domain.AssetClassCrypto:
			return 0.3
		case domain.AssetClassDerivative:
			return 0.2
		}
		return 0

	case Growth:
		switch {
		case sector == "technology" || sector == "information technology":
			return 0.7
		case sector == "consumer discretionary" || sector == "communication services":
			return 0.4
		case p.AssetClass == domain.AssetClassCrypto:
			return 0.5
		case sector == "utilities":
			return -0.3
		case p.AssetClass == domain.AssetClassFixedIncome:
			return -0.2
		}
		return 0

	case Dividend:
		return formulas.Clamp(10*yield, 0, 1)
	}
	return 0
}
