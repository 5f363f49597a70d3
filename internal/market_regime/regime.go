// Package market_regime classifies the market into qualitative regimes and
// predicts regime transitions from a fixed Markov table.
package market_regime

import (
	"fmt"
	"strings"

	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Regime is a qualitative market state
type Regime string

const (
	BullQuiet        Regime = "bull_quiet"
	BullVolatile     Regime = "bull_volatile"
	BearQuiet        Regime = "bear_quiet"
	BearVolatile     Regime = "bear_volatile"
	SidewaysQuiet    Regime = "sideways_quiet"
	SidewaysVolatile Regime = "sideways_volatile"
	Crash            Regime = "crash"
	Recovery         Regime = "recovery"
	Bubble           Regime = "bubble"
	Capitulation     Regime = "capitulation"
)

// Regimes lists every regime
var Regimes = []Regime{
	BullQuiet, BullVolatile, BearQuiet, BearVolatile, SidewaysQuiet,
	SidewaysVolatile, Crash, Recovery, Bubble, Capitulation,
}

// Valid reports whether r is a known regime
func (r Regime) Valid() bool {
	_, ok := transitionTable[r]
	return ok
}

// ParseRegime parses a case-insensitive regime name ("Bull-Quiet" is accepted)
func ParseRegime(s string) (Regime, error) {
	normalized := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	r := Regime(normalized)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegime, s)
	}
	return r, nil
}

// Classification thresholds. Volatility is an implied-volatility index level
// (VIX points); trend is a fractional return.
const (
	QuietVolatility        = 20.0
	CrashVolatility        = 35.0
	CapitulationVolatility = 50.0

	BullTrend         = 0.05
	BearTrend         = -0.05
	CrashTrend        = -0.10
	CapitulationTrend = -0.20
	BubbleTrend       = 0.30
)

var trendThresholds = []float64{CapitulationTrend, CrashTrend, BearTrend, BullTrend, BubbleTrend}

// Signals are the observed market inputs. Zero means "not supplied" for the
// leading-indicator fields.
type Signals struct {
	ImpliedVolatility   float64 `json:"implied_volatility"`    // spot VIX level
	ImpliedVolatility3M float64 `json:"implied_volatility_3m"` // 3-month VIX level
	TrendReturn         float64 `json:"trend_return"`          // trailing market return, fraction
	CreditSpreadBps     float64 `json:"credit_spread_bps"`
	BreadthRatio        float64 `json:"breadth_ratio"` // share of advancing issues, 0-1
	PutCallRatio        float64 `json:"put_call_ratio"`
}

// Classify maps volatility and trend to a regime. previous only matters for
// recovery: it starts on any positive trend out of a stressed regime and holds
// until the trend turns bullish, non-positive or crashes again.
func Classify(s Signals, previous Regime) (Regime, float64) {
	vol, trend := s.ImpliedVolatility, s.TrendReturn
	quiet := vol < QuietVolatility

	var r Regime
	switch {
	case vol >= CapitulationVolatility && trend <= CapitulationTrend:
		r = Capitulation
	case vol >= CrashVolatility && trend <= CrashTrend:
		r = Crash
	case trend >= BubbleTrend:
		r = Bubble
	case (previous == Crash || previous == Capitulation || previous == BearVolatile) && trend > 0:
		r = Recovery
	case previous == Recovery && trend > 0 && trend <= BullTrend:
		r = Recovery
	case trend > BullTrend:
		r = pick(quiet, BullQuiet, BullVolatile)
	case trend < BearTrend:
		r = pick(quiet, BearQuiet, BearVolatile)
	default:
		r = pick(quiet, SidewaysQuiet, SidewaysVolatile)
	}
	return r, confidence(vol, trend)
}

func pick(quiet bool, whenQuiet, whenVolatile Regime) Regime {
	if quiet {
		return whenQuiet
	}
	return whenVolatile
}

// confidence grows with the distance of the signals from the nearest decision boundary
func confidence(vol, trend float64) float64 {
	nearest := 1e9
	for _, th := range trendThresholds {
		if d := abs(trend - th); d < nearest {
			nearest = d
		}
	}
	c := 0.5 + 0.25*min(1, nearest/0.05) + 0.25*min(1, abs(vol-QuietVolatility)/10)
	return formulas.Clamp(formulas.Finite(c, 0.5), 0.5, 1)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
