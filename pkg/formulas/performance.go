package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// MaxDrawdown returns the largest peak-to-trough decline of a value series as a
// positive fraction (0.25 = 25% drawdown).
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// SharpeRatio returns the annualised Sharpe ratio of daily returns (risk-free rate 0).
// Zero dispersion yields 0.
func SharpeRatio(dailyReturns []float64) float64 {
	std := StdDev(dailyReturns)
	if std == 0 {
		return 0
	}
	return Finite(Mean(dailyReturns)/std*math.Sqrt(TradingDaysPerYear), 0)
}

// SortinoRatio returns the annualised Sortino ratio of daily returns using the
// downside deviation over all observations. No downside yields 0.
func SortinoRatio(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, r := range dailyReturns {
		if r < 0 {
			sumSq += r * r
		}
	}
	if sumSq == 0 {
		return 0
	}
	downside := math.Sqrt(sumSq / float64(len(dailyReturns)))
	return Finite(Mean(dailyReturns)/downside*math.Sqrt(TradingDaysPerYear), 0)
}

// RateOfChange returns the fractional change over the last `period` samples
// using talib's ROC. The period shrinks to the available history; fewer than two
// samples yield ok=false.
func RateOfChange(values []float64, period int) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	if period <= 0 || period > len(values)-1 {
		period = len(values) - 1
	}
	if values[len(values)-1-period] == 0 {
		return 0, false
	}

	roc := talib.Roc(values, period)
	if len(roc) == 0 {
		return 0, false
	}
	last := roc[len(roc)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, false
	}
	// talib reports ROC in percent
	return last / 100, true
}
