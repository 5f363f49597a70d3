// Package formulas holds the pure numeric helpers shared by the risk modules.
// Every helper is total: degenerate input (empty slices, zero variance) yields
// a documented neutral value instead of NaN or Inf.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualisation constant used across the engine
const TradingDaysPerYear = 252.0

// Finite returns v, or fallback when v is NaN or ±Inf
func Finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Clamp limits v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return Finite(stat.Mean(data, nil), 0)
}

// StdDev calculates the sample standard deviation. Fewer than two samples yield 0.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return Finite(stat.StdDev(data, nil), 0)
}

// Variance calculates the sample variance. Fewer than two samples yield 0.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return Finite(stat.Variance(data, nil), 0)
}

// ZScore returns (value-mean)/stddev of history.
// Defined as 0 when history has fewer than two samples or zero dispersion.
func ZScore(value float64, history []float64) float64 {
	if len(history) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(history, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return Finite((value-mean)/std, 0)
}

// PercentileRank returns the mid-rank of value within history on a 0-100 scale:
// (count below + half the count equal) / n. Empty history yields 50.
func PercentileRank(value float64, history []float64) float64 {
	if len(history) == 0 {
		return 50
	}
	below, equal := 0, 0
	for _, h := range history {
		switch {
		case h < value:
			below++
		case h == value:
			equal++
		}
	}
	rank := (float64(below) + 0.5*float64(equal)) / float64(len(history))
	return Clamp(rank*100, 0, 100)
}

// Quantile returns the empirical p-quantile of an ascending-sorted slice.
// The result is non-decreasing in p. Empty input yields 0.
func Quantile(p float64, sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = Clamp(p, 0, 1)
	return Finite(stat.Quantile(p, stat.Empirical, sorted, nil), 0)
}

// SortedCopy returns an ascending copy of data
func SortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

// Skewness returns the sample skewness, 0 for fewer than three samples or zero variance
func Skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	return Finite(stat.Skew(data, nil), 0)
}

// ExcessKurtosis returns the sample excess kurtosis, 0 for fewer than four samples or zero variance
func ExcessKurtosis(data []float64) float64 {
	if len(data) < 4 {
		return 0
	}
	return Finite(stat.ExKurtosis(data, nil), 0)
}

// CalculateReturns converts a value series to simple period returns.
// Returns[i] = (Value[i+1] - Value[i]) / Value[i]; zero bases produce a 0 return.
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}

	return returns
}
