package formulas

import "math"

// ValueAtRisk returns the loss fraction at the given confidence from an
// ascending-sorted slice of terminal values: (start - Q(1-confidence)) / start.
// Gains are floored at 0; a non-positive start yields 0.
func ValueAtRisk(start float64, sorted []float64, confidence float64) float64 {
	if start <= 0 || len(sorted) == 0 {
		return 0
	}
	cutoff := Quantile(1-confidence, sorted)
	return Finite(math.Max(0, (start-cutoff)/start), 0)
}

// ConditionalValueAtRisk returns the mean loss fraction of the tail at or below
// the (1-confidence) quantile. The cutoff element always belongs to the tail,
// so the tail is never empty for non-empty input.
func ConditionalValueAtRisk(start float64, sorted []float64, confidence float64) float64 {
	if start <= 0 || len(sorted) == 0 {
		return 0
	}
	cutoff := Quantile(1-confidence, sorted)

	sum, count := 0.0, 0
	for _, v := range sorted {
		if v > cutoff {
			break
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0
	}
	tailMean := sum / float64(count)
	return Finite(math.Max(0, (start-tailMean)/start), 0)
}

// CalculateCVaR calculates Conditional Value at Risk (CVaR) of a return series.
// CVaR is the mean of the worst ceil(n*(1-confidence)) returns (negative for losses).
func CalculateCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}
	if len(returns) == 1 {
		return returns[0]
	}

	sorted := SortedCopy(returns)

	tailCount := int(math.Ceil(float64(len(sorted)) * (1.0 - confidence)))
	if tailCount == 0 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	sum := 0.0
	for _, r := range sorted[:tailCount] {
		sum += r
	}
	return sum / float64(tailCount)
}
