package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, 0.5, MaxDrawdown([]float64{100, 120, 60, 130, 100}), 1e-9)
}

func TestSharpeAndSortino_Degenerate(t *testing.T) {
	flat := []float64{0.01, 0.01, 0.01}
	assert.Equal(t, 0.0, SharpeRatio(flat))
	assert.Equal(t, 0.0, SortinoRatio(flat), "no downside observations")
	assert.Equal(t, 0.0, SortinoRatio(nil))
}

func TestSharpeRatio_Sign(t *testing.T) {
	assert.Greater(t, SharpeRatio([]float64{0.02, -0.01, 0.03, 0.0}), 0.0)
	assert.Less(t, SortinoRatio([]float64{-0.02, 0.01, -0.03, 0.0}), 0.0)
}

func TestRateOfChange(t *testing.T) {
	roc, ok := RateOfChange([]float64{100, 105, 110}, 20)
	assert.True(t, ok)
	assert.InDelta(t, 0.10, roc, 1e-9)

	roc, ok = RateOfChange([]float64{100, 90, 120, 80}, 1)
	assert.True(t, ok)
	assert.InDelta(t, -1.0/3.0, roc, 1e-9)

	_, ok = RateOfChange([]float64{100}, 5)
	assert.False(t, ok)

	_, ok = RateOfChange([]float64{0, 10}, 1)
	assert.False(t, ok)
}
