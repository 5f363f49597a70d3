package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueAtRisk(t *testing.T) {
	values := make([]float64, 0, 100)
	for i := 1; i <= 100; i++ {
		values = append(values, float64(i))
	}
	sorted := SortedCopy(values)

	var95 := ValueAtRisk(100, sorted, 0.95)
	var99 := ValueAtRisk(100, sorted, 0.99)

	assert.InDelta(t, 0.95, var95, 0.011)
	assert.InDelta(t, 0.99, var99, 0.011)
	assert.GreaterOrEqual(t, var99, var95)
}

func TestValueAtRisk_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, ValueAtRisk(0, []float64{1, 2}, 0.95))
	assert.Equal(t, 0.0, ValueAtRisk(100, nil, 0.95))
	assert.Equal(t, 0.0, ValueAtRisk(100, []float64{120, 130}, 0.95), "gains floor at zero")
}

func TestConditionalValueAtRisk_AtLeastVaR(t *testing.T) {
	sorted := SortedCopy([]float64{60, 70, 80, 90, 100, 105, 110, 115, 120, 125})
	cvar := ConditionalValueAtRisk(100, sorted, 0.80)
	var80 := ValueAtRisk(100, sorted, 0.80)
	assert.GreaterOrEqual(t, cvar, var80)
	assert.InDelta(t, 0.35, cvar, 1e-9)
}

func TestCalculateCVaR(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		want       float64
	}{
		{
			name:       "normal distribution 95% confidence",
			returns:    []float64{-0.10, -0.05, -0.02, 0.0, 0.02, 0.05, 0.10, 0.15, 0.20, 0.25},
			confidence: 0.95,
			want:       -0.10,
		},
		{
			name:       "worst 20 percent",
			returns:    []float64{-0.10, -0.05, -0.02, 0.0, 0.02, 0.05, 0.10, 0.15, 0.20, 0.25},
			confidence: 0.80,
			want:       -0.075,
		},
		{name: "single return", returns: []float64{-0.10}, confidence: 0.95, want: -0.10},
		{name: "empty returns", returns: []float64{}, confidence: 0.95, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateCVaR(tt.returns, tt.confidence), 1e-9)
		})
	}
}
