package montecarlo

import (
	"math"
	"math/rand/v2"

	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// FloorFraction is the lowest simulated value relative to the start value
const FloorFraction = 0.10

// RecoveryThresholds are the drawdown depths tracked for time-to-recovery
var RecoveryThresholds = []float64{0.10, 0.20, 0.30}

// normalSource draws standard normals with the Box-Muller transform,
// caching the second variate of each pair
type normalSource struct {
	rng      *rand.Rand
	spare    float64
	hasSpare bool
}

func newNormalSource(seed uint64, path int) *normalSource {
	return &normalSource{rng: rand.New(rand.NewPCG(seed, uint64(path)))}
}

func (n *normalSource) next() float64 {
	if n.hasSpare {
		n.hasSpare = false
		return n.spare
	}
	u1 := 1 - n.rng.Float64() // (0, 1]
	u2 := n.rng.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	n.spare = r * math.Sin(theta)
	n.hasSpare = true
	return r * math.Cos(theta)
}

// stepModel describes one daily GBM step: v *= 1 + drift + vol·Z
type stepModel struct {
	drift float64
	vol   float64
}

// recoveryTrack records the first drawdown breach of one threshold
type recoveryTrack struct {
	peak      float64
	hitDay    int
	days      int
	hit       bool
	recovered bool
}

// PathSummary holds the statistics of one simulated path
type PathSummary struct {
	Index       int     `json:"index" msgpack:"index"`
	FinalValue  float64 `json:"final_value" msgpack:"final_value"`
	TotalReturn float64 `json:"total_return" msgpack:"total_return"`
	MaxDrawdown float64 `json:"max_drawdown" msgpack:"max_drawdown"`
	MaxGain     float64 `json:"max_gain" msgpack:"max_gain"`
	Sharpe      float64 `json:"sharpe" msgpack:"sharpe"`
	Sortino     float64 `json:"sortino" msgpack:"sortino"`

	recovery []recoveryTrack
}

// simulatePath runs one path. values is filled with the full series
// (start plus one value per step) when non-nil.
func simulatePath(seed uint64, index int, start float64, steps int, model stepModel, values []float64) PathSummary {
	normals := newNormalSource(seed, index)
	floor := start * FloorFraction

	tracks := make([]recoveryTrack, len(RecoveryThresholds))
	returns := make([]float64, 0, steps)

	v, peak := start, start
	maxDD := 0.0
	if values != nil {
		values[0] = v
	}

	for day := 1; day <= steps; day++ {
		prev := v
		v *= 1 + model.drift + model.vol*normals.next()
		if v < floor || math.IsNaN(v) {
			v = floor
		}
		if values != nil {
			values[day] = v
		}
		returns = append(returns, (v-prev)/prev)

		if v > peak {
			peak = v
		}
		dd := (peak - v) / peak
		if dd > maxDD {
			maxDD = dd
		}

		for i, threshold := range RecoveryThresholds {
			tr := &tracks[i]
			switch {
			case !tr.hit && dd >= threshold:
				tr.hit = true
				tr.hitDay = day
				tr.peak = peak
			case tr.hit && !tr.recovered && v >= tr.peak:
				tr.recovered = true
				tr.days = day - tr.hitDay
			}
		}
	}

	return PathSummary{
		Index:       index,
		FinalValue:  v,
		TotalReturn: formulas.Finite(v/start-1, 0),
		MaxDrawdown: maxDD,
		MaxGain:     formulas.Finite(peak/start-1, 0),
		Sharpe:      formulas.SharpeRatio(returns),
		Sortino:     formulas.SortinoRatio(returns),
		recovery:    tracks,
	}
}
