package montecarlo

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// DistributionPercentiles are the reported percentile ranks
var DistributionPercentiles = []float64{1, 5, 10, 25, 50, 75, 90, 95, 99}

// SamplePercentiles select the representative paths by final value
var SamplePercentiles = []float64{5, 25, 50, 75, 95}

// PercentilePoint is one point of the terminal value distribution
type PercentilePoint struct {
	Percentile float64 `json:"percentile" msgpack:"percentile"`
	Value      float64 `json:"value" msgpack:"value"`
	Return     float64 `json:"return" msgpack:"return"`
}

// RecoveryStats summarises time-to-recovery for one drawdown depth
type RecoveryStats struct {
	Threshold            float64 `json:"threshold" msgpack:"threshold"`
	HitProbability       float64 `json:"hit_probability" msgpack:"hit_probability"`
	RecoveryProbability  float64 `json:"recovery_probability" msgpack:"recovery_probability"` // of paths that hit
	AverageDaysToRecover float64 `json:"average_days_to_recover" msgpack:"average_days_to_recover"`
	HitCount             int     `json:"hit_count" msgpack:"hit_count"`
	RecoveredCount       int     `json:"recovered_count" msgpack:"recovered_count"`
}

// SamplePath is a representative trajectory
type SamplePath struct {
	Values     []float64 `json:"values" msgpack:"values"`
	Percentile float64   `json:"percentile" msgpack:"percentile"`
	PathIndex  int       `json:"path_index" msgpack:"path_index"`
	FinalValue float64   `json:"final_value" msgpack:"final_value"`
}

// Result aggregates every path of one run
type Result struct {
	GeneratedAt         time.Time         `json:"generated_at" msgpack:"generated_at"`
	ID                  string            `json:"id" msgpack:"id"`
	Kind                string            `json:"kind" msgpack:"kind"`
	ScenarioID          string            `json:"scenario_id,omitempty" msgpack:"scenario_id,omitempty"`
	Distribution        []PercentilePoint `json:"distribution" msgpack:"distribution"`
	Recovery            []RecoveryStats   `json:"recovery" msgpack:"recovery"`
	SamplePaths         []SamplePath      `json:"sample_paths" msgpack:"sample_paths"`
	Paths               []PathSummary     `json:"paths" msgpack:"paths"`
	Seed                uint64            `json:"seed" msgpack:"seed"`
	StartValue          float64           `json:"start_value" msgpack:"start_value"`
	TargetValue         float64           `json:"target_value,omitempty" msgpack:"target_value,omitempty"`
	Drift               float64           `json:"drift" msgpack:"drift"`           // annual, or scenario shock for stress runs
	Volatility          float64           `json:"volatility" msgpack:"volatility"` // annual
	ConfidenceLevel     float64           `json:"confidence_level" msgpack:"confidence_level"`
	ExpectedReturn      float64           `json:"expected_return" msgpack:"expected_return"`
	MedianReturn        float64           `json:"median_return" msgpack:"median_return"`
	ReturnStdDev        float64           `json:"return_std_dev" msgpack:"return_std_dev"`
	VaR                 float64           `json:"var" msgpack:"var"`
	CVaR                float64           `json:"cvar" msgpack:"cvar"`
	VaRAmount           float64           `json:"var_amount" msgpack:"var_amount"`
	CVaRAmount          float64           `json:"cvar_amount" msgpack:"cvar_amount"`
	ExpectedMaxDrawdown float64           `json:"expected_max_drawdown" msgpack:"expected_max_drawdown"`
	MaxDrawdownP95      float64           `json:"max_drawdown_p95" msgpack:"max_drawdown_p95"`
	ProbabilityOfLoss   float64           `json:"probability_of_loss" msgpack:"probability_of_loss"`
	ProbabilityOfGain   float64           `json:"probability_of_gain" msgpack:"probability_of_gain"`
	DurationMs          float64           `json:"duration_ms" msgpack:"duration_ms"`
	HorizonDays         int               `json:"horizon_days" msgpack:"horizon_days"`
	PathCount           int               `json:"path_count" msgpack:"path_count"`
}

// Returns lists the total return of every path in index order
func (r *Result) Returns() []float64 {
	out := make([]float64, len(r.Paths))
	for i, p := range r.Paths {
		out[i] = p.TotalReturn
	}
	return out
}

// DistributionValue returns the value at a reported percentile rank
func (r *Result) DistributionValue(percentile float64) (float64, bool) {
	for _, p := range r.Distribution {
		if p.Percentile == percentile {
			return p.Value, true
		}
	}
	return 0, false
}

// aggregate is the single-threaded reduction over completed paths
func aggregate(run runPlan, seed uint64, paths []PathSummary, degenerate bool) *Result {
	n := len(paths)
	res := &Result{
		Kind:            run.kind,
		ScenarioID:      run.scenarioID,
		Seed:            seed,
		StartValue:      math.Max(0, formulas.Finite(run.start, 0)),
		TargetValue:     formulas.Finite(run.target, 0),
		Drift:           run.params.ExpectedReturn,
		Volatility:      run.params.Volatility,
		ConfidenceLevel: run.confidence,
		HorizonDays:     run.steps,
		PathCount:       n,
		Paths:           paths,
		Distribution:    make([]PercentilePoint, 0, len(DistributionPercentiles)),
		Recovery:        make([]RecoveryStats, 0, len(RecoveryThresholds)),
		SamplePaths:     make([]SamplePath, 0, len(SamplePercentiles)),
	}

	if degenerate {
		for _, p := range DistributionPercentiles {
			res.Distribution = append(res.Distribution, PercentilePoint{Percentile: p})
		}
		for _, th := range RecoveryThresholds {
			res.Recovery = append(res.Recovery, RecoveryStats{Threshold: th})
		}
		for _, p := range SamplePercentiles {
			res.SamplePaths = append(res.SamplePaths, SamplePath{
				Percentile: p,
				Values:     make([]float64, run.steps+1),
			})
		}
		return res
	}

	start := run.start
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return paths[order[a]].FinalValue < paths[order[b]].FinalValue
	})

	finals := make([]float64, n)
	returns := make([]float64, n)
	for rank, idx := range order {
		finals[rank] = paths[idx].FinalValue
		returns[rank] = paths[idx].TotalReturn
	}

	for _, p := range DistributionPercentiles {
		v := formulas.Quantile(p/100, finals)
		res.Distribution = append(res.Distribution, PercentilePoint{
			Percentile: p,
			Value:      v,
			Return:     formulas.Finite(v/start-1, 0),
		})
	}

	res.ExpectedReturn = formulas.Mean(returns)
	res.MedianReturn = formulas.Quantile(0.5, returns)
	res.ReturnStdDev = formulas.StdDev(returns)
	res.VaR = formulas.ValueAtRisk(start, finals, run.confidence)
	res.CVaR = formulas.ConditionalValueAtRisk(start, finals, run.confidence)
	res.VaRAmount = res.VaR * start
	res.CVaRAmount = res.CVaR * start

	drawdowns := make([]float64, n)
	losses, gains := 0, 0
	for i, p := range paths {
		drawdowns[i] = p.MaxDrawdown
		switch {
		case p.FinalValue < start:
			losses++
		case p.FinalValue > start:
			gains++
		}
	}
	res.ExpectedMaxDrawdown = formulas.Mean(drawdowns)
	res.MaxDrawdownP95 = formulas.Quantile(0.95, formulas.SortedCopy(drawdowns))
	res.ProbabilityOfLoss = float64(losses) / float64(n)
	res.ProbabilityOfGain = float64(gains) / float64(n)

	for i, th := range RecoveryThresholds {
		stats := RecoveryStats{Threshold: th}
		totalDays := 0
		for _, p := range paths {
			tr := p.recovery[i]
			if !tr.hit {
				continue
			}
			stats.HitCount++
			if tr.recovered {
				stats.RecoveredCount++
				totalDays += tr.days
			}
		}
		stats.HitProbability = float64(stats.HitCount) / float64(n)
		if stats.HitCount > 0 {
			stats.RecoveryProbability = float64(stats.RecoveredCount) / float64(stats.HitCount)
		}
		if stats.RecoveredCount > 0 {
			stats.AverageDaysToRecover = float64(totalDays) / float64(stats.RecoveredCount)
		}
		res.Recovery = append(res.Recovery, stats)
	}

	// representative paths are regenerated from their seeds rather than stored
	for _, p := range SamplePercentiles {
		rank := int(math.Round(p / 100 * float64(n-1)))
		idx := order[rank]
		values := make([]float64, run.steps+1)
		simulatePath(seed, idx, start, run.steps, run.model, values)
		res.SamplePaths = append(res.SamplePaths, SamplePath{
			Percentile: p,
			PathIndex:  idx,
			FinalValue: paths[idx].FinalValue,
			Values:     values,
		})
	}

	return res
}
