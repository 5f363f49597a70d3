// Package montecarlo projects portfolio value distributions with geometric
// Brownian motion and derives tail-risk, drawdown and recovery statistics.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

const moduleName = "montecarlo"

// Simulation kinds, also used as metric labels
const (
	KindSimulate = "simulate"
	KindStress   = "stress"
)

// Limits on a single request
const (
	MaxPathCount   = 100_000
	MaxHorizonDays = 2520

	DefaultBatchSize   = 100
	DefaultHorizonDays = 21
	DefaultConfidence  = 0.95
)

var (
	// ErrSimulationCancelled is returned when the caller's context ends mid-run.
	// No partial result accompanies it.
	ErrSimulationCancelled = errors.New("simulation cancelled")
	// ErrInvalidSimulation is returned for out-of-range request parameters
	ErrInvalidSimulation = errors.New("invalid simulation request")
)

// Config tunes the worker pool
type Config struct {
	Workers   int    // 0 = logical cores
	BatchSize int    // paths per cancellation check
	Seed      uint64 // 0 = time based
}

// Request is an ad hoc simulation
type Request struct {
	Composition     map[string]float64 `json:"composition"`
	PortfolioValue  float64            `json:"portfolio_value"`
	ConfidenceLevel float64            `json:"confidence_level"`
	HorizonDays     int                `json:"horizon_days"`
	PathCount       int                `json:"path_count"`
}

// Simulator runs Monte Carlo simulations. It holds no per-run state.
type Simulator struct {
	params  ParamTable
	bus     *events.Bus
	metrics *metrics.Registry
	now     func() time.Time
	log     zerolog.Logger
	cfg     Config
}

// NewSimulator creates a simulator. A nil params table selects DefaultParamTable.
func NewSimulator(cfg Config, params ParamTable, bus *events.Bus, m *metrics.Registry, log zerolog.Logger) *Simulator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if params == nil {
		params = DefaultParamTable()
	}
	return &Simulator{
		params:  params,
		bus:     bus,
		metrics: m,
		now:     time.Now,
		cfg:     cfg,
		log:     log.With().Str("component", "monte_carlo").Logger(),
	}
}

// Params returns the asset parameter table
func (s *Simulator) Params() ParamTable {
	return s.params
}

// Simulate projects req.PortfolioValue over req.HorizonDays with drift and
// volatility blended from the composition
func (s *Simulator) Simulate(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req.HorizonDays, req.PathCount, req.ConfidenceLevel); err != nil {
		return nil, err
	}
	p := s.params.Blend(req.Composition)
	model := stepModel{
		drift: p.ExpectedReturn / formulas.TradingDaysPerYear,
		vol:   p.Volatility / math.Sqrt(formulas.TradingDaysPerYear),
	}
	run := runPlan{
		kind:       KindSimulate,
		start:      req.PortfolioValue,
		steps:      req.HorizonDays,
		paths:      req.PathCount,
		confidence: req.ConfidenceLevel,
		params:     p,
		model:      model,
	}
	return s.execute(ctx, run)
}

// RunStressTest biases the random walk toward the scenario's implied target
// value: start × (1 + Σ weight × shock). Daily drift is the geometric rate that
// reaches the target over the scenario horizon; volatility is scaled by the
// scenario's multiplier.
func (s *Simulator) RunStressTest(ctx context.Context, portfolioValue float64, composition map[string]float64, scenario stress.Scenario, pathCount int) (*Result, error) {
	steps := scenario.HorizonDays
	if steps <= 0 {
		steps = DefaultHorizonDays
	}
	if err := validate(steps, pathCount, DefaultConfidence); err != nil {
		return nil, err
	}

	shock := ScenarioShock(composition, scenario)
	growth := math.Max(1+shock, FloorFraction)

	p := s.params.Blend(composition)
	multiplier := scenario.Volatility
	if multiplier <= 0 {
		multiplier = 1
	}
	model := stepModel{
		drift: math.Pow(growth, 1/float64(steps)) - 1,
		vol:   p.Volatility * multiplier / math.Sqrt(formulas.TradingDaysPerYear),
	}
	run := runPlan{
		kind:       KindStress,
		scenarioID: scenario.ID,
		start:      portfolioValue,
		steps:      steps,
		paths:      pathCount,
		confidence: DefaultConfidence,
		params:     AssetParams{ExpectedReturn: shock, Volatility: p.Volatility * multiplier},
		model:      model,
		target:     portfolioValue * growth,
	}
	return s.execute(ctx, run)
}

// ScenarioShock returns the composition-weighted shock of a scenario.
// Keys that are not asset classes take the scenario's market impact.
func ScenarioShock(composition map[string]float64, scenario stress.Scenario) float64 {
	weights := normalizeComposition(composition)
	if weights == nil {
		return scenario.MarketImpact
	}
	shock := 0.0
	for _, w := range weights {
		impact := scenario.MarketImpact
		if class, err := domain.ParseAssetClass(w.key); err == nil {
			impact = scenario.Impact(class)
		}
		shock += w.value * impact
	}
	return formulas.Finite(shock, scenario.MarketImpact)
}

func validate(horizon, paths int, confidence float64) error {
	switch {
	case paths < 1 || paths > MaxPathCount:
		return fmt.Errorf("%w: path count %d must be in [1, %d]", ErrInvalidSimulation, paths, MaxPathCount)
	case horizon < 1 || horizon > MaxHorizonDays:
		return fmt.Errorf("%w: horizon %d must be in [1, %d] days", ErrInvalidSimulation, horizon, MaxHorizonDays)
	case !(confidence > 0 && confidence < 1):
		return fmt.Errorf("%w: confidence %v must be in (0, 1)", ErrInvalidSimulation, confidence)
	}
	return nil
}

// runPlan is a validated simulation
type runPlan struct {
	kind       string
	scenarioID string
	params     AssetParams
	model      stepModel
	start      float64
	target     float64
	confidence float64
	steps      int
	paths      int
}

func (s *Simulator) execute(ctx context.Context, run runPlan) (*Result, error) {
	began := s.now()
	seed := s.cfg.Seed
	if seed == 0 {
		seed = uint64(began.UnixNano())
	}

	var (
		summaries []PathSummary
		err       error
	)
	degenerate := !(run.start > 0) || math.IsInf(run.start, 0)
	if degenerate {
		summaries = make([]PathSummary, run.paths)
		for i := range summaries {
			summaries[i].Index = i
		}
	} else {
		summaries, err = s.generate(ctx, seed, run)
	}

	elapsed := s.now().Sub(began)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, ErrSimulationCancelled) {
			outcome = metrics.OutcomeCancelled
		}
		s.metrics.ObserveSimulation(run.kind, outcome, elapsed)
		s.log.Warn().Err(err).Str("kind", run.kind).Int("paths", run.paths).Msg("Simulation aborted")
		return nil, err
	}

	res := aggregate(run, seed, summaries, degenerate)
	res.ID = uuid.NewString()
	res.GeneratedAt = s.now()
	res.DurationMs = float64(elapsed.Microseconds()) / 1000

	s.metrics.ObserveSimulation(run.kind, metrics.OutcomeOK, elapsed)
	s.bus.Publish(moduleName, &events.SimulationCompletedData{
		RunID:      res.ID,
		Kind:       run.kind,
		Paths:      run.paths,
		DurationMs: res.DurationMs,
	})
	s.log.Debug().
		Str("run_id", res.ID).
		Str("kind", run.kind).
		Int("paths", run.paths).
		Int("horizon_days", run.steps).
		Float64("var", res.VaR).
		Dur("duration", elapsed).
		Msg("Simulation completed")

	return res, nil
}

// generate fans batches of paths out to a bounded errgroup. Each path owns an
// RNG seeded from (seed, index), so output does not depend on scheduling.
func (s *Simulator) generate(ctx context.Context, seed uint64, run runPlan) ([]PathSummary, error) {
	batch := s.cfg.BatchSize
	batches := (run.paths + batch - 1) / batch
	workers := s.workerCount(batches)

	summaries := make([]PathSummary, run.paths)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for b := 0; b < batches; b++ {
		if gctx.Err() != nil {
			break
		}
		from := b * batch
		to := min(from+batch, run.paths)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := from; i < to; i++ {
				summaries[i] = simulatePath(seed, i, run.start, run.steps, run.model, nil)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSimulationCancelled, err)
	}
	return summaries, nil
}

func (s *Simulator) workerCount(batches int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		if n, err := cpu.Counts(true); err == nil && n > 0 {
			workers = n
		} else {
			workers = runtime.NumCPU()
		}
	}
	return max(1, min(workers, batches))
}
