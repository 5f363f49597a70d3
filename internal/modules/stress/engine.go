// Package stress applies deterministic historical shock scenarios to a portfolio.
package stress

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/rs/zerolog"
)

// MaxWorstPositions caps Result.WorstPositions
const MaxWorstPositions = 5

var (
	// ErrScenarioNotFound is returned for unknown scenario IDs
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrInvalidScenario is returned when a custom scenario fails validation
	ErrInvalidScenario = errors.New("invalid scenario")
)

// PositionImpact is the shock applied to one position
type PositionImpact struct {
	Symbol       string            `json:"symbol" msgpack:"symbol"`
	AssetClass   domain.AssetClass `json:"asset_class" msgpack:"asset_class"`
	Value        float64           `json:"value" msgpack:"value"`
	Impact       float64           `json:"impact" msgpack:"impact"` // fraction
	ImpactAmount float64           `json:"impact_amount" msgpack:"impact_amount"`
}

// Result is the outcome of one scenario
type Result struct {
	ScenarioID         string             `json:"scenario_id" msgpack:"scenario_id"`
	ScenarioName       string             `json:"scenario_name" msgpack:"scenario_name"`
	WorstPositions     []PositionImpact   `json:"worst_positions" msgpack:"worst_positions"`
	ImpactByAssetClass map[string]float64 `json:"impact_by_asset_class" msgpack:"impact_by_asset_class"`
	Recommendations    []string           `json:"recommendations" msgpack:"recommendations"`
	PortfolioImpact    float64            `json:"portfolio_impact" msgpack:"portfolio_impact"` // fraction
	ValueBefore        float64            `json:"value_before" msgpack:"value_before"`
	ValueAfter         float64            `json:"value_after" msgpack:"value_after"`
	ImpactAmount       float64            `json:"impact_amount" msgpack:"impact_amount"`
	HedgeEffectiveness float64            `json:"hedge_effectiveness" msgpack:"hedge_effectiveness"`
	RecoveryDays       int                `json:"recovery_days" msgpack:"recovery_days"`
}

// Engine holds the scenario table. It is safe for concurrent use.
type Engine struct {
	scenarios map[string]Scenario
	log       zerolog.Logger
	order     []string
	mu        sync.RWMutex
}

// NewEngine creates an engine preloaded with the built-in scenarios
func NewEngine(log zerolog.Logger) *Engine {
	e := &Engine{
		scenarios: make(map[string]Scenario),
		log:       log.With().Str("component", "stress_engine").Logger(),
	}
	for _, s := range BuiltinScenarios() {
		e.scenarios[s.ID] = s
		e.order = append(e.order, s.ID)
	}
	return e
}

// AddScenario validates and registers a custom scenario. An existing ID is replaced.
func (e *Engine) AddScenario(s Scenario) error {
	s, err := normalize(s)
	if err != nil {
		return err
	}
	e.register(s)
	return nil
}

// register stores an already normalized custom scenario
func (e *Engine) register(s Scenario) {
	s.Custom = true

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.scenarios[s.ID]; !exists {
		e.order = append(e.order, s.ID)
	}
	e.scenarios[s.ID] = s

	e.log.Info().Str("scenario", s.ID).Float64("market_impact", s.MarketImpact).Msg("Scenario registered")
}

// Scenario returns one scenario definition
func (e *Engine) Scenario(id string) (Scenario, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.scenarios[id]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, id)
	}
	return s, nil
}

// Scenarios returns every scenario, built-ins first in table order
func (e *Engine) Scenarios() []Scenario {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Scenario, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.scenarios[id])
	}
	return out
}

// Run applies one scenario to positions
func (e *Engine) Run(id string, positions []domain.Position) (Result, error) {
	s, err := e.Scenario(id)
	if err != nil {
		return Result{}, err
	}
	return Apply(s, positions), nil
}

// RunAll applies every scenario and returns results worst first.
// Ties are broken by scenario ID so the ordering is deterministic.
func (e *Engine) RunAll(positions []domain.Position) []Result {
	scenarios := e.Scenarios()
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		results = append(results, Apply(s, positions))
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].PortfolioImpact != results[j].PortfolioImpact {
			return results[i].PortfolioImpact < results[j].PortfolioImpact
		}
		return results[i].ScenarioID < results[j].ScenarioID
	})
	return results
}

// Apply computes a scenario result without consulting any engine state.
// impact_i = shock(class_i) × beta_i (default 1); portfolio impact is value weighted.
func Apply(s Scenario, positions []domain.Position) Result {
	res := Result{
		ScenarioID:         s.ID,
		ScenarioName:       s.Name,
		WorstPositions:     []PositionImpact{},
		ImpactByAssetClass: map[string]float64{},
		Recommendations:    []string{},
	}

	total, shocked, hedged := 0.0, 0.0, 0.0
	impacts := make([]PositionImpact, 0, len(positions))
	for _, p := range positions {
		value := formulas.Finite(p.MarketValue, 0)
		impact := formulas.Finite(s.Impact(p.AssetClass)*p.BetaOrDefault(), 0)
		amount := value * impact

		total += value
		shocked += amount
		if isHedge(p) {
			hedged += value
		}
		res.ImpactByAssetClass[string(p.AssetClass)] += amount
		impacts = append(impacts, PositionImpact{
			Symbol:       p.Symbol,
			AssetClass:   p.AssetClass,
			Value:        value,
			Impact:       impact,
			ImpactAmount: amount,
		})
	}

	res.ValueBefore = total
	if total == 0 {
		res.ValueAfter = 0
		res.Recommendations = append(res.Recommendations, "No positions to stress")
		return res
	}

	res.PortfolioImpact = formulas.Finite(shocked/total, 0)
	res.ImpactAmount = shocked
	res.ValueAfter = total + shocked
	res.HedgeEffectiveness = formulas.Clamp(hedged/total, 0, 1)
	res.RecoveryDays = recoveryDays(s, res.PortfolioImpact)

	for class, amount := range res.ImpactByAssetClass {
		res.ImpactByAssetClass[class] = formulas.Finite(amount/total, 0)
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		return impacts[i].ImpactAmount < impacts[j].ImpactAmount
	})
	for _, pi := range impacts {
		if pi.ImpactAmount >= 0 || len(res.WorstPositions) == MaxWorstPositions {
			break
		}
		res.WorstPositions = append(res.WorstPositions, pi)
	}

	res.Recommendations = recommendations(s, res)
	return res
}

// recoveryDays scales the scenario's recovery estimate by how hard the portfolio
// is hit relative to the market, capped at twice the scenario estimate
func recoveryDays(s Scenario, impact float64) int {
	if impact >= 0 {
		return 0
	}
	ratio := 1.0
	if s.MarketImpact != 0 {
		ratio = formulas.Clamp(math.Abs(impact)/math.Abs(s.MarketImpact), 0, 2)
	}
	return int(math.Round(float64(s.RecoveryDays) * ratio))
}

func isHedge(p domain.Position) bool {
	if p.AssetClass == domain.AssetClassDerivative {
		return true
	}
	label := strings.ToLower(p.Name + " " + p.Symbol)
	return strings.Contains(label, "inverse") || strings.Contains(label, "short")
}

func recommendations(s Scenario, res Result) []string {
	out := []string{}
	switch {
	case res.PortfolioImpact < -0.30:
		out = append(out, fmt.Sprintf("Severe loss of %.1f%% under %s: reduce gross exposure or add tail hedges", -res.PortfolioImpact*100, s.Name))
	case res.PortfolioImpact < -0.15:
		out = append(out, fmt.Sprintf("Material loss of %.1f%% under %s: review position sizing", -res.PortfolioImpact*100, s.Name))
	case res.PortfolioImpact >= 0:
		out = append(out, fmt.Sprintf("Portfolio is resilient to %s", s.Name))
	}
	if res.PortfolioImpact < 0 && res.HedgeEffectiveness < 0.05 {
		out = append(out, "Hedge coverage is below 5%: consider protective puts or inverse exposure")
	}
	if len(res.WorstPositions) > 0 && res.ImpactAmount != 0 {
		worst := res.WorstPositions[0]
		if share := worst.ImpactAmount / res.ImpactAmount; share > 0.5 {
			out = append(out, fmt.Sprintf("%s drives %.0f%% of the scenario loss", worst.Symbol, share*100))
		}
	}
	if res.RecoveryDays > 365 {
		out = append(out, fmt.Sprintf("Expected recovery of about %d days: keep a liquidity buffer", res.RecoveryDays))
	}
	return out
}

// normalize validates s and fills defaults (name, volatility 1, horizon 21)
func normalize(s Scenario) (Scenario, error) {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		return s, fmt.Errorf("%w: id is required", ErrInvalidScenario)
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	if !isValidImpact(s.MarketImpact) {
		return s, fmt.Errorf("%w: market impact %v for %s must be finite and >= -1", ErrInvalidScenario, s.MarketImpact, s.ID)
	}
	cleaned := make(map[domain.AssetClass]float64, len(s.Impacts))
	for class, v := range s.Impacts {
		parsed, err := domain.ParseAssetClass(string(class))
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, s.ID, err)
		}
		if !isValidImpact(v) {
			return s, fmt.Errorf("%w: impact %v for %s/%s must be finite and >= -1", ErrInvalidScenario, v, s.ID, parsed)
		}
		cleaned[parsed] = v
	}
	s.Impacts = cleaned
	if s.RecoveryDays < 0 || s.HorizonDays < 0 {
		return s, fmt.Errorf("%w: negative recovery or horizon for %s", ErrInvalidScenario, s.ID)
	}
	if s.HorizonDays == 0 {
		s.HorizonDays = 21
	}
	if s.Volatility < 0 || math.IsNaN(s.Volatility) || math.IsInf(s.Volatility, 0) {
		return s, fmt.Errorf("%w: volatility multiplier for %s must be finite and non-negative", ErrInvalidScenario, s.ID)
	}
	if s.Volatility == 0 {
		s.Volatility = 1
	}
	return s, nil
}

func isValidImpact(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -1
}
