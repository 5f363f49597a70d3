// Package concentration flags over-weight positions and allocation buckets.
package concentration

import (
	"fmt"
	"sort"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/rs/zerolog"
)

// RiskType identifies what a concentration risk is measured on
type RiskType string

const (
	TypePosition   RiskType = "position"
	TypeSector     RiskType = "sector"
	TypeAssetClass RiskType = "asset_class"
	TypeBroker     RiskType = "broker"
	TypeCurrency   RiskType = "currency"
	TypeCountry    RiskType = "country"
)

// Thresholds are maximum recommended weights (fractions)
type Thresholds struct {
	Position   float64 `json:"position"`
	Sector     float64 `json:"sector"`
	AssetClass float64 `json:"asset_class"`
	Broker     float64 `json:"broker"`
	Currency   float64 `json:"currency"`
	Country    float64 `json:"country"`
}

// DefaultThresholds returns the standard concentration limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		Position:   0.10,
		Sector:     0.25,
		AssetClass: 0.40,
		Broker:     0.50,
		Currency:   0.60,
		Country:    0.60,
	}
}

// Risk is one weight that exceeds its limit
type Risk struct {
	Type           RiskType         `json:"type" msgpack:"type"`
	Name           string           `json:"name" msgpack:"name"`
	Level          domain.RiskLevel `json:"level" msgpack:"level"`
	Recommendation string           `json:"recommendation" msgpack:"recommendation"`
	Weight         float64          `json:"weight" msgpack:"weight"`
	MaxWeight      float64          `json:"max_weight" msgpack:"max_weight"`
	Ratio          float64          `json:"ratio" msgpack:"ratio"`
}

// Detector compares weights against thresholds
type Detector struct {
	thresholds Thresholds
	log        zerolog.Logger
}

// NewDetector creates a detector. Non-positive thresholds fall back to defaults.
func NewDetector(thresholds Thresholds, log zerolog.Logger) *Detector {
	def := DefaultThresholds()
	orDefault := func(v, d float64) float64 {
		if v <= 0 {
			return d
		}
		return v
	}
	return &Detector{
		thresholds: Thresholds{
			Position:   orDefault(thresholds.Position, def.Position),
			Sector:     orDefault(thresholds.Sector, def.Sector),
			AssetClass: orDefault(thresholds.AssetClass, def.AssetClass),
			Broker:     orDefault(thresholds.Broker, def.Broker),
			Currency:   orDefault(thresholds.Currency, def.Currency),
			Country:    orDefault(thresholds.Country, def.Country),
		},
		log: log.With().Str("component", "concentration_detector").Logger(),
	}
}

// Thresholds returns the active limits
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// LevelFromRatio buckets weight/limit: >=2 extreme, >=1.5 high, >=1.25 elevated, >=1 moderate.
func LevelFromRatio(ratio float64) domain.RiskLevel {
	switch {
	case ratio >= 2.0:
		return domain.RiskLevelExtreme
	case ratio >= 1.5:
		return domain.RiskLevelHigh
	case ratio >= 1.25:
		return domain.RiskLevelElevated
	case ratio >= 1.0:
		return domain.RiskLevelModerate
	default:
		return domain.RiskLevelLow
	}
}

// Detect returns every weight strictly above its threshold, most severe first.
// The unclassified bucket of the summary is never flagged.
func (d *Detector) Detect(positions []domain.Position, summary portfolio.Summary) []Risk {
	risks := []Risk{}
	if summary.TotalValue <= 0 {
		return risks
	}

	for _, p := range positions {
		weight := formulas.Finite(p.MarketValue/summary.TotalValue, 0)
		if r, ok := d.check(TypePosition, p.Symbol, weight, d.thresholds.Position); ok {
			risks = append(risks, r)
		}
	}

	buckets := []struct {
		kind   RiskType
		allocs map[string]portfolio.Allocation
		limit  float64
	}{
		{TypeSector, summary.BySector, d.thresholds.Sector},
		{TypeAssetClass, summary.ByAssetClass, d.thresholds.AssetClass},
		{TypeBroker, summary.ByBroker, d.thresholds.Broker},
		{TypeCurrency, summary.ByCurrency, d.thresholds.Currency},
		{TypeCountry, summary.ByCountry, d.thresholds.Country},
	}
	for _, b := range buckets {
		for name, alloc := range b.allocs {
			if name == portfolio.Unclassified {
				continue
			}
			weight := formulas.Finite(alloc.Value/summary.TotalValue, 0)
			if r, ok := d.check(b.kind, name, weight, b.limit); ok {
				risks = append(risks, r)
			}
		}
	}

	sort.Slice(risks, func(i, j int) bool {
		a, b := risks[i], risks[j]
		if a.Level.Severity() != b.Level.Severity() {
			return a.Level.Severity() > b.Level.Severity()
		}
		if a.Ratio != b.Ratio {
			return a.Ratio > b.Ratio
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Name < b.Name
	})

	if len(risks) > 0 {
		d.log.Debug().Int("risks", len(risks)).Str("worst", string(risks[0].Level)).Msg("Concentration risks detected")
	}
	return risks
}

func (d *Detector) check(kind RiskType, name string, weight, limit float64) (Risk, bool) {
	if weight <= limit {
		return Risk{}, false
	}
	ratio := formulas.Finite(weight/limit, 0)
	level := LevelFromRatio(ratio)
	return Risk{
		Type:           kind,
		Name:           name,
		Weight:         weight,
		MaxWeight:      limit,
		Ratio:          ratio,
		Level:          level,
		Recommendation: recommendation(kind, name, weight, limit, level),
	}, true
}

func recommendation(kind RiskType, name string, weight, limit float64, level domain.RiskLevel) string {
	excess := (weight - limit) * 100
	var action string
	switch kind {
	case TypePosition:
		action = fmt.Sprintf("Trim %s by about %.1f%% of portfolio value", name, excess)
	case TypeSector:
		action = fmt.Sprintf("Diversify away from the %s sector by about %.1f%%", name, excess)
	case TypeAssetClass:
		action = fmt.Sprintf("Rebalance %s exposure down by about %.1f%%", name, excess)
	case TypeBroker:
		action = fmt.Sprintf("Move about %.1f%% of assets away from broker %s to reduce counterparty risk", excess, name)
	case TypeCurrency:
		action = fmt.Sprintf("Hedge or reduce %s currency exposure by about %.1f%%", name, excess)
	case TypeCountry:
		action = fmt.Sprintf("Add holdings outside %s to cut country exposure by about %.1f%%", name, excess)
	}
	if level.AtLeast(domain.RiskLevelHigh) {
		return action + " (priority)"
	}
	return action
}
