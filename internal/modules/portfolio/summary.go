// Package portfolio rolls positions into allocation breakdowns.
package portfolio

import (
	"sort"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
	"github.com/shopspring/decimal"
)

// Unclassified is the bucket for positions missing a grouping key
const Unclassified = "unclassified"

// Allocation is one bucket of a breakdown
type Allocation struct {
	Value  float64 `json:"value" msgpack:"value"`
	Weight float64 `json:"weight" msgpack:"weight"` // fraction of total value
	Count  int     `json:"count" msgpack:"count"`
}

// Summary is a derived projection of a position set.
// Every breakdown sums to TotalValue.
type Summary struct {
	ByAssetClass   map[string]Allocation `json:"by_asset_class" msgpack:"by_asset_class"`
	BySector       map[string]Allocation `json:"by_sector" msgpack:"by_sector"`
	ByBroker       map[string]Allocation `json:"by_broker" msgpack:"by_broker"`
	ByCurrency     map[string]Allocation `json:"by_currency" msgpack:"by_currency"`
	ByCountry      map[string]Allocation `json:"by_country" msgpack:"by_country"`
	TotalValue     float64               `json:"total_value" msgpack:"total_value"`
	TotalCost      float64               `json:"total_cost" msgpack:"total_cost"`
	TotalPnL       float64               `json:"total_pnl" msgpack:"total_pnl"`
	TotalPnLReturn float64               `json:"total_pnl_return" msgpack:"total_pnl_return"` // fraction of cost
	PositionCount  int                   `json:"position_count" msgpack:"position_count"`
}

// Weight returns the weight of an asset class, 0 when absent
func (s Summary) Weight(class domain.AssetClass) float64 {
	return s.ByAssetClass[string(class)].Weight
}

// Composition returns asset class weights keyed by class name
func (s Summary) Composition() map[string]float64 {
	out := make(map[string]float64, len(s.ByAssetClass))
	for class, alloc := range s.ByAssetClass {
		if alloc.Weight != 0 {
			out[class] = alloc.Weight
		}
	}
	return out
}

// Dimensions returns the breakdowns keyed by dimension name in a stable order
func (s Summary) Dimensions() []Dimension {
	return []Dimension{
		{Name: "asset_class", Buckets: s.ByAssetClass},
		{Name: "sector", Buckets: s.BySector},
		{Name: "broker", Buckets: s.ByBroker},
		{Name: "currency", Buckets: s.ByCurrency},
		{Name: "country", Buckets: s.ByCountry},
	}
}

// Dimension names one breakdown of a summary
type Dimension struct {
	Buckets map[string]Allocation
	Name    string
}

// SortedKeys returns the bucket names in ascending order
func (d Dimension) SortedKeys() []string {
	keys := make([]string, 0, len(d.Buckets))
	for k := range d.Buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type bucket struct {
	value decimal.Decimal
	count int
}

type accumulator map[string]*bucket

func (a accumulator) add(key string, value decimal.Decimal) {
	if key == "" {
		key = Unclassified
	}
	b, ok := a[key]
	if !ok {
		b = &bucket{}
		a[key] = b
	}
	b.value = b.value.Add(value)
	b.count++
}

func (a accumulator) allocations(total decimal.Decimal) map[string]Allocation {
	out := make(map[string]Allocation, len(a))
	for key, b := range a {
		weight := 0.0
		if !total.IsZero() {
			weight = b.value.Div(total).InexactFloat64()
		}
		out[key] = Allocation{
			Value:  b.value.InexactFloat64(),
			Weight: formulas.Finite(weight, 0),
			Count:  b.count,
		}
	}
	return out
}

// Summarize aggregates positions in a single pass.
// Sums are accumulated in decimal so breakdowns reconcile with the total.
func Summarize(positions []domain.Position) Summary {
	var totalValue, totalCost decimal.Decimal
	byClass := accumulator{}
	bySector := accumulator{}
	byBroker := accumulator{}
	byCurrency := accumulator{}
	byCountry := accumulator{}

	for _, p := range positions {
		value := decimal.NewFromFloat(formulas.Finite(p.MarketValue, 0))
		cost := decimal.NewFromFloat(formulas.Finite(p.CostBasis(), 0))

		totalValue = totalValue.Add(value)
		totalCost = totalCost.Add(cost)

		byClass.add(string(p.AssetClass), value)
		bySector.add(p.Sector, value)
		byBroker.add(p.Broker, value)
		byCurrency.add(string(p.Currency), value)
		byCountry.add(p.Country, value)
	}

	pnl := totalValue.Sub(totalCost)
	pnlReturn := 0.0
	if !totalCost.IsZero() {
		pnlReturn = pnl.Div(totalCost).InexactFloat64()
	}

	return Summary{
		TotalValue:     totalValue.InexactFloat64(),
		TotalCost:      totalCost.InexactFloat64(),
		TotalPnL:       pnl.InexactFloat64(),
		TotalPnLReturn: formulas.Finite(pnlReturn, 0),
		PositionCount:  len(positions),
		ByAssetClass:   byClass.allocations(totalValue),
		BySector:       bySector.allocations(totalValue),
		ByBroker:       byBroker.allocations(totalValue),
		ByCurrency:     byCurrency.allocations(totalValue),
		ByCountry:      byCountry.allocations(totalValue),
	}
}
