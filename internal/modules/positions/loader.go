package positions

import (
	"fmt"
	"io"
	"os"

	"github.com/aristath/sentinel-risk/internal/domain"
	"gopkg.in/yaml.v3"
)

// positionsDocument is the YAML layout of a seed file:
//
//	positions:
//	  - id: ibkr-aapl
//	    symbol: AAPL
//	    asset_class: equity
//	    broker: ibkr
//	    quantity: 100
//	    average_cost: 150
//	    current_price: 180
//	    sector: Technology
//	    beta: 1.2
type positionsDocument struct {
	Positions []domain.Position `yaml:"positions"`
}

// Load parses a YAML positions document. Asset class names are normalised
// ("Fixed-Income" -> fixed_income); validation happens on upsert.
func Load(r io.Reader) ([]domain.Position, error) {
	var doc positionsDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return []domain.Position{}, nil
		}
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}

	out := make([]domain.Position, 0, len(doc.Positions))
	for i, p := range doc.Positions {
		class, err := domain.ParseAssetClass(string(p.AssetClass))
		if err != nil {
			return nil, fmt.Errorf("failed to parse position %d (%s): %w", i, p.ID, err)
		}
		p.AssetClass = class
		if p.ID == "" && p.Broker != "" {
			p.ID = p.Broker + ":" + p.Symbol
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadFile reads a YAML positions file
func LoadFile(path string) ([]domain.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open positions file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Seed upserts every position, stopping at the first invalid one
func (s *Store) Seed(positions []domain.Position) error {
	for _, p := range positions {
		if _, err := s.Upsert(p); err != nil {
			return fmt.Errorf("failed to seed position: %w", err)
		}
	}
	return nil
}
