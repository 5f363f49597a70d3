package stress

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type scenariosDocument struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios parses a YAML document of custom scenarios:
//
//	scenarios:
//	  - id: taiwan_strait
//	    name: Taiwan Strait Blockade
//	    market_impact: -0.25
//	    impacts: {equity: -0.30, commodity: 0.15}
//	    recovery_days: 400
func LoadScenarios(r io.Reader) ([]Scenario, error) {
	var doc scenariosDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []Scenario{}, nil
		}
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}
	return doc.Scenarios, nil
}

// LoadScenarioFile registers every scenario in a YAML file and returns how many
// were added. Nothing is registered when any scenario in the file is invalid.
func (e *Engine) LoadScenarioFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open scenarios file: %w", err)
	}
	defer f.Close()

	scenarios, err := LoadScenarios(f)
	if err != nil {
		return 0, err
	}
	valid := make([]Scenario, len(scenarios))
	for i, s := range scenarios {
		n, err := normalize(s)
		if err != nil {
			return 0, fmt.Errorf("failed to add scenario %d: %w", i, err)
		}
		valid[i] = n
	}
	for _, s := range valid {
		e.register(s)
	}
	return len(valid), nil
}
