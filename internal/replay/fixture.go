package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/config"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/orchestrator"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config,omitempty"`
	Cases       []FixtureCase   `json:"cases"`
}

// FixtureCase is one problem and the shape its session must take.
type FixtureCase struct {
	Name         string           `json:"name"`
	Problem      string           `json:"problem"`
	Domain       string           `json:"domain,omitempty"`
	Constraints  []string         `json:"constraints,omitempty"`
	PlannedSteps []reasoning.Step `json:"planned_steps,omitempty"`
	Expected     Expectation      `json:"expected"`
}

// Expectation bounds a session outcome. Zero values are not checked.
type Expectation struct {
	State         string   `json:"state,omitempty"`
	MinComplexity *float64 `json:"min_complexity,omitempty"`
	MaxComplexity *float64 `json:"max_complexity,omitempty"`
	BaseLevel     string   `json:"base_level,omitempty"`
	MinSteps      int      `json:"min_steps,omitempty"`
	MaxSteps      int      `json:"max_steps,omitempty"`
	StepIDs       []string `json:"step_ids,omitempty"`
	ErrorContains string   `json:"error_contains,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToConfig overlays the fixture's partial config on the defaults.
func (f *Fixture) ToConfig() (config.Config, error) {
	cfg := config.Default()
	if len(f.Config) > 0 {
		if err := json.Unmarshal(f.Config, &cfg); err != nil {
			return config.Config{}, fmt.Errorf("fixture config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// ToInput converts a FixtureCase to chain input.
func (fc *FixtureCase) ToInput() orchestrator.Input {
	return orchestrator.Input{
		Domain:       fc.Domain,
		Constraints:  fc.Constraints,
		PlannedSteps: fc.PlannedSteps,
	}
}

// #endregion fixture-loader
