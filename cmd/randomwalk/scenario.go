package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ScenarioConfig describes an n-cycle chain scenario for the
// demonstration program to load from a file, the one place in this
// repository a YAML configuration format is exercised — the engine
// library itself takes no file-based configuration.
type ScenarioConfig struct {
	// Name labels the scenario in output.
	Name string `yaml:"name" validate:"required,min=1,max=100"`
	// States is the size of the n-cycle to walk.
	States int `yaml:"states" validate:"required,min=2,max=100000"`
	// Steps is how many ticks to advance.
	Steps int `yaml:"steps" validate:"required,min=1,max=1000000"`
}

var scenarioValidate = validator.New()

// LoadScenarioConfig reads and validates a ScenarioConfig from path.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}

	var cfg ScenarioConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}
	if err := scenarioValidate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("scenario: invalid config in %s: %w", path, err)
	}
	return &cfg, nil
}
