// Package cli implements the gantry command logic: configuration loading,
// evaluation execution and report rendering.
package cli

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the evaluation description loaded from YAML.
type Config struct {
	Scenario   ScenarioConfig `yaml:"scenario"`
	Meters     []MeterConfig  `yaml:"meters"`
	Recorder   RecorderConfig `yaml:"recorder"`
	Prometheus bool           `yaml:"prometheus"`
	MaxBatches int            `yaml:"max_batches"`
}

// ScenarioConfig selects and parameterizes the scenario driver.
type ScenarioConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// MeterConfig describes one meter: a metric name resolved against the
// registry and either a single path or a list of paths for pair metrics.
type MeterConfig struct {
	Name   string   `yaml:"name"`
	Metric string   `yaml:"metric"`
	Path   string   `yaml:"path"`
	Paths  []string `yaml:"paths"`
}

// RecorderConfig selects an additional recording backend. The in-memory
// recorder always runs regardless; it backs the end-of-run report and the
// /records endpoint.
type RecorderConfig struct {
	Kind  string      `yaml:"kind"` // memory (default), log, redis
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection details for the redis recorder.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// SyntheticParams are the synthetic scenario's tunables, decoded loosely
// from the scenario params map.
type SyntheticParams struct {
	Batches     int     `mapstructure:"batches"`
	InputDim    int     `mapstructure:"input_dim"`
	Classes     int     `mapstructure:"classes"`
	AttackSteps int     `mapstructure:"attack_steps"`
	Epsilon     float64 `mapstructure:"epsilon"`
	Seed        int64   `mapstructure:"seed"`
}

// LoadConfig reads and validates an evaluation config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Scenario.Name == "" {
		cfg.Scenario.Name = "synthetic"
	}
	if cfg.Recorder.Kind == "" {
		cfg.Recorder.Kind = "memory"
	}
	switch cfg.Recorder.Kind {
	case "memory", "log", "redis":
	default:
		return nil, fmt.Errorf("recorder: unknown kind %q", cfg.Recorder.Kind)
	}
	for i, m := range cfg.Meters {
		if m.Name == "" {
			return nil, fmt.Errorf("meters[%d]: name is required", i)
		}
		if m.Metric == "" {
			return nil, fmt.Errorf("meter %q: metric is required", m.Name)
		}
		if m.Path == "" && len(m.Paths) == 0 {
			return nil, fmt.Errorf("meter %q: path or paths is required", m.Name)
		}
		if m.Path != "" && len(m.Paths) > 0 {
			return nil, fmt.Errorf("meter %q: path and paths are mutually exclusive", m.Name)
		}
	}
	return &cfg, nil
}

// DecodeSyntheticParams converts the loose params map into typed tunables,
// rejecting unknown keys.
func DecodeSyntheticParams(params map[string]any) (SyntheticParams, error) {
	out := SyntheticParams{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		ErrorUnused: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(params); err != nil {
		return out, fmt.Errorf("scenario params: %w", err)
	}
	return out, nil
}
