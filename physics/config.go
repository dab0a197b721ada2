// Copyright © 2024 Galvanized Logic Inc.

package physics

// config.go holds the solver tuning knobs and their YAML loader.
// The yaml is string based so that it is easy to read and tweak
// alongside an application's other asset configuration.

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gazed/xpbd/math/lin"
)

// Config tunes the XPBD driver. Zero values are not meaningful:
// start from DefaultConfig or load over it with LoadConfig.
type Config struct {
	// Substeps is the number of sub-integrations per Step call.
	// More substeps buy stability, costing a full collision pass each.
	Substeps int `yaml:"substeps"`

	// Iterations is the number of positional solver passes over the
	// constraint list within one substep.
	Iterations int `yaml:"iterations"`

	// Islands enables simulation-island discovery and with it the
	// sleeping of quiescent island groups.
	Islands bool `yaml:"islands"`

	// Gravity is applied to every non-fixed body each substep,
	// scaled by body mass.
	Gravity lin.V3 `yaml:"gravity"`
}

// DefaultConfig returns the solver configuration used by NewWorld:
// 10 substeps, 1 positional iteration, islands on, and gravity of
// 10 m/s² along -y.
func DefaultConfig() Config {
	return Config{
		Substeps:   10,
		Iterations: 1,
		Islands:    true,
		Gravity:    lin.V3{Y: -10.0},
	}
}

// LoadConfig parses a YAML solver configuration, eg:
//
//	substeps: 20
//	iterations: 2
//	islands: true
//	gravity: {x: 0.0, y: -9.81, z: 0.0}
//
// Missing keys keep their DefaultConfig values.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("physics config: yaml %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validate rejects configurations the solver cannot run with.
func (c Config) validate() error {
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps %d", ErrInvalidConfig, c.Substeps)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations %d", ErrInvalidConfig, c.Iterations)
	}
	return nil
}
