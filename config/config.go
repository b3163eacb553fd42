// Package config loads the evroute configuration file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/mqtt"
)

type Config struct {
	Vehicle model.Vehicle  `json:"vehicle"`
	Energy  energy.Config  `json:"energy"`
	Planner planner.Config `json:"planner"`
	Graph   GraphConfig    `json:"graph"`
	MQTT    mqtt.Config    `json:"mqtt"`
	API     APIConfig      `json:"api"`
	Metrics metrics.Config `json:"metrics"`
	Logging LoggingConfig  `json:"logging"`
	Sentry  SentryConfig   `json:"sentry"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_VEHICLE__BATTERY_CAPACITY sets vehicle.battery_capacity), fills defaults
// and validates every section. An empty path loads defaults and environment
// overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Vehicle.SetDefaults()
	c.Energy.SetDefaults()
	c.Planner.SetDefaults()
	c.Graph.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section. The MQTT section is validated when the
// service starts since only `serve` needs a broker.
func (c Config) Validate() error {
	if err := c.Vehicle.Validate(); err != nil {
		return fmt.Errorf("vehicle: %w", err)
	}
	if err := c.Energy.Validate(); err != nil {
		return fmt.Errorf("energy: %w", err)
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
