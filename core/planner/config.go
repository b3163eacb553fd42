package planner

import (
	"fmt"

	"github.com/kilianp07/evroute/core/factory"
	"github.com/kilianp07/evroute/core/graph"
)

// Strategy selects how recharges are planned.
type Strategy string

const (
	// StrategyAdaptive plans legs and detours to stations iteratively.
	StrategyAdaptive Strategy = "adaptive"
	// StrategyEnergy runs one energy-state search.
	StrategyEnergy Strategy = "energy"
)

// LocatorConfig tunes the station relaxation loop.
type LocatorConfig struct {
	// Step is subtracted from the leg fraction at each iteration.
	Step float64 `json:"step"`
	// Floor is the smallest fraction tried.
	Floor float64 `json:"floor"`
	// MaxIterations caps the iterations; zero means no cap.
	MaxIterations int `json:"max_iterations"`
}

// Config is the planner section of the configuration file.
type Config struct {
	Strategy  Strategy             `json:"strategy"`
	Metric    graph.Metric         `json:"metric"`
	Heuristic factory.ModuleConfig `json:"heuristic"`
	// MaxExpansions caps every single search; zero means no cap.
	MaxExpansions   int     `json:"max_expansions"`
	SafetyMargin    float64 `json:"safety_margin"`
	ChargingPowerKW float64 `json:"charging_power_kw"`
	// MaxRecharges caps recharge cycles. Zero leaves the natural bound of one
	// recharge per station.
	MaxRecharges int           `json:"max_recharges"`
	Locator      LocatorConfig `json:"locator"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyAdaptive
	}
	if c.Metric == "" {
		c.Metric = graph.MetricDistance
	}
	if c.Heuristic.Type == "" {
		if c.Metric == graph.MetricTime {
			c.Heuristic.Type = "min_travel_time"
		} else {
			c.Heuristic.Type = "straight_line"
		}
	}
	if c.SafetyMargin == 0 {
		c.SafetyMargin = 0.1
	}
	if c.ChargingPowerKW == 0 {
		c.ChargingPowerKW = 22
	}
	if c.Locator.Step == 0 {
		c.Locator.Step = 0.1
	}
	if c.Locator.Floor == 0 {
		c.Locator.Floor = 0.2
	}
}

// Validate checks the section.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyAdaptive, StrategyEnergy:
	default:
		return fmt.Errorf("unknown strategy %q", string(c.Strategy))
	}
	if err := c.Metric.Validate(); err != nil {
		return err
	}
	if c.SafetyMargin < 0 {
		return fmt.Errorf("safety margin must not be negative")
	}
	if c.ChargingPowerKW <= 0 {
		return fmt.Errorf("charging power must be positive")
	}
	if c.MaxExpansions < 0 || c.MaxRecharges < 0 || c.Locator.MaxIterations < 0 {
		return fmt.Errorf("caps must not be negative")
	}
	if c.Locator.Step <= 0 || c.Locator.Step >= 1 {
		return fmt.Errorf("locator step must be in (0,1), got %g", c.Locator.Step)
	}
	if c.Locator.Floor <= 0 || c.Locator.Floor >= 1 {
		return fmt.Errorf("locator floor must be in (0,1), got %g", c.Locator.Floor)
	}
	return nil
}
