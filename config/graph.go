package config

import (
	"fmt"

	"github.com/kilianp07/evroute/infra/roadgraph"
)

// GraphConfig selects the road network. Path takes precedence; without it a
// random network is generated from Generate.
type GraphConfig struct {
	// Path is a node-link JSON or YAML file.
	Path       string                   `json:"path"`
	Undirected bool                     `json:"undirected"`
	Generate   roadgraph.GenerateConfig `json:"generate"`
}

// SetDefaults fills the generator parameters when no file is given.
func (c *GraphConfig) SetDefaults() {
	if c.Path == "" {
		c.Generate.SetDefaults()
	}
}

// Validate checks the generator parameters when they are used.
func (c GraphConfig) Validate() error {
	if c.Path != "" {
		return nil
	}
	if err := c.Generate.Validate(); err != nil {
		return fmt.Errorf("graph.generate: %w", err)
	}
	return nil
}

// Build loads or generates the road network.
func (c GraphConfig) Build() (*roadgraph.Graph, error) {
	if c.Path != "" {
		g, err := roadgraph.Load(c.Path, roadgraph.LoadOptions{Undirected: c.Undirected})
		if err != nil {
			return nil, fmt.Errorf("load graph %s: %w", c.Path, err)
		}
		return g, nil
	}
	return roadgraph.Generate(c.Generate)
}
