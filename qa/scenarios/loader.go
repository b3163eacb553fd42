package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/infra/roadgraph"
)

type VehicleDef struct {
	ID               string  `yaml:"id"`
	Capacity         float64 `yaml:"capacity"`
	Battery          float64 `yaml:"battery"`
	MinBattery       float64 `yaml:"min_battery"`
	ElectricConstant float64 `yaml:"electric_constant"`
}

func (v VehicleDef) ToModel() model.Vehicle {
	battery := v.Battery
	if battery == 0 {
		battery = v.Capacity
	}
	return model.Vehicle{
		ID:               v.ID,
		BatteryCapacity:  v.Capacity,
		Battery:          battery,
		MinBattery:       v.MinBattery,
		ElectricConstant: v.ElectricConstant,
	}
}

type EnergyDef struct {
	TemperatureMode    string  `yaml:"temperature_mode"`
	AmbientTemperature float64 `yaml:"ambient_temperature"`
}

func (e EnergyDef) ToConfig() energy.Config {
	return energy.Config{
		TemperatureMode:    energy.TemperatureMode(e.TemperatureMode),
		AmbientTemperature: e.AmbientTemperature,
	}
}

type Expected struct {
	// Outcome is "ok" or a planning error kind.
	Outcome  string           `yaml:"outcome"`
	Stations []graph.VertexID `yaml:"stations,omitempty"`
	Vertices []graph.VertexID `yaml:"vertices,omitempty"`
}

type Trip struct {
	From     graph.VertexID `yaml:"from"`
	To       graph.VertexID `yaml:"to"`
	Expected Expected       `yaml:"expected"`
}

type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description,omitempty"`
	Graph       roadgraph.Document `yaml:"graph"`
	Vehicle     VehicleDef         `yaml:"vehicle"`
	Energy      EnergyDef          `yaml:"energy,omitempty"`
	// Strategies defaults to every planner strategy.
	Strategies []string `yaml:"strategies,omitempty"`
	Trips      []Trip   `yaml:"trips"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
