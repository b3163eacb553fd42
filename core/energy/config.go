package energy

import (
	"fmt"
)

// RechargePolicy selects the battery level restored at a charging station
// during the energy-state search.
type RechargePolicy string

const (
	// RechargeFull charges to capacity.
	RechargeFull RechargePolicy = "full"
	// RechargeDesired charges to the estimated need for the rest of the trip
	// plus the safety margin, capped at capacity.
	RechargeDesired RechargePolicy = "desired"
)

// Defaults.
const (
	DefaultResolution      = 1e-3
	DefaultEfficiencyFloor = 0.1
	DefaultSafetyMargin    = 0.1
	DefaultChargingPowerKW = 22.0
)

// Config is the energy section of the configuration file.
type Config struct {
	TemperatureMode    TemperatureMode `json:"temperature_mode"`
	AmbientTemperature float64         `json:"ambient_temperature"`
	EfficiencyFloor    float64         `json:"efficiency_floor"`
	RechargePolicy     RechargePolicy  `json:"recharge_policy"`
	BatteryResolution  float64         `json:"battery_resolution"`
}

// SetDefaults fills zero values. The ambient temperature has no default since
// 0 °C is a meaningful value.
func (c *Config) SetDefaults() {
	if c.TemperatureMode == "" {
		c.TemperatureMode = ModeNone
	}
	if c.EfficiencyFloor == 0 {
		c.EfficiencyFloor = DefaultEfficiencyFloor
	}
	if c.RechargePolicy == "" {
		c.RechargePolicy = RechargeFull
	}
	if c.BatteryResolution == 0 {
		c.BatteryResolution = DefaultResolution
	}
}

// Validate checks the section.
func (c Config) Validate() error {
	switch c.RechargePolicy {
	case RechargeFull, RechargeDesired:
	default:
		return fmt.Errorf("unknown recharge policy %q", string(c.RechargePolicy))
	}
	if c.BatteryResolution <= 0 {
		return fmt.Errorf("battery resolution must be positive")
	}
	return c.Model(1).Validate()
}

// Model returns the consumption model for a vehicle constant k.
func (c Config) Model(k float64) Model {
	return Model{
		ElectricConstant:   k,
		Mode:               c.TemperatureMode,
		AmbientTemperature: c.AmbientTemperature,
		EfficiencyFloor:    c.EfficiencyFloor,
	}
}
