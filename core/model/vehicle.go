// Package model holds the vehicle ledger mutated by the planner.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/graph"
)

// ErrInvalidVehicle is returned by Validate.
var ErrInvalidVehicle = errors.New("invalid vehicle")

// Vehicle is the trip ledger of an electric vehicle. Energies are in the unit
// of the consumption model (kWh with realistic constants).
type Vehicle struct {
	ID               string  `json:"id,omitempty"`
	BatteryCapacity  float64 `json:"battery_capacity"`
	Battery          float64 `json:"battery"`
	MinBattery       float64 `json:"min_battery"`
	ElectricConstant float64 `json:"electric_constant"`

	RechargeCount   int       `json:"recharge_count"`
	EnergyRecharged []float64 `json:"energy_recharged,omitempty"`
	// TravelTimeS is the cumulated driving and charging time in seconds.
	TravelTimeS float64 `json:"travel_time_s"`
}

// SetDefaults fills zero parameters with a 100 kWh car that must keep 20 kWh
// on arrival.
func (v *Vehicle) SetDefaults() {
	if v.BatteryCapacity == 0 {
		v.BatteryCapacity = 100
	}
	if v.Battery == 0 {
		v.Battery = v.BatteryCapacity
	}
	if v.MinBattery == 0 {
		v.MinBattery = 20
	}
	if v.ElectricConstant == 0 {
		v.ElectricConstant = 0.06
	}
}

// Validate checks the battery parameters are consistent.
func (v Vehicle) Validate() error {
	switch {
	case v.BatteryCapacity <= 0:
		return fmt.Errorf("%w: battery capacity must be positive", ErrInvalidVehicle)
	case v.Battery <= 0 || v.Battery > v.BatteryCapacity:
		return fmt.Errorf("%w: battery %g outside (0,%g]", ErrInvalidVehicle, v.Battery, v.BatteryCapacity)
	case v.MinBattery < 0 || v.MinBattery >= v.BatteryCapacity:
		return fmt.Errorf("%w: min battery %g outside [0,%g)", ErrInvalidVehicle, v.MinBattery, v.BatteryCapacity)
	case v.ElectricConstant <= 0:
		return fmt.Errorf("%w: electric constant must be positive", ErrInvalidVehicle)
	}
	return nil
}

// Clone returns a deep copy so a planning run never touches the caller's
// ledger.
func (v Vehicle) Clone() Vehicle {
	v.EnergyRecharged = append([]float64(nil), v.EnergyRecharged...)
	return v
}

// Budget is the energy that can be spent while keeping MinBattery.
func (v Vehicle) Budget() float64 { return v.Battery - v.MinBattery }

// EnergyBattery returns the parameters used by the energy-state search.
func (v Vehicle) EnergyBattery() energy.Battery {
	return energy.Battery{Capacity: v.BatteryCapacity, Initial: v.Battery, Min: v.MinBattery}
}

// TravelTime returns TravelTimeS as a duration.
func (v Vehicle) TravelTime() time.Duration {
	return time.Duration(v.TravelTimeS * float64(time.Second))
}

// EnergyForLeg returns the energy and the driving time in seconds of p.
func (v Vehicle) EnergyForLeg(view graph.View, m energy.Model, p graph.Path) (float64, float64) {
	return m.Leg(view, p)
}

// RechargeNeeded estimates the energy to add at station to reach goal.
// remainder is the energy of the rest of the planned leg; when it is not
// positive the straight-line distance driven at energy.EstimateSpeedKPH is
// used instead. The estimate is increased by margin and by MinBattery. When
// the result would overflow the battery the vehicle charges to full.
func (v Vehicle) RechargeNeeded(view graph.View, m energy.Model, station, goal graph.VertexID, remainder, margin float64) float64 {
	estimate := remainder
	if estimate <= 0 {
		estimate = m.EstimateKM(graph.StraightLineKM(view, station, goal))
	}
	need := v.MinBattery + estimate*(1+margin)
	if v.Battery >= v.MinBattery && v.Battery+need <= v.BatteryCapacity {
		return need
	}
	return v.BatteryCapacity - v.Battery
}

// ApplyLeg consumes energy and adds driving time.
func (v *Vehicle) ApplyLeg(energy, seconds float64) {
	v.Battery -= energy
	v.TravelTimeS += seconds
}

// Recharge adds amount to the battery, capped at capacity, and accounts the
// charging time at powerKW. It returns the charging time in seconds.
func (v *Vehicle) Recharge(amount, powerKW float64) float64 {
	if amount > v.BatteryCapacity-v.Battery {
		amount = v.BatteryCapacity - v.Battery
	}
	if amount <= 0 {
		return 0
	}
	v.Battery += amount
	v.RechargeCount++
	v.EnergyRecharged = append(v.EnergyRecharged, amount)
	var seconds float64
	if powerKW > 0 {
		seconds = amount / powerKW * 3600
	}
	v.TravelTimeS += seconds
	return seconds
}
