package energy

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/evroute/core/graph"
)

// TemperatureMode selects how the ambient temperature affects consumption.
type TemperatureMode string

const (
	// ModeNone ignores the temperature.
	ModeNone TemperatureMode = "none"
	// ModeDivisor divides consumption by the temperature in °C.
	ModeDivisor TemperatureMode = "divisor"
	// ModeEfficiency multiplies consumption by the efficiency factor.
	ModeEfficiency TemperatureMode = "efficiency"
	// ModeDerate divides consumption by the efficiency factor.
	ModeDerate TemperatureMode = "derate"
)

// EfficiencyPerDegree is the efficiency lost per degree below 20 °C.
const EfficiencyPerDegree = 0.1

// EstimateSpeedKPH is the speed assumed when energy must be estimated from a
// straight-line distance.
const EstimateSpeedKPH = 60.0

// Model computes the energy spent on road segments.
type Model struct {
	ElectricConstant   float64
	Mode               TemperatureMode
	AmbientTemperature float64
	// EfficiencyFloor bounds the efficiency factor from below.
	EfficiencyFloor float64
}

// Validate checks the model can produce finite positive consumptions.
func (m Model) Validate() error {
	if m.ElectricConstant <= 0 {
		return errors.New("electric constant must be positive")
	}
	switch m.Mode {
	case "", ModeNone:
	case ModeDivisor:
		if m.AmbientTemperature <= 0 {
			return fmt.Errorf("divisor mode requires a positive ambient temperature, got %g", m.AmbientTemperature)
		}
	case ModeEfficiency, ModeDerate:
		if m.EfficiencyFloor <= 0 || m.EfficiencyFloor > 1 {
			return fmt.Errorf("efficiency floor must be in (0,1], got %g", m.EfficiencyFloor)
		}
	default:
		return fmt.Errorf("unknown temperature mode %q", string(m.Mode))
	}
	return nil
}

// Efficiency returns 1 - (20 - T)·0.1 clamped to [EfficiencyFloor, 1].
func (m Model) Efficiency() float64 {
	f := 1 - (20-m.AmbientTemperature)*EfficiencyPerDegree
	return math.Max(m.EfficiencyFloor, math.Min(1, f))
}

func (m Model) adjust(e float64) float64 {
	switch m.Mode {
	case ModeDivisor:
		return e / m.AmbientTemperature
	case ModeEfficiency:
		return e * m.Efficiency()
	case ModeDerate:
		return e / m.Efficiency()
	}
	return e
}

// PerKM returns the energy spent per kilometre driven at speedKPH.
func (m Model) PerKM(speedKPH float64) float64 {
	return m.adjust(m.ElectricConstant * speedKPH)
}

// EdgeEnergy returns the energy spent on one segment. Missing attributes use
// the graph defaults.
func (m Model) EdgeEnergy(a graph.EdgeAttrs) float64 {
	a = a.WithDefaults()
	return m.adjust(m.ElectricConstant * a.DistanceM / 1000 * a.SpeedKPH)
}

// Leg sums energy and travel time in seconds over p.
func (m Model) Leg(view graph.View, p graph.Path) (energy, seconds float64) {
	for _, e := range p {
		a := graph.EdgeOrDefault(view, e.From, e.To)
		energy += m.EdgeEnergy(a)
		seconds += a.TravelTimeS
	}
	return energy, seconds
}

// EstimateKM returns the energy needed to drive km at EstimateSpeedKPH.
func (m Model) EstimateKM(km float64) float64 {
	return km * m.PerKM(EstimateSpeedKPH)
}

// Quantize rounds battery to a multiple of resolution, returned as an integer
// count so it can be used in map keys.
func Quantize(battery, resolution float64) int64 {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return int64(math.Round(battery / resolution))
}
