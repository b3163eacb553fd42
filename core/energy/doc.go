// Package energy holds the canonical consumption model and the energy-aware
// search over (vertex, battery) states.
//
// Consumption of an edge is
//
//	k · distance_km · speed_kph
//
// adjusted by the ambient temperature according to TemperatureMode. Every
// component that reasons about energy (search, vehicle ledger, station
// locator) goes through Model so their feasibility decisions agree.
package energy
