package planner

import (
	"github.com/kilianp07/evroute/core/events"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
)

// Leg is a contiguous part of a plan between two waypoints.
type Leg struct {
	Kind    events.LegKind `json:"kind"`
	From    graph.VertexID `json:"from"`
	To      graph.VertexID `json:"to"`
	Path    graph.Path     `json:"path"`
	Energy  float64        `json:"energy"`
	Seconds float64        `json:"seconds"`
}

// Stop is a recharge at a charging station.
type Stop struct {
	Station         graph.VertexID `json:"station"`
	Energy          float64        `json:"energy"`
	BatteryBefore   float64        `json:"battery_before"`
	BatteryAfter    float64        `json:"battery_after"`
	ChargingSeconds float64        `json:"charging_s"`
}

// Plan is a feasible route with its recharge stops.
type Plan struct {
	ID       string         `json:"id"`
	Strategy Strategy       `json:"strategy"`
	Start    graph.VertexID `json:"start"`
	Goal     graph.VertexID `json:"goal"`
	Path     graph.Path     `json:"path"`
	Legs     []Leg          `json:"legs"`
	Stops    []Stop         `json:"stops"`
	// Vehicle is the ledger at arrival.
	Vehicle  model.Vehicle `json:"vehicle"`
	Energy   float64       `json:"energy"`
	Expanded int           `json:"expanded"`
}

// Vertices returns the visited vertices. A plan whose start is the goal
// yields the start only.
func (p *Plan) Vertices() []graph.VertexID {
	if len(p.Path) == 0 {
		return []graph.VertexID{p.Start}
	}
	return p.Path.Vertices()
}

func (p *Plan) addLeg(l Leg) {
	p.Legs = append(p.Legs, l)
	p.Path = append(p.Path, l.Path...)
	p.Energy += l.Energy
}
