package events

import (
	"time"

	"github.com/kilianp07/evroute/core/graph"
)

// Event is implemented by every planning event.
type Event interface {
	// Plan returns the identifier of the planning run.
	Plan() string
}

// LegKind tells whether a leg reaches the goal or a station.
type LegKind string

const (
	LegDirect  LegKind = "direct"
	LegStation LegKind = "station"
)

// LegPlanned is published when a leg is appended to the accumulated path.
type LegPlanned struct {
	PlanID  string
	Leg     int
	Kind    LegKind
	From    graph.VertexID
	To      graph.VertexID
	Edges   int
	Energy  float64
	Seconds float64
}

// StationConsumed is published after a recharge.
type StationConsumed struct {
	PlanID          string
	Station         graph.VertexID
	Energy          float64
	BatteryBefore   float64
	BatteryAfter    float64
	ChargingSeconds float64
}

// PlanFinished closes a planning run. Outcome is "ok" or an error kind.
type PlanFinished struct {
	PlanID    string
	VehicleID string
	Start     graph.VertexID
	Goal      graph.VertexID
	Strategy  string
	Outcome   string
	Recharges int
	Expanded  int
	Energy    float64
	Duration  time.Duration
	Err       error
}

func (e LegPlanned) Plan() string      { return e.PlanID }
func (e StationConsumed) Plan() string { return e.PlanID }
func (e PlanFinished) Plan() string    { return e.PlanID }
