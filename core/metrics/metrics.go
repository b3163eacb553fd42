package metrics

import (
	"time"

	"github.com/kilianp07/evroute/core/graph"
)

// PlanResult summarises one planning run.
type PlanResult struct {
	PlanID    string
	VehicleID string
	Start     graph.VertexID
	Goal      graph.VertexID
	Strategy  string
	// Outcome is "ok" or the failure kind.
	Outcome   string
	Recharges int
	Expanded  int
	Energy    float64
	Duration  time.Duration
	Time      time.Time
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordPlan(res PlanResult) error
}

// LegEvent describes one leg appended to a plan.
type LegEvent struct {
	PlanID  string
	Kind    string
	Edges   int
	Energy  float64
	Seconds float64
	Time    time.Time
}

// LegRecorder records planned legs.
type LegRecorder interface {
	RecordLeg(ev LegEvent) error
}

// ChargingStopEvent describes a recharge at a station.
type ChargingStopEvent struct {
	PlanID          string
	Station         graph.VertexID
	Energy          float64
	BatteryBefore   float64
	BatteryAfter    float64
	ChargingSeconds float64
	Time            time.Time
}

// ChargingStopRecorder records charging stops.
type ChargingStopRecorder interface {
	RecordChargingStop(ev ChargingStopEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanResult) error                { return nil }
func (NopSink) RecordLeg(LegEvent) error                   { return nil }
func (NopSink) RecordChargingStop(ChargingStopEvent) error { return nil }
