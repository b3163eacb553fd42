package energy

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/heuristic"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/search"
)

var (
	// ErrInfeasible is returned when no state reaches the goal with at least
	// the minimum battery.
	ErrInfeasible = errors.New("energy: goal not reachable within battery budget")
	// ErrInvalidBattery is returned for inconsistent battery parameters.
	ErrInvalidBattery = errors.New("energy: invalid battery parameters")
)

// Battery holds the vehicle parameters the search needs.
type Battery struct {
	Capacity float64
	Initial  float64
	Min      float64
}

// Validate checks 0 < Initial <= Capacity and 0 <= Min < Capacity.
func (b Battery) Validate() error {
	switch {
	case b.Capacity <= 0:
		return fmt.Errorf("%w: capacity %g", ErrInvalidBattery, b.Capacity)
	case b.Initial <= 0 || b.Initial > b.Capacity:
		return fmt.Errorf("%w: initial %g outside (0,%g]", ErrInvalidBattery, b.Initial, b.Capacity)
	case b.Min < 0 || b.Min >= b.Capacity:
		return fmt.Errorf("%w: minimum %g outside [0,%g)", ErrInvalidBattery, b.Min, b.Capacity)
	}
	return nil
}

// State is a search state. Elapsed is the travel time in seconds including
// charging; it is carried along but not part of the reached-set key.
type State struct {
	Vertex  graph.VertexID
	Battery float64
	Elapsed float64
}

// Step is one traversed edge. Recharged is the energy added at Edge.From
// before leaving it.
type Step struct {
	Edge         graph.Edge `json:"edge"`
	Recharged    float64    `json:"recharged,omitempty"`
	Energy       float64    `json:"energy"`
	BatteryAfter float64    `json:"battery_after"`
}

// Result is a feasible route found by Search.
type Result struct {
	Path     graph.Path
	Steps    []Step
	Final    State
	Cost     float64
	Expanded int
}

// Recharges counts the steps that started with a recharge.
func (r Result) Recharges() int {
	n := 0
	for _, s := range r.Steps {
		if s.Recharged > 0 {
			n++
		}
	}
	return n
}

type key struct {
	v graph.VertexID
	b int64
}

// Search runs A* over (vertex, battery) states.
type Search struct {
	view       graph.View
	model      Model
	avail      *graph.Availability
	policy     RechargePolicy
	margin     float64
	powerKW    float64
	resolution float64
	metric     graph.Metric
	h          heuristic.Func
	maxExpand  int
	log        logger.Logger
}

// Option configures a Search.
type Option func(*Search)

// WithAvailability restricts recharging to the stations still available in a.
func WithAvailability(a *graph.Availability) Option { return func(s *Search) { s.avail = a } }

// WithPolicy selects the recharge policy.
func WithPolicy(p RechargePolicy) Option { return func(s *Search) { s.policy = p } }

// WithSafetyMargin sets the margin applied by RechargeDesired.
func WithSafetyMargin(m float64) Option { return func(s *Search) { s.margin = m } }

// WithChargingPower sets the charger power in kW used for charging time.
func WithChargingPower(kw float64) Option {
	return func(s *Search) {
		if kw > 0 {
			s.powerKW = kw
		}
	}
}

// WithResolution sets the battery quantization step of the reached-set key.
func WithResolution(r float64) Option {
	return func(s *Search) {
		if r > 0 {
			s.resolution = r
		}
	}
}

// WithMetric selects the minimised cost.
func WithMetric(m graph.Metric) Option { return func(s *Search) { s.metric = m } }

// WithHeuristic sets the A* estimate.
func WithHeuristic(h heuristic.Func) Option { return func(s *Search) { s.h = h } }

// WithMaxExpansions caps expansions.
func WithMaxExpansions(n int) Option { return func(s *Search) { s.maxExpand = n } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(s *Search) { s.log = logger.OrNop(l) } }

// NewSearch returns an energy-state search on view.
func NewSearch(view graph.View, model Model, opts ...Option) *Search {
	s := &Search{
		view:       view,
		model:      model,
		policy:     RechargeFull,
		margin:     DefaultSafetyMargin,
		powerKW:    DefaultChargingPowerKW,
		resolution: DefaultResolution,
		metric:     graph.MetricDistance,
		log:        logger.Nop{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.h == nil {
		if s.metric == graph.MetricTime {
			s.h = heuristic.MinTravelTime(view, 0)
		} else {
			s.h = heuristic.StraightLine(view)
		}
	}
	return s
}

func (s *Search) canRecharge(v graph.VertexID) bool {
	if s.avail != nil {
		return s.avail.Available(v)
	}
	return s.view.IsChargingStation(v)
}

// target returns the battery level to restore before driving edgeEnergy
// towards next.
func (s *Search) target(next, goal graph.VertexID, edgeEnergy float64, b Battery) float64 {
	if s.policy != RechargeDesired {
		return b.Capacity
	}
	rest := s.model.EstimateKM(graph.StraightLineKM(s.view, next, goal))
	return math.Min(b.Capacity, b.Min+(edgeEnergy+rest)*(1+s.margin))
}

// Solve returns the cheapest route from start to goal that never lets the
// battery drop to zero and arrives with at least b.Min. Recharging happens
// when the vertex being expanded is an available station.
func (s *Search) Solve(ctx context.Context, start, goal graph.VertexID, b Battery) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}
	for _, v := range []graph.VertexID{start, goal} {
		if !s.view.HasVertex(v) {
			return Result{}, fmt.Errorf("energy: unknown vertex %d", v)
		}
	}
	// Without a station the battery never rises again, so a state below the
	// arrival minimum is already lost.
	floor := 0.0
	if !s.anyStation() {
		floor = b.Min
	}
	front := labels{}
	front.admit(start, b.Initial, 0)
	p := search.Problem[State, Step, key]{
		Initial: State{Vertex: start, Battery: b.Initial},
		IsGoal:  func(st State) bool { return st.Vertex == goal && st.Battery >= b.Min },
		Successors: func(st State) []search.Successor[State, Step] {
			return s.successors(st, goal, b, floor)
		},
		Heuristic: func(st State) float64 { return s.h(st.Vertex, goal) },
		Key:       func(st State) key { return key{v: st.Vertex, b: Quantize(st.Battery, s.resolution)} },
		Admit:     func(st State, g float64) bool { return front.admit(st.Vertex, st.Battery, g) },
	}
	res, err := search.Solve(ctx, p, search.WithMaxExpansions(s.maxExpand))
	switch {
	case errors.Is(err, search.ErrNotFound):
		return Result{Expanded: res.Expanded}, fmt.Errorf("%w: %d -> %d", ErrInfeasible, start, goal)
	case err != nil:
		return Result{Expanded: res.Expanded}, err
	}
	out := Result{Steps: res.Actions, Final: res.Final, Cost: res.Cost, Expanded: res.Expanded}
	out.Path = make(graph.Path, 0, len(res.Actions))
	for _, st := range res.Actions {
		out.Path = append(out.Path, st.Edge)
	}
	s.log.Debugw("energy route found", map[string]any{
		"start": start, "goal": goal, "edges": len(out.Path),
		"battery": out.Final.Battery, "recharges": out.Recharges(), "expanded": out.Expanded,
	})
	return out, nil
}

func (s *Search) anyStation() bool {
	if s.avail != nil {
		return len(s.avail.Stations()) > 0
	}
	return len(s.view.Stations()) > 0
}

func (s *Search) successors(st State, goal graph.VertexID, b Battery, floor float64) []search.Successor[State, Step] {
	u := st.Vertex
	station := s.canRecharge(u)
	next := s.view.Neighbors(u)
	out := make([]search.Successor[State, Step], 0, len(next))
	for _, v := range next {
		a := graph.EdgeOrDefault(s.view, u, v)
		e := s.model.EdgeEnergy(a)
		battery := st.Battery
		added := 0.0
		if station {
			if t := s.target(v, goal, e, b); t > battery {
				added = t - battery
				battery = t
			}
		}
		left := battery - e
		if left <= 0 || left < floor {
			continue
		}
		charging := added / s.powerKW * 3600
		cost := s.metric.Cost(a)
		if s.metric == graph.MetricTime {
			cost += charging
		}
		out = append(out, search.Successor[State, Step]{
			Action: Step{Edge: graph.Edge{From: u, To: v}, Recharged: added, Energy: e, BatteryAfter: left},
			State:  State{Vertex: v, Battery: left, Elapsed: st.Elapsed + a.TravelTimeS + charging},
			Cost:   cost,
		})
	}
	return out
}
