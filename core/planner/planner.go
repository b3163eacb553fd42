package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/events"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/heuristic"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/route"
	"github.com/kilianp07/evroute/core/search"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// Planner plans routes on a shared read-only graph. A Planner is safe for
// concurrent use: every call to Plan owns its search state, vehicle copy and
// station availability.
type Planner struct {
	view  graph.View
	cfg   Config
	ecfg  energy.Config
	log   logger.Logger
	bus   *eventbus.Bus[events.Event]
	newID func() string
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(p *Planner) { p.log = logger.OrNop(l) } }

// WithEventBus publishes planning events on bus.
func WithEventBus(bus *eventbus.Bus[events.Event]) Option { return func(p *Planner) { p.bus = bus } }

// WithIDGenerator overrides the plan identifier generator.
func WithIDGenerator(f func() string) Option { return func(p *Planner) { p.newID = f } }

// New validates the configuration and returns a Planner.
func New(view graph.View, cfg Config, ecfg energy.Config, opts ...Option) (*Planner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("planner config: %w", err)
	}
	ecfg.SetDefaults()
	if err := ecfg.Validate(); err != nil {
		return nil, fmt.Errorf("energy config: %w", err)
	}
	if _, err := heuristic.New(cfg.Heuristic, view); err != nil {
		return nil, fmt.Errorf("planner heuristic: %w", err)
	}
	p := &Planner{view: view, cfg: cfg, ecfg: ecfg, log: logger.Nop{}, newID: uuid.NewString}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

type stage int

const (
	stagePlanLeg stage = iota
	stageLocate
	stageStationLeg
	stageDone
)

// run is the state owned by one Plan call.
type run struct {
	plan    *Plan
	vehicle model.Vehicle
	model   energy.Model
	avail   *graph.Availability
	router  *route.Router
	h       heuristic.Func
	leg     int
	started time.Time
}

// Plan computes a route from start to goal for v. v is not modified; the
// ledger at arrival is returned in Plan.Vehicle. Failures are
// *PlanningError values matching ErrNoRouteExists, ErrEnergyInfeasible,
// ErrSearchBudgetExceeded, ErrInvalidVehicle or ErrUnknownVertex.
func (p *Planner) Plan(ctx context.Context, start, goal graph.VertexID, v model.Vehicle) (*Plan, error) {
	r, err := p.newRun(start, goal, v)
	if err != nil {
		p.finish(r, err)
		return nil, err
	}
	if start != goal {
		switch p.cfg.Strategy {
		case StrategyEnergy:
			err = p.energyRoute(ctx, r)
		default:
			err = p.adaptive(ctx, r)
		}
	}
	p.finish(r, err)
	if err != nil {
		return nil, err
	}
	r.plan.Vehicle = r.vehicle
	return r.plan, nil
}

func (p *Planner) newRun(start, goal graph.VertexID, v model.Vehicle) (*run, error) {
	r := &run{
		plan:    &Plan{ID: p.newID(), Strategy: p.cfg.Strategy, Start: start, Goal: goal, Path: graph.Path{}},
		vehicle: v.Clone(),
		started: time.Now(),
	}
	if err := v.Validate(); err != nil {
		return r, &PlanningError{Kind: KindInvalidInput, From: start, To: goal, Err: err}
	}
	for _, id := range []graph.VertexID{start, goal} {
		if !p.view.HasVertex(id) {
			return r, &PlanningError{Kind: KindInvalidInput, From: start, To: goal, Err: fmt.Errorf("%w: %d", ErrUnknownVertex, id)}
		}
	}
	h, err := heuristic.New(p.cfg.Heuristic, p.view)
	if err != nil {
		return r, &PlanningError{Kind: KindInvalidInput, From: start, To: goal, Err: err}
	}
	r.h = h
	r.model = p.ecfg.Model(v.ElectricConstant)
	r.avail = graph.NewAvailability(p.view)
	r.router = route.New(p.view,
		route.WithMetric(p.cfg.Metric),
		route.WithHeuristic(h),
		route.WithMaxExpansions(p.cfg.MaxExpansions),
		route.WithLogger(p.log),
	)
	return r, nil
}

// adaptive runs the leg / locate / recharge loop.
func (p *Planner) adaptive(ctx context.Context, r *run) error {
	cur, goal := r.plan.Start, r.plan.Goal
	locator := NewLocator(p.view, r.model, r.avail, r.router, p.cfg.Locator, p.log)
	var (
		direct    graph.Path
		candidate Candidate
	)

	for st := stagePlanLeg; st != stageDone; {
		switch st {
		case stagePlanLeg:
			path, stats, err := r.router.Shortest(ctx, cur, goal)
			r.plan.Expanded += stats.Expanded
			if err != nil {
				return r.fail(classify(err), cur, goal, err)
			}
			e, secs := r.vehicle.EnergyForLeg(p.view, r.model, path)
			if e < r.vehicle.Budget() {
				p.appendLeg(r, events.LegDirect, cur, goal, path, e, secs)
				st = stageDone
				continue
			}
			p.log.Debugw("leg exceeds budget", map[string]any{"from": cur, "to": goal, "energy": e, "budget": r.vehicle.Budget()})
			direct = path
			st = stageLocate

		case stageLocate:
			if limit := p.cfg.MaxRecharges; limit > 0 && len(r.plan.Stops) >= limit {
				return r.fail(KindEnergyInfeasible, cur, goal, fmt.Errorf("recharge limit %d reached", limit))
			}
			c, err := locator.Locate(ctx, cur, goal, direct, r.vehicle)
			r.plan.Expanded += c.Expanded
			if errors.Is(err, ErrNoStation) {
				return r.fail(KindEnergyInfeasible, cur, goal, err)
			}
			if err != nil {
				return r.fail(classify(err), cur, goal, err)
			}
			candidate = c
			st = stageStationLeg

		case stageStationLeg:
			c := candidate
			if len(c.Path) > 0 {
				p.appendLeg(r, events.LegStation, cur, c.Station, c.Path, c.Energy, c.Seconds)
			}
			remainder, err := p.energyToGoal(ctx, r, c.Station, goal)
			if err != nil {
				return r.fail(classify(err), c.Station, goal, err)
			}
			amount := r.vehicle.RechargeNeeded(p.view, r.model, c.Station, goal, remainder, p.cfg.SafetyMargin)
			p.recharge(r, c.Station, amount)
			cur = c.Station
			st = stagePlanLeg
		}
	}
	return nil
}

// energyToGoal returns the energy of the plain leg from station to goal. A
// missing path yields zero and is reported by the next leg search.
func (p *Planner) energyToGoal(ctx context.Context, r *run, station, goal graph.VertexID) (float64, error) {
	path, stats, err := r.router.Shortest(ctx, station, goal)
	r.plan.Expanded += stats.Expanded
	if errors.Is(err, route.ErrNoPath) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	e, _ := r.vehicle.EnergyForLeg(p.view, r.model, path)
	return e, nil
}

// energyRoute runs the energy-state search once and converts its steps into
// legs and stops.
func (p *Planner) energyRoute(ctx context.Context, r *run) error {
	start, goal := r.plan.Start, r.plan.Goal
	// Connectivity is checked first so a disconnected goal is reported as
	// such and not as an energy failure.
	_, stats, err := r.router.Shortest(ctx, start, goal)
	r.plan.Expanded += stats.Expanded
	if err != nil {
		return r.fail(classify(err), start, goal, err)
	}
	s := energy.NewSearch(p.view, r.model,
		energy.WithAvailability(r.avail),
		energy.WithPolicy(p.ecfg.RechargePolicy),
		energy.WithSafetyMargin(p.cfg.SafetyMargin),
		energy.WithChargingPower(p.cfg.ChargingPowerKW),
		energy.WithResolution(p.ecfg.BatteryResolution),
		energy.WithMetric(p.cfg.Metric),
		energy.WithHeuristic(r.h),
		energy.WithMaxExpansions(p.cfg.MaxExpansions),
		energy.WithLogger(p.log),
	)
	res, err := s.Solve(ctx, start, goal, r.vehicle.EnergyBattery())
	r.plan.Expanded += res.Expanded
	if errors.Is(err, energy.ErrInfeasible) {
		return r.fail(KindEnergyInfeasible, start, goal, err)
	}
	if err != nil {
		return r.fail(classify(err), start, goal, err)
	}

	from := start
	var seg graph.Path
	var segE, segS float64
	flush := func(to graph.VertexID, kind events.LegKind) {
		if len(seg) > 0 {
			p.appendLeg(r, kind, from, to, seg, segE, segS)
		}
		from, seg, segE, segS = to, nil, 0, 0
	}
	for _, step := range res.Steps {
		if step.Recharged > 0 {
			flush(step.Edge.From, events.LegStation)
			p.recharge(r, step.Edge.From, step.Recharged)
		}
		a := graph.EdgeOrDefault(p.view, step.Edge.From, step.Edge.To)
		seg = append(seg, step.Edge)
		segE += step.Energy
		segS += a.TravelTimeS
	}
	flush(goal, events.LegDirect)
	return nil
}

func (p *Planner) appendLeg(r *run, kind events.LegKind, from, to graph.VertexID, path graph.Path, e, secs float64) {
	r.plan.addLeg(Leg{Kind: kind, From: from, To: to, Path: path, Energy: e, Seconds: secs})
	r.vehicle.ApplyLeg(e, secs)
	p.publish(events.LegPlanned{PlanID: r.plan.ID, Leg: r.leg, Kind: kind, From: from, To: to, Edges: len(path), Energy: e, Seconds: secs})
	p.log.Debugw("leg planned", map[string]any{"plan": r.plan.ID, "leg": r.leg, "kind": kind, "from": from, "to": to, "energy": e, "battery": r.vehicle.Battery})
	r.leg++
}

func (p *Planner) recharge(r *run, station graph.VertexID, amount float64) {
	before := r.vehicle.Battery
	secs := r.vehicle.Recharge(amount, p.cfg.ChargingPowerKW)
	r.avail.Consume(station)
	added := r.vehicle.Battery - before
	if added <= 0 {
		return
	}
	stop := Stop{Station: station, Energy: added, BatteryBefore: before, BatteryAfter: r.vehicle.Battery, ChargingSeconds: secs}
	r.plan.Stops = append(r.plan.Stops, stop)
	p.publish(events.StationConsumed{
		PlanID: r.plan.ID, Station: station, Energy: added,
		BatteryBefore: before, BatteryAfter: stop.BatteryAfter, ChargingSeconds: secs,
	})
	p.log.Infof("plan %s: recharge %.3f at station %d (%.3f -> %.3f)", r.plan.ID, added, station, before, stop.BatteryAfter)
}

func (p *Planner) finish(r *run, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		p.log.Warnf("plan %s %d -> %d failed: %v", r.plan.ID, r.plan.Start, r.plan.Goal, err)
	} else {
		p.log.Infof("plan %s %d -> %d: %d edges, %d recharges, %d expanded", r.plan.ID, r.plan.Start, r.plan.Goal, len(r.plan.Path), len(r.plan.Stops), r.plan.Expanded)
	}
	p.publish(events.PlanFinished{
		PlanID: r.plan.ID, VehicleID: r.vehicle.ID, Start: r.plan.Start, Goal: r.plan.Goal, Strategy: string(p.cfg.Strategy),
		Outcome: outcome, Recharges: len(r.plan.Stops), Expanded: r.plan.Expanded, Energy: r.plan.Energy,
		Duration: time.Since(r.started), Err: err,
	})
}

func (p *Planner) publish(e events.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}

func (r *run) fail(kind Kind, from, to graph.VertexID, err error) error {
	return &PlanningError{Kind: kind, Leg: r.leg, From: from, To: to, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, route.ErrNoPath):
		return KindNoRoute
	case errors.Is(err, search.ErrBudgetExceeded), errors.Is(err, ErrSearchBudgetExceeded):
		return KindBudgetExceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, route.ErrUnknownVertex):
		return KindInvalidInput
	}
	return KindInternal
}
