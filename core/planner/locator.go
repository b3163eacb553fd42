package planner

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/route"
)

const percentEpsilon = 1e-9

// Candidate is the station picked by the Locator together with the leg that
// reaches it from the start of the infeasible leg.
type Candidate struct {
	Station graph.VertexID
	Path    graph.Path
	Energy  float64
	Seconds float64

	Percent  float64
	Origin   graph.VertexID
	Anchor   graph.VertexID
	RadiusKM float64
	Expanded int
}

// Locator finds a charging station that can be reached before the battery
// runs out on an infeasible leg.
//
// At each iteration the leg is walked until the energy spent reaches a
// fraction of the battery. The vertex reached there becomes the origin of a
// feasibility radius and the leg is walked further by that radius to get an
// anchor vertex. Available stations inside the radius are ranked by their
// straight-line distance to the origin plus to the anchor. The fraction
// shrinks at every iteration until a station is found whose leg fits the
// battery. The ranking is a proxy: the chosen station is not guaranteed to
// be the cheapest detour.
type Locator struct {
	view   graph.View
	model  energy.Model
	avail  *graph.Availability
	router *route.Router
	cfg    LocatorConfig
	log    logger.Logger
}

// NewLocator returns a Locator considering only the stations of avail.
func NewLocator(view graph.View, m energy.Model, avail *graph.Availability, router *route.Router, cfg LocatorConfig, log logger.Logger) *Locator {
	return &Locator{view: view, model: m, avail: avail, router: router, cfg: cfg, log: logger.OrNop(log)}
}

// Locate returns the best station for the leg from start towards goal. leg
// is the infeasible path and v the ledger at start.
func (l *Locator) Locate(ctx context.Context, start, goal graph.VertexID, leg graph.Path, v model.Vehicle) (Candidate, error) {
	expanded := 0
	for i := 1; ; i++ {
		percent := 1 - float64(i)*l.cfg.Step
		if percent < l.cfg.Floor-percentEpsilon {
			break
		}
		if l.cfg.MaxIterations > 0 && i > l.cfg.MaxIterations {
			return Candidate{Expanded: expanded}, fmt.Errorf("%w: locator stopped after %d iterations", ErrSearchBudgetExceeded, l.cfg.MaxIterations)
		}
		if err := ctx.Err(); err != nil {
			return Candidate{Expanded: expanded}, err
		}

		origin, anchor, radius := l.frontier(start, goal, leg, v.Battery, percent)
		station, ok := l.rank(origin, anchor, radius)
		l.log.Debugw("locator iteration", map[string]any{
			"percent": percent, "origin": origin, "anchor": anchor, "radius_km": radius, "station": station, "found": ok,
		})
		if !ok {
			continue
		}

		path, st, err := l.router.Shortest(ctx, start, station)
		expanded += st.Expanded
		if errors.Is(err, route.ErrNoPath) {
			continue
		}
		if err != nil {
			return Candidate{Expanded: expanded}, err
		}
		e, secs := l.model.Leg(l.view, path)
		if e >= v.Battery || e > v.Budget() {
			continue
		}
		return Candidate{
			Station: station, Path: path, Energy: e, Seconds: secs,
			Percent: percent, Origin: origin, Anchor: anchor, RadiusKM: radius, Expanded: expanded,
		}, nil
	}
	return Candidate{Expanded: expanded}, fmt.Errorf("%w from %d", ErrNoStation, start)
}

// frontier walks leg until battery·percent is spent. When the threshold is
// never reached the whole battery is available from start.
func (l *Locator) frontier(start, goal graph.VertexID, leg graph.Path, battery, percent float64) (origin, anchor graph.VertexID, radiusKM float64) {
	origin, anchor = start, goal
	var consumed, speedSum, walked float64
	count := 0
	reached := false
	for _, e := range leg {
		a := graph.EdgeOrDefault(l.view, e.From, e.To)
		if !reached {
			speedSum += a.SpeedKPH
			count++
			consumed += l.model.EdgeEnergy(a)
			if consumed >= battery*percent {
				origin = e.To
				radiusKM = math.Abs(battery-consumed) / l.model.PerKM(speedSum/float64(count))
				reached = true
			}
		}
		if reached {
			walked += a.DistanceM / 1000
			if walked >= radiusKM {
				anchor = e.To
				break
			}
		}
	}
	if !reached {
		mean := graph.DefaultSpeedKPH
		if count > 0 {
			mean = speedSum / float64(count)
		}
		radiusKM = battery / l.model.PerKM(mean)
	}
	return origin, anchor, radiusKM
}

// rank returns the available station inside radiusKM of origin minimising
// dist(origin, s) + dist(anchor, s). Ties go to the lowest vertex id.
func (l *Locator) rank(origin, anchor graph.VertexID, radiusKM float64) (graph.VertexID, bool) {
	var best graph.VertexID
	bestScore := math.Inf(1)
	for _, s := range l.avail.Stations() {
		d := graph.StraightLineKM(l.view, origin, s)
		if d > radiusKM {
			continue
		}
		if score := d + graph.StraightLineKM(l.view, anchor, s); score < bestScore {
			best, bestScore = s, score
		}
	}
	return best, !math.IsInf(bestScore, 1)
}
