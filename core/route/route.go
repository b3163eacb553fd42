// Package route computes single legs with the generic A* engine and no
// energy accounting. The planner uses it for direct legs and for legs to
// charging stations.
package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/heuristic"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/search"
)

var (
	// ErrNoPath is returned when the goal cannot be reached at all.
	ErrNoPath = errors.New("route: no path")
	// ErrUnknownVertex is returned when an endpoint is not in the graph.
	ErrUnknownVertex = errors.New("route: unknown vertex")
)

// Stats describes one search run.
type Stats struct {
	Cost     float64 `json:"cost"`
	Expanded int     `json:"expanded"`
}

// Router finds cheapest paths on a graph view.
type Router struct {
	view      graph.View
	metric    graph.Metric
	h         heuristic.Func
	maxExpand int
	log       logger.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithMetric selects the minimised edge weight.
func WithMetric(m graph.Metric) Option { return func(r *Router) { r.metric = m } }

// WithHeuristic sets the A* estimate. It must use the unit of the metric.
func WithHeuristic(h heuristic.Func) Option { return func(r *Router) { r.h = h } }

// WithMaxExpansions caps the expansions of every search.
func WithMaxExpansions(n int) Option { return func(r *Router) { r.maxExpand = n } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(r *Router) { r.log = logger.OrNop(l) } }

// New returns a Router minimising distance with the straight-line heuristic
// unless overridden.
func New(view graph.View, opts ...Option) *Router {
	r := &Router{view: view, metric: graph.MetricDistance, log: logger.Nop{}}
	for _, o := range opts {
		o(r)
	}
	if r.h == nil {
		if r.metric == graph.MetricTime {
			r.h = heuristic.MinTravelTime(view, 0)
		} else {
			r.h = heuristic.StraightLine(view)
		}
	}
	return r
}

// Shortest returns the cheapest path from one vertex to another. Equal
// endpoints yield an empty path without searching.
func (r *Router) Shortest(ctx context.Context, from, to graph.VertexID) (graph.Path, Stats, error) {
	for _, v := range []graph.VertexID{from, to} {
		if !r.view.HasVertex(v) {
			return nil, Stats{}, fmt.Errorf("%w: %d", ErrUnknownVertex, v)
		}
	}
	if from == to {
		return graph.Path{}, Stats{}, nil
	}
	p := search.Problem[graph.VertexID, graph.Edge, graph.VertexID]{
		Initial: from,
		IsGoal:  func(v graph.VertexID) bool { return v == to },
		Successors: func(u graph.VertexID) []search.Successor[graph.VertexID, graph.Edge] {
			next := r.view.Neighbors(u)
			out := make([]search.Successor[graph.VertexID, graph.Edge], 0, len(next))
			for _, v := range next {
				a := graph.EdgeOrDefault(r.view, u, v)
				out = append(out, search.Successor[graph.VertexID, graph.Edge]{
					Action: graph.Edge{From: u, To: v},
					State:  v,
					Cost:   r.metric.Cost(a),
				})
			}
			return out
		},
		Heuristic: func(v graph.VertexID) float64 { return r.h(v, to) },
		Key:       func(v graph.VertexID) graph.VertexID { return v },
	}
	res, err := search.Solve(ctx, p, search.WithMaxExpansions(r.maxExpand))
	st := Stats{Cost: res.Cost, Expanded: res.Expanded}
	switch {
	case errors.Is(err, search.ErrNotFound):
		return nil, st, fmt.Errorf("%w from %d to %d", ErrNoPath, from, to)
	case err != nil:
		return nil, st, fmt.Errorf("route %d -> %d: %w", from, to, err)
	}
	r.log.Debugw("leg found", map[string]any{"from": from, "to": to, "edges": len(res.Actions), "cost": res.Cost, "expanded": res.Expanded})
	return graph.Path(res.Actions), st, nil
}
