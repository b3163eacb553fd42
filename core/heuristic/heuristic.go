// Package heuristic provides the estimates used to guide route searches.
//
// Units must match the search metric: StraightLine returns metres and suits
// graph.MetricDistance; MinTravelTime, TimeBased and ShortestTime return
// seconds and suit graph.MetricTime.
//
// Admissibility:
//   - Zero, StraightLine (when edge lengths are at least the straight-line
//     distance) and MinTravelTime never overestimate, so A* stays optimal.
//   - TimeBased uses an average speed and may overestimate on fast roads;
//     it trades optimality for fewer expansions.
//   - ShortestTime is the exact remaining travel time, computed once per goal
//     with Dijkstra. It is perfect for MetricTime but costs a full graph
//     traversal up front and overestimates when paired with MetricDistance.
package heuristic

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kilianp07/evroute/core/graph"
)

// Func estimates the remaining cost from a vertex to the goal.
type Func func(from, goal graph.VertexID) float64

// Zero is the blind heuristic. A* then behaves as uniform-cost search.
func Zero() Func {
	return func(graph.VertexID, graph.VertexID) float64 { return 0 }
}

// StraightLine returns the straight-line distance in metres.
func StraightLine(view graph.View) Func {
	return func(from, goal graph.VertexID) float64 {
		return graph.StraightLineKM(view, from, goal) * 1000
	}
}

// MinTravelTime returns the time in seconds needed to cover the straight-line
// distance at maxSpeedKPH. A non-positive speed selects the fastest edge of
// the graph.
func MinTravelTime(view graph.View, maxSpeedKPH float64) Func {
	if maxSpeedKPH <= 0 {
		maxSpeedKPH = fastestEdge(view)
	}
	return func(from, goal graph.VertexID) float64 {
		return graph.StraightLineKM(view, from, goal) / maxSpeedKPH * 3600
	}
}

// TimeBased returns the edge travel time when from and goal are adjacent and
// otherwise the straight-line distance driven at avgSpeedKPH, in seconds.
func TimeBased(view graph.View, avgSpeedKPH float64) Func {
	if avgSpeedKPH <= 0 {
		avgSpeedKPH = graph.DefaultSpeedKPH
	}
	return func(from, goal graph.VertexID) float64 {
		if from == goal {
			return 0
		}
		if a, ok := view.Edge(from, goal); ok {
			return a.WithDefaults().TravelTimeS
		}
		return graph.StraightLineKM(view, from, goal) / avgSpeedKPH * 3600
	}
}

// ShortestTime returns the exact shortest travel time to the goal in seconds.
// Distances are computed lazily per goal on the reversed graph and cached;
// the returned Func must not be shared between goroutines.
func ShortestTime(view graph.View) Func {
	rev := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for _, v := range view.Vertices() {
		rev.AddNode(simple.Node(v))
	}
	for _, u := range view.Vertices() {
		for _, v := range view.Neighbors(u) {
			if u == v {
				continue
			}
			a := graph.EdgeOrDefault(view, u, v)
			rev.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(v), T: simple.Node(u), W: a.TravelTimeS})
		}
	}
	cache := make(map[graph.VertexID]path.Shortest)
	return func(from, goal graph.VertexID) float64 {
		if from == goal {
			return 0
		}
		root := rev.Node(int64(goal))
		if root == nil {
			return 0
		}
		sp, ok := cache[goal]
		if !ok {
			sp = path.DijkstraFrom(root, rev)
			cache[goal] = sp
		}
		return sp.WeightTo(int64(from))
	}
}

func fastestEdge(view graph.View) float64 {
	fastest := 0.0
	for _, u := range view.Vertices() {
		for _, v := range view.Neighbors(u) {
			if s := graph.EdgeOrDefault(view, u, v).SpeedKPH; s > fastest {
				fastest = s
			}
		}
	}
	if fastest == 0 {
		return graph.DefaultSpeedKPH
	}
	return fastest
}
