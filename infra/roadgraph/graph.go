package roadgraph

import (
	"fmt"
	"math"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kilianp07/evroute/core/graph"
)

// Graph implements graph.View on top of a gonum directed graph.
type Graph struct {
	g          *simple.WeightedDirectedGraph
	attrs      map[graph.Edge]graph.EdgeAttrs
	pos        map[graph.VertexID]graph.Point
	stations   map[graph.VertexID]struct{}
	geographic bool
}

var _ graph.View = (*Graph)(nil)

// New returns an empty road graph. geographic selects haversine distances
// between vertex positions instead of planar ones.
func New(geographic bool) *Graph {
	return &Graph{
		g:          simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		attrs:      make(map[graph.Edge]graph.EdgeAttrs),
		pos:        make(map[graph.VertexID]graph.Point),
		stations:   make(map[graph.VertexID]struct{}),
		geographic: geographic,
	}
}

// AddVertex adds v if it is not present yet.
func (r *Graph) AddVertex(v graph.VertexID) {
	if r.g.Node(int64(v)) == nil {
		r.g.AddNode(simple.Node(v))
	}
}

// SetPosition records the position of v, adding the vertex when needed.
func (r *Graph) SetPosition(v graph.VertexID, p graph.Point) {
	r.AddVertex(v)
	r.pos[v] = p
}

// SetStation flags or unflags v as a charging station.
func (r *Graph) SetStation(v graph.VertexID, station bool) {
	r.AddVertex(v)
	if station {
		r.stations[v] = struct{}{}
		return
	}
	delete(r.stations, v)
}

// AddEdge inserts the directed edge (u, v). Missing endpoints are created.
// Self loops are rejected.
func (r *Graph) AddEdge(u, v graph.VertexID, attrs graph.EdgeAttrs) error {
	if u == v {
		return fmt.Errorf("self loop on vertex %d", u)
	}
	r.AddVertex(u)
	r.AddVertex(v)
	w := attrs.WithDefaults().TravelTimeS
	r.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(u), T: simple.Node(v), W: w})
	r.attrs[graph.Edge{From: u, To: v}] = attrs
	return nil
}

// AddRoad inserts (u, v) and (v, u) with the same attributes.
func (r *Graph) AddRoad(u, v graph.VertexID, attrs graph.EdgeAttrs) error {
	if err := r.AddEdge(u, v, attrs); err != nil {
		return err
	}
	return r.AddEdge(v, u, attrs)
}

// HasVertex reports whether v belongs to the graph.
func (r *Graph) HasVertex(v graph.VertexID) bool { return r.g.Node(int64(v)) != nil }

// Vertices returns every vertex in ascending order.
func (r *Graph) Vertices() []graph.VertexID {
	return sortedIDs(r.g.Nodes())
}

// Neighbors returns the heads of the edges leaving v in ascending order.
func (r *Graph) Neighbors(v graph.VertexID) []graph.VertexID {
	return sortedIDs(r.g.From(int64(v)))
}

// Edge returns the attributes stored for (u, v).
func (r *Graph) Edge(u, v graph.VertexID) (graph.EdgeAttrs, bool) {
	a, ok := r.attrs[graph.Edge{From: u, To: v}]
	return a, ok
}

// IsChargingStation reports whether v is flagged as a station.
func (r *Graph) IsChargingStation(v graph.VertexID) bool {
	_, ok := r.stations[v]
	return ok
}

// Stations returns all charging stations in ascending order.
func (r *Graph) Stations() []graph.VertexID {
	out := make([]graph.VertexID, 0, len(r.stations))
	for v := range r.stations {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Position returns the recorded position of v.
func (r *Graph) Position(v graph.VertexID) (graph.Point, bool) {
	p, ok := r.pos[v]
	return p, ok
}

// Geographic reports whether positions are longitude/latitude pairs.
func (r *Graph) Geographic() bool { return r.geographic }

// Stats summarises the graph size.
type Stats struct {
	Vertices int `json:"vertices"`
	Edges    int `json:"edges"`
	Stations int `json:"stations"`
}

// Stats returns the number of vertices, directed edges and stations.
func (r *Graph) Stats() Stats {
	return Stats{Vertices: len(gonum.NodesOf(r.g.Nodes())), Edges: len(r.attrs), Stations: len(r.stations)}
}

func sortedIDs(it gonum.Nodes) []graph.VertexID {
	var out []graph.VertexID
	for it.Next() {
		out = append(out, graph.VertexID(it.Node().ID()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
