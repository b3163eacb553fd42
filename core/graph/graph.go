package graph

// VertexID identifies a vertex of the road network.
type VertexID int64

// Default edge attributes used when the source data is incomplete.
const (
	DefaultDistanceM   = 10.0
	DefaultSpeedKPH    = 50.0
	DefaultTravelTimeS = 10.0
)

// EdgeAttrs holds the physical attributes of a directed road segment.
type EdgeAttrs struct {
	DistanceM   float64 `json:"length" yaml:"length"`
	SpeedKPH    float64 `json:"speed_kph" yaml:"speed_kph"`
	TravelTimeS float64 `json:"travel_time" yaml:"travel_time"`
}

// WithDefaults returns a copy where every missing (non-positive) attribute is
// replaced by its default value.
func (a EdgeAttrs) WithDefaults() EdgeAttrs {
	if a.DistanceM <= 0 {
		a.DistanceM = DefaultDistanceM
	}
	if a.SpeedKPH <= 0 {
		a.SpeedKPH = DefaultSpeedKPH
	}
	if a.TravelTimeS <= 0 {
		a.TravelTimeS = DefaultTravelTimeS
	}
	return a
}

// Edge is a directed arc between two vertices.
type Edge struct {
	From VertexID `json:"from"`
	To   VertexID `json:"to"`
}

// Path is an ordered sequence of edges from a start vertex to a goal.
type Path []Edge

// Vertices returns the visited vertices in order, including both endpoints.
// An empty path yields nil.
func (p Path) Vertices() []VertexID {
	if len(p) == 0 {
		return nil
	}
	out := make([]VertexID, 0, len(p)+1)
	out = append(out, p[0].From)
	for _, e := range p {
		out = append(out, e.To)
	}
	return out
}

// Point is a vertex position. For geographic graphs X is the longitude and Y
// the latitude in degrees; otherwise both are planar coordinates in metres.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// View is the read-only access the planner needs on a road network.
// Implementations must return neighbours and stations in ascending order so
// searches stay deterministic.
type View interface {
	HasVertex(v VertexID) bool
	Vertices() []VertexID
	Neighbors(v VertexID) []VertexID
	// Edge returns the raw attributes of (u, v). Callers apply WithDefaults.
	Edge(u, v VertexID) (EdgeAttrs, bool)
	IsChargingStation(v VertexID) bool
	Stations() []VertexID
	Position(v VertexID) (Point, bool)
	// Geographic reports whether positions are longitude/latitude pairs.
	Geographic() bool
}

// EdgeOrDefault returns the attributes of (u, v) with defaults applied. A
// missing edge yields the default attributes.
func EdgeOrDefault(g View, u, v VertexID) EdgeAttrs {
	a, _ := g.Edge(u, v)
	return a.WithDefaults()
}
