package graph

import "math"

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance in kilometres between two
// longitude/latitude points.
func HaversineKM(a, b Point) float64 {
	lat1 := a.Y * math.Pi / 180
	lat2 := b.Y * math.Pi / 180
	dlat := lat2 - lat1
	dlon := (b.X - a.X) * math.Pi / 180
	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// StraightLineKM returns the straight-line distance between two vertices in
// kilometres: haversine on geographic graphs, Euclidean on planar ones.
// Vertices without a position are at distance zero, which keeps heuristics
// built on it admissible.
func StraightLineKM(g View, a, b VertexID) float64 {
	if a == b {
		return 0
	}
	pa, ok := g.Position(a)
	if !ok {
		return 0
	}
	pb, ok := g.Position(b)
	if !ok {
		return 0
	}
	if g.Geographic() {
		return HaversineKM(pa, pb)
	}
	return math.Hypot(pb.X-pa.X, pb.Y-pa.Y) / 1000
}
