package roadgraph

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/kilianp07/evroute/core/graph"
)

// GenerateConfig parametrises a random planar road network.
type GenerateConfig struct {
	Vertices int     `json:"vertices"`
	Degree   int     `json:"degree"`
	Stations int     `json:"stations"`
	ExtentM  float64 `json:"extent_m"`
	Seed     uint64  `json:"seed"`
}

// SetDefaults fills unset fields.
func (c *GenerateConfig) SetDefaults() {
	if c.Vertices == 0 {
		c.Vertices = 50
	}
	if c.Degree == 0 {
		c.Degree = 3
	}
	if c.ExtentM == 0 {
		c.ExtentM = 20000
	}
}

// Validate checks the configuration is usable.
func (c GenerateConfig) Validate() error {
	if c.Vertices < 2 {
		return errors.New("vertices must be at least 2")
	}
	if c.Stations < 0 || c.Stations > c.Vertices {
		return errors.New("stations must be between 0 and vertices")
	}
	if c.ExtentM <= 0 {
		return errors.New("extent_m must be positive")
	}
	return nil
}

var roadSpeeds = []float64{30, 50, 70, 90}

// Generate builds a connected undirected road network with random vertex
// positions. Every vertex is linked to its nearest predecessor, which keeps
// the graph connected, and then to its Degree nearest neighbours. The same
// seed always yields the same graph.
func Generate(cfg GenerateConfig) (*Graph, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	g := New(false)
	pts := make([]graph.Point, cfg.Vertices)
	for i := range pts {
		pts[i] = graph.Point{X: rng.Float64() * cfg.ExtentM, Y: rng.Float64() * cfg.ExtentM}
		g.SetPosition(graph.VertexID(i), pts[i])
	}

	linked := make(map[[2]int]bool)
	link := func(a, b int) error {
		if a == b {
			return nil
		}
		key := [2]int{min(a, b), max(a, b)}
		if linked[key] {
			return nil
		}
		linked[key] = true
		length := math.Hypot(pts[a].X-pts[b].X, pts[a].Y-pts[b].Y) * (1 + rng.Float64()*0.2)
		speed := roadSpeeds[rng.IntN(len(roadSpeeds))]
		attrs := graph.EdgeAttrs{
			DistanceM:   length,
			SpeedKPH:    speed,
			TravelTimeS: length / 1000 / speed * 3600,
		}
		return g.AddRoad(graph.VertexID(a), graph.VertexID(b), attrs)
	}

	for i := 1; i < cfg.Vertices; i++ {
		nearest := 0
		for j := 1; j < i; j++ {
			if dist2(pts[i], pts[j]) < dist2(pts[i], pts[nearest]) {
				nearest = j
			}
		}
		if err := link(i, nearest); err != nil {
			return nil, err
		}
	}
	for i := range pts {
		order := make([]int, 0, len(pts)-1)
		for j := range pts {
			if j != i {
				order = append(order, j)
			}
		}
		sort.Slice(order, func(a, b int) bool {
			return dist2(pts[i], pts[order[a]]) < dist2(pts[i], pts[order[b]])
		})
		for k := 0; k < cfg.Degree && k < len(order); k++ {
			if err := link(i, order[k]); err != nil {
				return nil, err
			}
		}
	}
	for _, v := range rng.Perm(cfg.Vertices)[:cfg.Stations] {
		g.SetStation(graph.VertexID(v), true)
	}
	return g, nil
}

func dist2(a, b graph.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
