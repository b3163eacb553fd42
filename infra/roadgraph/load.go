package roadgraph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evroute/core/graph"
)

// Document is the node-link representation of a road network, compatible
// with the JSON produced by networkx node_link_data. Either "links" or
// "edges" may carry the edge list.
type Document struct {
	Directed   bool      `json:"directed" yaml:"directed"`
	Geographic bool      `json:"geographic" yaml:"geographic"`
	Nodes      []NodeDoc `json:"nodes" yaml:"nodes"`
	Links      []LinkDoc `json:"links,omitempty" yaml:"links,omitempty"`
	Edges      []LinkDoc `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// NodeDoc describes a vertex. The position is read from x/y or, when absent,
// from the two-element pos array.
type NodeDoc struct {
	ID              int64     `json:"id" yaml:"id"`
	X               *float64  `json:"x,omitempty" yaml:"x,omitempty"`
	Y               *float64  `json:"y,omitempty" yaml:"y,omitempty"`
	Pos             []float64 `json:"pos,omitempty" yaml:"pos,omitempty"`
	ChargingStation bool      `json:"charging_station" yaml:"charging_station"`
}

// LinkDoc describes an edge and its optional attributes.
type LinkDoc struct {
	Source     int64   `json:"source" yaml:"source"`
	Target     int64   `json:"target" yaml:"target"`
	Length     float64 `json:"length,omitempty" yaml:"length,omitempty"`
	SpeedKPH   float64 `json:"speed_kph,omitempty" yaml:"speed_kph,omitempty"`
	TravelTime float64 `json:"travel_time,omitempty" yaml:"travel_time,omitempty"`
}

// LoadOptions alters how a document becomes a Graph.
type LoadOptions struct {
	// Undirected adds the reverse of every edge even for directed documents.
	Undirected bool `json:"undirected"`
}

// Load reads a graph file. The format is selected by the file extension:
// .json, .yaml or .yml.
func Load(path string, opts LoadOptions) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Decode(f, format, opts)
}

// Decode reads a document in the given format ("json", "yaml" or "yml").
func Decode(r io.Reader, format string, opts LoadOptions) (*Graph, error) {
	var doc Document
	switch strings.ToLower(format) {
	case "json":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode graph: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode graph: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported graph format: %s", format)
	}
	return FromDocument(doc, opts)
}

// FromDocument builds a Graph from a decoded document.
func FromDocument(doc Document, opts LoadOptions) (*Graph, error) {
	g := New(doc.Geographic)
	for _, n := range doc.Nodes {
		id := graph.VertexID(n.ID)
		g.AddVertex(id)
		switch {
		case n.X != nil && n.Y != nil:
			g.SetPosition(id, graph.Point{X: *n.X, Y: *n.Y})
		case len(n.Pos) == 2:
			g.SetPosition(id, graph.Point{X: n.Pos[0], Y: n.Pos[1]})
		case len(n.Pos) != 0:
			return nil, fmt.Errorf("node %d: pos must have two coordinates", n.ID)
		}
		if n.ChargingStation {
			g.SetStation(id, true)
		}
	}
	links := doc.Links
	if len(links) == 0 {
		links = doc.Edges
	}
	both := opts.Undirected || !doc.Directed
	for _, l := range links {
		attrs := graph.EdgeAttrs{DistanceM: l.Length, SpeedKPH: l.SpeedKPH, TravelTimeS: l.TravelTime}
		u, v := graph.VertexID(l.Source), graph.VertexID(l.Target)
		var err error
		if both {
			err = g.AddRoad(u, v, attrs)
		} else {
			err = g.AddEdge(u, v, attrs)
		}
		if err != nil {
			return nil, fmt.Errorf("link %d->%d: %w", l.Source, l.Target, err)
		}
	}
	return g, nil
}

// ToDocument exports g as a directed node-link document.
func ToDocument(g *Graph) Document {
	doc := Document{Directed: true, Geographic: g.Geographic()}
	for _, v := range g.Vertices() {
		n := NodeDoc{ID: int64(v), ChargingStation: g.IsChargingStation(v)}
		if p, ok := g.Position(v); ok {
			x, y := p.X, p.Y
			n.X, n.Y = &x, &y
		}
		doc.Nodes = append(doc.Nodes, n)
		for _, w := range g.Neighbors(v) {
			a, _ := g.Edge(v, w)
			doc.Links = append(doc.Links, LinkDoc{
				Source: int64(v), Target: int64(w),
				Length: a.DistanceM, SpeedKPH: a.SpeedKPH, TravelTime: a.TravelTimeS,
			})
		}
	}
	return doc
}

// Write encodes g as indented node-link JSON.
func Write(w io.Writer, g *Graph) error {
	return Encode(w, "json", g)
}

// Encode writes g in the given format ("json", "yaml" or "yml").
func Encode(w io.Writer, format string, g *Graph) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ToDocument(g))
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ToDocument(g)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported graph format %q", format)
}
