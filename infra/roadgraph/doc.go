// Package roadgraph provides the in-memory road network used by the planner.
// Topology is stored in a gonum weighted directed graph (weights are travel
// times) while edge attributes, positions and charging stations are kept in
// side tables. Graphs are read from node-link JSON or YAML documents and can
// be generated randomly for tests and demos.
package roadgraph
