// Package graph defines the read-only road network view consumed by the
// planner: vertices, directed edges annotated with distance, speed and
// traversal time, and the subset of vertices flagged as charging stations.
//
// Station availability during a planning run is tracked by Availability, an
// overlay owned by the run, so the underlying View is never mutated.
package graph
