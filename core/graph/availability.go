package graph

import "sort"

// Availability tracks which charging stations have been used during one
// planning run. It never mutates the underlying View, so several runs can
// share the same graph.
type Availability struct {
	view     View
	consumed map[VertexID]struct{}
}

// NewAvailability returns an overlay where every station of view is available.
func NewAvailability(view View) *Availability {
	return &Availability{view: view, consumed: make(map[VertexID]struct{})}
}

// Available reports whether v is a charging station not yet used in this run.
func (a *Availability) Available(v VertexID) bool {
	if !a.view.IsChargingStation(v) {
		return false
	}
	_, used := a.consumed[v]
	return !used
}

// Consume marks the station v as unavailable for the rest of the run.
func (a *Availability) Consume(v VertexID) {
	a.consumed[v] = struct{}{}
}

// Stations returns the available stations in ascending order.
func (a *Availability) Stations() []VertexID {
	all := a.view.Stations()
	out := make([]VertexID, 0, len(all))
	for _, s := range all {
		if _, used := a.consumed[s]; !used {
			out = append(out, s)
		}
	}
	return out
}

// Consumed returns the stations used so far, in ascending order.
func (a *Availability) Consumed() []VertexID {
	out := make([]VertexID, 0, len(a.consumed))
	for v := range a.consumed {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
