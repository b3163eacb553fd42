package energy

import "github.com/kilianp07/evroute/core/graph"

type label struct {
	battery float64
	cost    float64
}

// labels keeps, per vertex, the states not dominated by another state with
// at least as much battery reached at no greater cost.
type labels map[graph.VertexID][]label

// admit records (battery, cost) at v and reports whether it is undominated.
// Labels dominated by the new one are discarded.
func (l labels) admit(v graph.VertexID, battery, cost float64) bool {
	cur := l[v]
	for _, o := range cur {
		if o.battery >= battery && o.cost <= cost {
			return false
		}
	}
	kept := cur[:0]
	for _, o := range cur {
		if battery >= o.battery && cost <= o.cost {
			continue
		}
		kept = append(kept, o)
	}
	l[v] = append(kept, label{battery: battery, cost: cost})
	return true
}
