package graph

import "fmt"

// Metric selects the edge weight minimised by path searches.
type Metric string

const (
	// MetricDistance minimises the travelled length in metres.
	MetricDistance Metric = "distance"
	// MetricTime minimises the travel time in seconds.
	MetricTime Metric = "time"
)

// Cost returns the weight of an edge under the metric.
func (m Metric) Cost(a EdgeAttrs) float64 {
	a = a.WithDefaults()
	if m == MetricTime {
		return a.TravelTimeS
	}
	return a.DistanceM
}

// Validate checks the metric is known. The empty metric is accepted and
// behaves as MetricDistance.
func (m Metric) Validate() error {
	switch m {
	case "", MetricDistance, MetricTime:
		return nil
	}
	return fmt.Errorf("unknown metric %q", string(m))
}
