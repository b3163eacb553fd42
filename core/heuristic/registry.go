package heuristic

import (
	"github.com/kilianp07/evroute/core/factory"
	"github.com/kilianp07/evroute/core/graph"
)

// Builder binds a heuristic to a graph.
type Builder func(view graph.View) Func

var registry = factory.NewRegistry[Builder]()

// Register adds a named heuristic factory.
func Register(name string, f factory.Factory[Builder]) error {
	return registry.Register(name, f)
}

// New builds the heuristic described by cfg for view. An empty type selects
// the straight-line heuristic.
func New(cfg factory.ModuleConfig, view graph.View) (Func, error) {
	if cfg.Type == "" {
		cfg.Type = "straight_line"
	}
	b, err := registry.Create(cfg)
	if err != nil {
		return nil, err
	}
	return b(view), nil
}

type speedConf struct {
	SpeedKPH float64 `json:"speed_kph"`
}

func init() {
	_ = Register("zero", func(map[string]any) (Builder, error) {
		return func(graph.View) Func { return Zero() }, nil
	})
	_ = Register("straight_line", func(map[string]any) (Builder, error) {
		return StraightLine, nil
	})
	_ = Register("min_travel_time", func(conf map[string]any) (Builder, error) {
		var c speedConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return func(v graph.View) Func { return MinTravelTime(v, c.SpeedKPH) }, nil
	})
	_ = Register("time_based", func(conf map[string]any) (Builder, error) {
		var c speedConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return func(v graph.View) Func { return TimeBased(v, c.SpeedKPH) }, nil
	})
	_ = Register("shortest_time", func(map[string]any) (Builder, error) {
		return ShortestTime, nil
	})
}
