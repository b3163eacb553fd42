// Package factory provides a small generic registry used to instantiate
// pluggable modules (heuristics, metric sinks) from configuration. A module is
// described by a type string and a map of raw settings; factories decode the
// settings into typed structs and return the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[heuristic.Builder]()
//	reg.Register("time_based", func(conf map[string]any) (heuristic.Builder, error) {
//	    var c struct{ SpeedKPH float64 `json:"speed_kph"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return func(v graph.View) heuristic.Func { return heuristic.TimeBased(v, c.SpeedKPH) }, nil
//	})
//	b, err := reg.Create(factory.ModuleConfig{Type: "time_based", Conf: map[string]any{"speed_kph": 60}})
package factory
