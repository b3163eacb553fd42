package history

import (
	"errors"

	"github.com/kilianp07/evroute/core/factory"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

// init registers the "sqlite" metrics sink.
func init() {
	_ = coremetrics.RegisterMetricsSink("sqlite", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("sqlite sink: path is required")
		}
		return NewSQLiteStore(c.Path)
	})
}
