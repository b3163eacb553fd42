package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planning runs in Prometheus metrics.
type PromSink struct {
	plans     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	recharges prometheus.Histogram
	expanded  prometheus.Histogram
	legs      *prometheus.CounterVec
	charged   prometheus.Counter
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// The /metrics endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evroute_plans_total",
			Help: "Planning runs by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evroute_plan_duration_seconds",
			Help:    "Wall time of planning runs",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"strategy"}),
		recharges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evroute_plan_recharges",
			Help:    "Charging stops per successful plan",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		expanded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evroute_plan_expanded_nodes",
			Help:    "Search nodes expanded per planning run",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		}),
		legs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evroute_legs_total",
			Help: "Planned legs by kind",
		}, []string{"kind"}),
		charged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evroute_charged_energy_total",
			Help: "Energy added at charging stops",
		}),
	}
	var err error
	if s.plans, err = register(reg, s.plans); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.recharges, err = register(reg, s.recharges); err != nil {
		return nil, err
	}
	if s.expanded, err = register(reg, s.expanded); err != nil {
		return nil, err
	}
	if s.legs, err = register(reg, s.legs); err != nil {
		return nil, err
	}
	if s.charged, err = register(reg, s.charged); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan counts the run and observes its duration and size.
func (s *PromSink) RecordPlan(r coremetrics.PlanResult) error {
	s.plans.WithLabelValues(r.Strategy, r.Outcome).Inc()
	s.duration.WithLabelValues(r.Strategy).Observe(r.Duration.Seconds())
	s.expanded.Observe(float64(r.Expanded))
	if r.Outcome == "ok" {
		s.recharges.Observe(float64(r.Recharges))
	}
	return nil
}

// RecordLeg counts legs by kind.
func (s *PromSink) RecordLeg(ev coremetrics.LegEvent) error {
	s.legs.WithLabelValues(ev.Kind).Inc()
	return nil
}

// RecordChargingStop adds the charged energy.
func (s *PromSink) RecordChargingStop(ev coremetrics.ChargingStopEvent) error {
	if ev.Energy > 0 {
		s.charged.Add(ev.Energy)
	}
	return nil
}
