package metrics

import "errors"

// MultiSink fans records out to several sinks. Optional recorders are only
// forwarded to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the result to all sinks and joins their errors.
func (m *MultiSink) RecordPlan(res PlanResult) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordPlan(res))
	}
	return errors.Join(errs...)
}

// RecordLeg forwards leg events.
func (m *MultiSink) RecordLeg(ev LegEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(LegRecorder); ok {
			errs = append(errs, rec.RecordLeg(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordChargingStop forwards charging stops.
func (m *MultiSink) RecordChargingStop(ev ChargingStopEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ChargingStopRecorder); ok {
			errs = append(errs, rec.RecordChargingStop(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks holding resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, CloseSink(s))
	}
	return errors.Join(errs...)
}

// CloseSink releases the resources held by s, if any.
func CloseSink(s MetricsSink) error {
	switch c := s.(type) {
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}
