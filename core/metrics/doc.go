// Package metrics defines the sinks recording planning outcomes. Sinks like
// PromSink and InfluxSink (infra/metrics) record finished plans, legs and
// charging stops and can be combined with NewMultiSink. NewMetricsSink
// returns a MultiSink automatically when several sinks are configured.
package metrics
