// Package infra contains technical adapters: the gonum road graph, the MQTT
// planning service, metrics sinks, the SQLite run history, Sentry reporting
// and the zerolog logger.
// These packages should depend only on the interfaces defined in the core
// packages.
package infra
