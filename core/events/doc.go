// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - LegPlanned: a leg (direct or towards a station) was appended to a plan
//   - StationConsumed: the vehicle recharged at a station
//   - PlanFinished: a planning run ended, successfully or not
package events
