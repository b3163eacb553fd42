package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/evroute/core/events"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// StartEventCollector subscribes to the planner event bus and forwards events
// to the sink. Legs and charging stops reach the sink only if it implements
// the matching recorder. The returned channel is closed once the collector
// has stopped, which happens when ctx is cancelled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.SubscribeN(256)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) {
	now := time.Now()
	switch e := ev.(type) {
	case events.LegPlanned:
		if r, ok := sink.(coremetrics.LegRecorder); ok {
			_ = r.RecordLeg(coremetrics.LegEvent{
				PlanID:  e.PlanID,
				Kind:    string(e.Kind),
				Edges:   e.Edges,
				Energy:  e.Energy,
				Seconds: e.Seconds,
				Time:    now,
			})
		}
	case events.StationConsumed:
		if r, ok := sink.(coremetrics.ChargingStopRecorder); ok {
			_ = r.RecordChargingStop(coremetrics.ChargingStopEvent{
				PlanID:          e.PlanID,
				Station:         e.Station,
				Energy:          e.Energy,
				BatteryBefore:   e.BatteryBefore,
				BatteryAfter:    e.BatteryAfter,
				ChargingSeconds: e.ChargingSeconds,
				Time:            now,
			})
		}
	case events.PlanFinished:
		_ = sink.RecordPlan(coremetrics.PlanResult{
			PlanID:    e.PlanID,
			VehicleID: e.VehicleID,
			Start:     e.Start,
			Goal:      e.Goal,
			Strategy:  e.Strategy,
			Outcome:   e.Outcome,
			Recharges: e.Recharges,
			Expanded:  e.Expanded,
			Energy:    e.Energy,
			Duration:  e.Duration,
			Time:      now,
		})
	}
}
