package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/evroute/core/events"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/metrics"
	"github.com/kilianp07/evroute/infra/roadgraph"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// RunScenario plans every trip of sc with each strategy and checks the
// outcome, the charging stations used and the Prometheus plan counter.
func RunScenario(t *testing.T, sc *Scenario) {
	g, err := roadgraph.FromDocument(sc.Graph, roadgraph.LoadOptions{})
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	strategies := sc.Strategies
	if len(strategies) == 0 {
		strategies = []string{string(planner.StrategyAdaptive), string(planner.StrategyEnergy)}
	}
	for _, s := range strategies {
		t.Run(s, func(t *testing.T) {
			runStrategy(t, sc, g, planner.Strategy(s))
		})
	}
}

func runStrategy(t *testing.T, sc *Scenario, g *roadgraph.Graph, strategy planner.Strategy) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.New[events.Event]()
	done := metrics.StartEventCollector(context.Background(), bus, sink)

	p, err := planner.New(g, planner.Config{Strategy: strategy}, sc.Energy.ToConfig(), planner.WithEventBus(bus))
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	v := sc.Vehicle.ToModel()
	for _, trip := range sc.Trips {
		plan, err := p.Plan(context.Background(), trip.From, trip.To, v)
		outcome := "ok"
		if err != nil {
			outcome = string(planner.KindOf(err))
		}
		if outcome != trip.Expected.Outcome {
			t.Errorf("%d -> %d: expected outcome %s, got %s (%v)", trip.From, trip.To, trip.Expected.Outcome, outcome, err)
			continue
		}
		if plan == nil {
			continue
		}
		var stations []graph.VertexID
		for _, st := range plan.Stops {
			stations = append(stations, st.Station)
		}
		if !equalIDs(stations, trip.Expected.Stations) {
			t.Errorf("%d -> %d: expected stations %v, got %v", trip.From, trip.To, trip.Expected.Stations, stations)
		}
		if len(trip.Expected.Vertices) > 0 && !equalIDs(plan.Vertices(), trip.Expected.Vertices) {
			t.Errorf("%d -> %d: expected route %v, got %v", trip.From, trip.To, trip.Expected.Vertices, plan.Vertices())
		}
	}
	bus.Close()
	<-done

	if got := countPlans(t, reg); got != len(sc.Trips) {
		t.Errorf("expected %d plans recorded, got %d", len(sc.Trips), got)
	}
}

func countPlans(t *testing.T, reg *prometheus.Registry) int {
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != "evroute_plans_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return int(total)
}

func equalIDs(a, b []graph.VertexID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
