package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
	coremon "github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/logger"
	"github.com/kilianp07/evroute/infra/roadgraph"
)

type recordMonitor struct {
	mu     sync.Mutex
	errs   []error
	tags   []map[string]string
	panics int
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}

func (r *recordMonitor) CapturePanic(_ any, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics++
	r.tags = append(r.tags, tags)
}

func (r *recordMonitor) Flush(time.Duration) {}

type plannerFunc func(ctx context.Context, start, goal graph.VertexID, v model.Vehicle) (*planner.Plan, error)

func (f plannerFunc) Plan(ctx context.Context, start, goal graph.VertexID, v model.Vehicle) (*planner.Plan, error) {
	return f(ctx, start, goal, v)
}

// line builds 0 -> 1 -> 2 -> 3 -> 4, one energy unit per edge for a vehicle
// with electric constant 1, with a charging station at 2.
func line(t *testing.T) *roadgraph.Graph {
	t.Helper()
	g := roadgraph.New(false)
	for i := 0; i < 5; i++ {
		g.SetPosition(graph.VertexID(i), graph.Point{X: float64(i) * 1000})
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, g.AddEdge(graph.VertexID(i), graph.VertexID(i+1), graph.EdgeAttrs{DistanceM: 1000, SpeedKPH: 1, TravelTimeS: 3600}))
	}
	g.SetStation(2, true)
	return g
}

func newService(t *testing.T, p Planner, v model.Vehicle) *PlanService {
	t.Helper()
	ids := 0
	return NewPlanService(Config{Broker: "tcp://localhost:1883"}, p, v,
		WithLogger(logger.NopLogger{}),
		WithRequestIDGenerator(func() string { ids++; return fmt.Sprintf("gen-%d", ids) }))
}

func TestHandle_PlansWithRealPlanner(t *testing.T) {
	p, err := planner.New(line(t), planner.Config{}, energy.Config{})
	require.NoError(t, err)
	svc := newService(t, p, model.Vehicle{BatteryCapacity: 3, Battery: 3, ElectricConstant: 1})

	resp := svc.Handle(context.Background(), []byte(`{"request_id":"r1","from":0,"to":4}`))
	require.Equal(t, StatusOK, resp.Status, resp.Error)
	assert.Equal(t, "r1", resp.RequestID)
	require.NotNil(t, resp.Plan)
	assert.Equal(t, []graph.VertexID{0, 1, 2, 3, 4}, resp.Plan.Vertices())
	require.Len(t, resp.Plan.Stops, 1)
	assert.Equal(t, graph.VertexID(2), resp.Plan.Stops[0].Station)
}

func TestHandle_RequestVehicleOverrides(t *testing.T) {
	p, err := planner.New(line(t), planner.Config{}, energy.Config{})
	require.NoError(t, err)
	svc := newService(t, p, model.Vehicle{BatteryCapacity: 3, Battery: 3, ElectricConstant: 1})

	resp := svc.Handle(context.Background(), []byte(`{"from":0,"to":4,"vehicle":{"battery_capacity":10,"battery":10,"min_battery":0,"electric_constant":1}}`))
	require.Equal(t, StatusOK, resp.Status, resp.Error)
	assert.Equal(t, "gen-1", resp.RequestID)
	assert.Empty(t, resp.Plan.Stops)
}

func TestHandle_FailuresAreReported(t *testing.T) {
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(nil) })

	p, err := planner.New(line(t), planner.Config{}, energy.Config{})
	require.NoError(t, err)
	svc := newService(t, p, model.Vehicle{BatteryCapacity: 1.5, Battery: 1.5, ElectricConstant: 1})

	resp := svc.Handle(context.Background(), []byte(`{"request_id":"r2","from":0,"to":4}`))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, planner.KindEnergyInfeasible, resp.Kind)
	assert.Nil(t, resp.Plan)

	resp = svc.Handle(context.Background(), []byte(`{"request_id":"r3","from":4,"to":0}`))
	assert.Equal(t, planner.KindNoRoute, resp.Kind)

	require.Len(t, mon.errs, 2)
	assert.Equal(t, map[string]string{"module": "mqtt", "request_id": "r2", "kind": "energy_infeasible"}, mon.tags[0])
	assert.Equal(t, "no_route", mon.tags[1]["kind"])
}

func TestHandle_InvalidPayload(t *testing.T) {
	svc := newService(t, plannerFunc(func(context.Context, graph.VertexID, graph.VertexID, model.Vehicle) (*planner.Plan, error) {
		t.Fatal("planner must not be called")
		return nil, nil
	}), model.Vehicle{})

	resp := svc.Handle(context.Background(), []byte(`{not json`))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, planner.KindInvalidInput, resp.Kind)
	assert.Equal(t, "gen-1", resp.RequestID)
}

func TestHandle_PanicAndInternalError(t *testing.T) {
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(nil) })

	svc := newService(t, plannerFunc(func(context.Context, graph.VertexID, graph.VertexID, model.Vehicle) (*planner.Plan, error) {
		panic("corrupt graph")
	}), model.Vehicle{})
	resp := svc.Handle(context.Background(), []byte(`{"request_id":"p","from":0,"to":1}`))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, planner.KindInternal, resp.Kind)
	assert.Equal(t, 1, mon.panics)
	assert.Empty(t, mon.errs)

	svc = newService(t, plannerFunc(func(context.Context, graph.VertexID, graph.VertexID, model.Vehicle) (*planner.Plan, error) {
		return nil, errors.New("disk on fire")
	}), model.Vehicle{})
	resp = svc.Handle(context.Background(), []byte(`{"request_id":"q","from":0,"to":1}`))
	assert.Equal(t, planner.KindInternal, resp.Kind)
	require.Len(t, mon.errs, 1)
}

func TestHandle_PlanTimeout(t *testing.T) {
	svc := NewPlanService(Config{PlanTimeoutMS: 5}, plannerFunc(func(ctx context.Context, _, _ graph.VertexID, _ model.Vehicle) (*planner.Plan, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), model.Vehicle{}, WithLogger(logger.NopLogger{}))
	resp := svc.Handle(context.Background(), []byte(`{"request_id":"slow","from":0,"to":1}`))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "deadline")
}

func TestPlanService_RequestResponseFlow(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	p, err := planner.New(line(t), planner.Config{}, energy.Config{})
	require.NoError(t, err)
	svc := newService(t, p, model.Vehicle{BatteryCapacity: 3, Battery: 3, ElectricConstant: 1})
	require.NoError(t, svc.Start(context.Background()))
	require.Len(t, mc.subscribed, 1)
	assert.Equal(t, "evroute/plan/request", mc.subscribed[0].topic)

	svc.onRequest(nil, mockMessage{[]byte(`{"request_id":"a","from":0,"to":4}`)})
	svc.onRequest(nil, mockMessage{[]byte(`{"request_id":"b","from":0,"to":2}`)})
	svc.Stop()

	byTopic := map[string]PlanResponse{}
	for _, m := range mc.sent() {
		var resp PlanResponse
		require.NoError(t, json.Unmarshal(m.payload, &resp))
		byTopic[m.topic] = resp
	}
	require.Len(t, byTopic, 2)
	assert.Len(t, byTopic["evroute/plan/response/a"].Plan.Stops, 1)
	assert.Empty(t, byTopic["evroute/plan/response/b"].Plan.Stops)
	assert.Equal(t, []string{"evroute/plan/request"}, mc.unsubscribed)

	// Requests after Stop are ignored.
	svc.onRequest(nil, mockMessage{[]byte(`{"request_id":"c","from":0,"to":4}`)})
	assert.Len(t, mc.sent(), 2)
}
