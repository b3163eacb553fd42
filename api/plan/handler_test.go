package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/roadgraph"
)

type mockPlanner struct{ mock.Mock }

func (m *mockPlanner) Plan(ctx context.Context, start, goal graph.VertexID, v model.Vehicle) (*planner.Plan, error) {
	args := m.Called(ctx, start, goal, v)
	p, _ := args.Get(0).(*planner.Plan)
	return p, args.Error(1)
}

func lineGraph(t *testing.T) *roadgraph.Graph {
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

func post(h http.Handler, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPlanHandler_RealPlanner(t *testing.T) {
	p, err := planner.New(lineGraph(t), planner.Config{}, energy.Config{})
	require.NoError(t, err)
	h := NewPlanHandler(p, model.Vehicle{BatteryCapacity: 3, Battery: 3, ElectricConstant: 1}, "secret", time.Second)

	rr := post(h, `{"from":0,"to":4}`, "secret")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got planner.Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, []graph.VertexID{0, 1, 2, 3, 4}, got.Vertices())
	require.Len(t, got.Stops, 1)

	rr = post(h, `{"from":4,"to":0}`, "secret")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var eb ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &eb))
	assert.Equal(t, planner.KindNoRoute, eb.Kind)

	rr = post(h, `{"from":0,"to":4}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPlanHandler_Mapping(t *testing.T) {
	base := model.Vehicle{ID: "default", BatteryCapacity: 10, Battery: 10, ElectricConstant: 1}
	override := model.Vehicle{ID: "mine", BatteryCapacity: 5, Battery: 5, ElectricConstant: 1}

	m := &mockPlanner{}
	m.On("Plan", mock.Anything, graph.VertexID(1), graph.VertexID(2), override).
		Return(nil, &planner.PlanningError{Kind: planner.KindBudgetExceeded, Err: errors.New("cap")}).Once()
	m.On("Plan", mock.Anything, graph.VertexID(1), graph.VertexID(3), base).
		Return(nil, errors.New("boom")).Once()
	h := NewPlanHandler(m, base, "", 0)

	rr := post(h, `{"from":1,"to":2,"vehicle":{"id":"mine","battery_capacity":5,"battery":5,"electric_constant":1}}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	rr = post(h, `{"from":1,"to":3}`, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	rr = post(h, `{"from":`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/plan", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	m.AssertExpectations(t)
}

func TestGraphStatsHandler(t *testing.T) {
	h := NewGraphStatsHandler(lineGraph(t), "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/graph/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var st roadgraph.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, roadgraph.Stats{Vertices: 5, Edges: 4, Stations: 1}, st)
}

func TestPlanHandler_RejectsOversizedBody(t *testing.T) {
	m := &mockPlanner{}
	h := NewPlanHandler(m, model.Vehicle{}, "", 0)

	body := `{"from":1,"to":2,"note":"` + strings.Repeat("x", maxRequestBytes) + `"}`
	rr := post(h, body, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var out ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, planner.KindInvalidInput, out.Kind)
	assert.Contains(t, out.Error, "too large")
	m.AssertNotCalled(t, "Plan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
