package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bodyRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, strings.TrimSpace(string(data)))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordPlan(t *testing.T) {
	rec := &bodyRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	res := coremetrics.PlanResult{
		PlanID:    "p1",
		VehicleID: "car",
		Start:     1,
		Goal:      9,
		Strategy:  "adaptive",
		Outcome:   "ok",
		Recharges: 2,
		Expanded:  41,
		Energy:    12.34567,
		Duration:  1500 * time.Microsecond,
		Time:      now,
	}
	require.NoError(t, sink.RecordPlan(res))

	p := write.NewPointWithMeasurement("route_plan").
		AddTag("plan_id", "p1").
		AddTag("strategy", "adaptive").
		AddTag("outcome", "ok").
		AddTag("vehicle_id", "car").
		AddField("start", int64(1)).
		AddField("goal", int64(9)).
		AddField("recharges", 2).
		AddField("expanded", 41).
		AddField("energy", 12.346).
		AddField("duration_ms", 1.5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, exp, rec.bodies[0])
}

func TestInfluxSink_RecordChargingStop(t *testing.T) {
	rec := &bodyRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.ChargingStopEvent{
		PlanID:          "p1",
		Station:         4,
		Energy:          30,
		BatteryBefore:   25,
		BatteryAfter:    55,
		ChargingSeconds: 4909.0909,
		Time:            now,
	}
	require.NoError(t, sink.RecordChargingStop(ev))

	p := write.NewPointWithMeasurement("charging_stop").
		AddTag("plan_id", "p1").
		AddTag("station", "4").
		AddField("energy", 30.0).
		AddField("battery_before", 25.0).
		AddField("battery_after", 55.0).
		AddField("charging_s", 4909.091).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, exp, rec.bodies[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
