package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/infra/logger"
)

// InfluxSink writes planning runs to an InfluxDB instance using the official
// client. Every run becomes a route_plan point and every recharge a
// charging_stop point.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes one route_plan point.
func (s *InfluxSink) RecordPlan(r coremetrics.PlanResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("route_plan").
		AddTag("plan_id", r.PlanID).
		AddTag("strategy", r.Strategy).
		AddTag("outcome", r.Outcome)
	if r.VehicleID != "" {
		p = p.AddTag("vehicle_id", r.VehicleID)
	}
	p = p.AddField("start", int64(r.Start)).
		AddField("goal", int64(r.Goal)).
		AddField("recharges", r.Recharges).
		AddField("expanded", r.Expanded).
		AddField("energy", round3(r.Energy)).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000)).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordChargingStop writes one charging_stop point.
func (s *InfluxSink) RecordChargingStop(ev coremetrics.ChargingStopEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charging_stop").
		AddTag("plan_id", ev.PlanID).
		AddTag("station", strconv.FormatInt(int64(ev.Station), 10)).
		AddField("energy", round3(ev.Energy)).
		AddField("battery_before", round3(ev.BatteryBefore)).
		AddField("battery_after", round3(ev.BatteryAfter)).
		AddField("charging_s", round3(ev.ChargingSeconds)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
