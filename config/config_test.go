package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/planner"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `vehicle:
  id: "ev-7"
  battery_capacity: 60
  battery: 45
  min_battery: 6
  electric_constant: 0.05
energy:
  temperature_mode: "derate"
  ambient_temperature: 5
  recharge_policy: "desired"
planner:
  strategy: "energy"
  metric: "time"
  max_expansions: 100000
  locator:
    step: 0.05
    max_iterations: 30
graph:
  path: "roads.json"
  undirected: true
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "planner-1"
  qos:
    request: 1
api:
  addr: ":8080"
  token: "s3cret"
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
logging:
  level: "debug"
sentry:
  dsn: ""
  environment: "test"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"vehicle.id", cfg.Vehicle.ID, "ev-7"},
		{"vehicle.battery", cfg.Vehicle.Battery, 45.0},
		{"vehicle.min_battery", cfg.Vehicle.MinBattery, 6.0},
		{"energy.mode", cfg.Energy.TemperatureMode, energy.ModeDerate},
		{"energy.policy", cfg.Energy.RechargePolicy, energy.RechargeDesired},
		{"planner.strategy", cfg.Planner.Strategy, planner.StrategyEnergy},
		{"planner.metric", cfg.Planner.Metric, graph.MetricTime},
		{"planner.heuristic", cfg.Planner.Heuristic.Type, "min_travel_time"},
		{"planner.locator.step", cfg.Planner.Locator.Step, 0.05},
		{"planner.locator.floor", cfg.Planner.Locator.Floor, 0.2},
		{"graph.undirected", cfg.Graph.Undirected, true},
		{"mqtt.client_id", cfg.MQTT.ClientID, "planner-1"},
		{"mqtt.request_topic", cfg.MQTT.RequestTopic, "evroute/plan/request"},
		{"mqtt.qos.request", cfg.MQTT.QoS["request"], byte(1)},
		{"api.addr", cfg.API.Addr, ":8080"},
		{"api.timeout", cfg.API.Timeout(), 10 * time.Second},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics.sinks", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.format", cfg.Logging.Format, "json"},
		{"sentry.environment", cfg.Sentry.Environment, "test"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoad_JSONAndEnvOverride(t *testing.T) {
	path := writeFile(t, "config.json", `{"vehicle":{"battery_capacity":80},"graph":{"generate":{"vertices":12,"stations":3,"seed":9}}}`)
	t.Setenv("K_VEHICLE__MIN_BATTERY", "8")
	t.Setenv("K_PLANNER__STRATEGY", "energy")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Vehicle.BatteryCapacity)
	assert.Equal(t, 80.0, cfg.Vehicle.Battery)
	assert.Equal(t, 8.0, cfg.Vehicle.MinBattery)
	assert.Equal(t, planner.StrategyEnergy, cfg.Planner.Strategy)

	g, err := cfg.Graph.Build()
	require.NoError(t, err)
	assert.Equal(t, 12, g.Stats().Vertices)
	assert.Equal(t, 3, g.Stats().Stations)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.Vehicle.BatteryCapacity)
	assert.Equal(t, planner.StrategyAdaptive, cfg.Planner.Strategy)
	assert.Equal(t, 50, cfg.Graph.Generate.Vertices)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "vehicle:\n  battery_capacity: 10\n  battery: 20\n"))
	assert.ErrorContains(t, err, "vehicle")

	_, err = Load(writeFile(t, "bad.yaml", "planner:\n  strategy: greedy\n"))
	assert.ErrorContains(t, err, "planner")

	_, err = Load(writeFile(t, "bad.yaml", "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "logging")
}
