//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/logger"
)

// TestPlanServiceWithMosquitto runs the service against a real broker.
func TestPlanServiceWithMosquitto(t *testing.T) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:1.6",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	p, err := planner.New(line(t), planner.Config{}, energy.Config{})
	require.NoError(t, err)
	svc := NewPlanService(Config{Broker: broker, ClientID: "evroute-it", QoS: map[string]byte{"request": 1, "response": 1}}, p,
		model.Vehicle{BatteryCapacity: 3, Battery: 3, ElectricConstant: 1}, WithLogger(logger.NopLogger{}))
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("evroute-it-client")
	cli := paho.NewClient(opts)
	token := cli.Connect()
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())
	defer cli.Disconnect(250)

	got := make(chan PlanResponse, 1)
	token = cli.Subscribe(svc.ResponseTopic("it-1"), 1, func(_ paho.Client, m paho.Message) {
		var resp PlanResponse
		if json.Unmarshal(m.Payload(), &resp) == nil {
			got <- resp
		}
	})
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())

	token = cli.Publish("evroute/plan/request", 1, false, []byte(`{"request_id":"it-1","from":0,"to":4}`))
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())

	select {
	case resp := <-got:
		require.Equal(t, StatusOK, resp.Status, resp.Error)
		assert.Len(t, resp.Plan.Stops, 1)
	case <-time.After(10 * time.Second):
		t.Fatal("no response received")
	}
}
