package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/infra/roadgraph"
)

func TestVehicleValidate(t *testing.T) {
	var v Vehicle
	v.SetDefaults()
	require.NoError(t, v.Validate())
	assert.Equal(t, 100.0, v.Battery)

	tests := []Vehicle{
		{BatteryCapacity: 0, Battery: 1, ElectricConstant: 1},
		{BatteryCapacity: 10, Battery: 11, ElectricConstant: 1},
		{BatteryCapacity: 10, Battery: 0, ElectricConstant: 1},
		{BatteryCapacity: 10, Battery: 5, MinBattery: 10, ElectricConstant: 1},
		{BatteryCapacity: 10, Battery: 5},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.Validate(), ErrInvalidVehicle, "%+v", tt)
	}
}

func TestVehicleLedger(t *testing.T) {
	v := Vehicle{BatteryCapacity: 10, Battery: 10, MinBattery: 1, ElectricConstant: 1}
	v.ApplyLeg(7, 600)
	assert.InDelta(t, 3, v.Battery, 1e-9)
	assert.InDelta(t, 2, v.Budget(), 1e-9)

	secs := v.Recharge(5.5, 22)
	assert.InDelta(t, 8.5, v.Battery, 1e-9, "recharge adds to the current level")
	assert.InDelta(t, 5.5/22*3600, secs, 1e-9)
	assert.InDelta(t, 600+secs, v.TravelTimeS, 1e-9)
	assert.Equal(t, 1, v.RechargeCount)
	assert.Equal(t, []float64{5.5}, v.EnergyRecharged)

	v.Recharge(50, 22)
	assert.InDelta(t, 10, v.Battery, 1e-9)
	assert.InDelta(t, 1.5, v.EnergyRecharged[1], 1e-9)

	assert.Zero(t, v.Recharge(1, 22), "already full")
	assert.Equal(t, 2, v.RechargeCount)
}

func TestVehicleClone(t *testing.T) {
	v := Vehicle{EnergyRecharged: []float64{1}}
	c := v.Clone()
	c.EnergyRecharged[0] = 2
	assert.Equal(t, 1.0, v.EnergyRecharged[0])
}

func TestRechargeNeeded(t *testing.T) {
	g := roadgraph.New(false)
	g.SetPosition(0, graph.Point{})
	g.SetPosition(1, graph.Point{X: 10000})
	m := energy.Model{ElectricConstant: 0.01}
	// 10 km at 60 km/h with k=0.01 is 6.

	v := Vehicle{BatteryCapacity: 100, Battery: 20, MinBattery: 5}
	assert.InDelta(t, 5+6*1.1, v.RechargeNeeded(g, m, 0, 1, 0, 0.1), 1e-9)
	assert.InDelta(t, 5+30*1.2, v.RechargeNeeded(g, m, 0, 1, 30, 0.2), 1e-9)

	v.Battery = 80
	assert.InDelta(t, 20, v.RechargeNeeded(g, m, 0, 1, 30, 0.2), 1e-9, "capped at full")
}

func TestEnergyForLeg(t *testing.T) {
	g := roadgraph.New(false)
	require.NoError(t, g.AddEdge(0, 1, graph.EdgeAttrs{DistanceM: 2000, SpeedKPH: 60, TravelTimeS: 120}))
	require.NoError(t, g.AddEdge(1, 2, graph.EdgeAttrs{}))
	v := Vehicle{ElectricConstant: 0.5}
	e, secs := v.EnergyForLeg(g, energy.Model{ElectricConstant: v.ElectricConstant}, graph.Path{{From: 0, To: 1}, {From: 1, To: 2}})
	assert.InDelta(t, 0.5*2*60+0.5*0.01*50, e, 1e-9)
	assert.InDelta(t, 130, secs, 1e-9)
}
