package mqtt

import (
	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/planner"
)

// PlanRequest is the JSON payload published on the request topic.
type PlanRequest struct {
	// RequestID selects the response topic; one is generated when empty.
	RequestID string         `json:"request_id"`
	From      graph.VertexID `json:"from"`
	To        graph.VertexID `json:"to"`
	// Vehicle replaces the configured vehicle for this request.
	Vehicle *model.Vehicle `json:"vehicle,omitempty"`
}

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// PlanResponse is published on the response topic of the request.
type PlanResponse struct {
	RequestID string        `json:"request_id"`
	Status    string        `json:"status"`
	Kind      planner.Kind  `json:"kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Plan      *planner.Plan `json:"plan,omitempty"`
}
