package planner

import (
	"errors"
	"fmt"

	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/route"
)

var (
	// ErrNoRouteExists means the graph does not connect two waypoints.
	ErrNoRouteExists = errors.New("no route exists")
	// ErrEnergyInfeasible means a route exists but no sequence of reachable
	// charging stations fits the battery.
	ErrEnergyInfeasible = errors.New("energy infeasible")
	// ErrSearchBudgetExceeded means an expansion or iteration cap was hit.
	ErrSearchBudgetExceeded = errors.New("search budget exceeded")
	// ErrInvalidVehicle is returned for inconsistent vehicle parameters.
	ErrInvalidVehicle = model.ErrInvalidVehicle
	// ErrUnknownVertex is returned when start or goal is not in the graph.
	ErrUnknownVertex = route.ErrUnknownVertex
	// ErrNoStation is returned by the Locator when no station qualifies at
	// any relaxation level.
	ErrNoStation = errors.New("no reachable charging station")
)

// Kind classifies planning failures.
type Kind string

const (
	KindNoRoute          Kind = "no_route"
	KindEnergyInfeasible Kind = "energy_infeasible"
	KindBudgetExceeded   Kind = "budget_exceeded"
	KindInvalidInput     Kind = "invalid_input"
	KindCancelled        Kind = "cancelled"

	// KindInternal marks failures that are not a planning outcome.
	KindInternal Kind = "internal"
)

func (k Kind) sentinel() error {
	switch k {
	case KindNoRoute:
		return ErrNoRouteExists
	case KindEnergyInfeasible:
		return ErrEnergyInfeasible
	case KindBudgetExceeded:
		return ErrSearchBudgetExceeded
	}
	return nil
}

// PlanningError reports which leg failed and why. It matches both the
// sentinel of its Kind and the underlying error with errors.Is.
type PlanningError struct {
	Kind Kind
	Leg  int
	From graph.VertexID
	To   graph.VertexID
	Err  error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("plan leg %d (%d -> %d): %s: %v", e.Leg, e.From, e.To, e.Kind, e.Err)
}

func (e *PlanningError) Unwrap() []error {
	if s := e.Kind.sentinel(); s != nil {
		return []error{s, e.Err}
	}
	return []error{e.Err}
}

// KindOf returns the kind of a planning failure, or "" when err is not one.
func KindOf(err error) Kind {
	var pe *PlanningError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
