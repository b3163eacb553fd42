// Package plan exposes the planner over HTTP.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/logger"
	"github.com/kilianp07/evroute/infra/roadgraph"
)

// maxRequestBytes caps the size of a plan request body.
const maxRequestBytes = 1 << 20

// Planner computes plans. *planner.Planner implements it.
type Planner interface {
	Plan(ctx context.Context, start, goal graph.VertexID, v model.Vehicle) (*planner.Plan, error)
}

// Request is the body of POST /api/plan.
type Request struct {
	From    graph.VertexID `json:"from"`
	To      graph.VertexID `json:"to"`
	Vehicle *model.Vehicle `json:"vehicle,omitempty"`
}

// ErrorBody is returned with every non-2xx status.
type ErrorBody struct {
	Kind  planner.Kind `json:"kind,omitempty"`
	Error string       `json:"error"`
}

// NewPlanHandler returns an HTTP handler planning trips via POST /api/plan.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewPlanHandler(p Planner, vehicle model.Vehicle, token string, timeout time.Duration) http.Handler {
	return authorize(token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: planner.KindInvalidInput, Error: err.Error()})
			return
		}
		v := vehicle
		if req.Vehicle != nil {
			v = *req.Vehicle
		}
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res, err := p.Plan(ctx, req.From, req.To, v)
		if err != nil {
			writeJSON(w, statusOf(err), ErrorBody{Kind: planner.KindOf(err), Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}))
}

// NewGraphStatsHandler returns an HTTP handler exposing GET /api/graph/stats.
func NewGraphStatsHandler(g *roadgraph.Graph, token string) http.Handler {
	return authorize(token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, g.Stats())
	}))
}

// Serve exposes both handlers on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h, stats http.Handler, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/api/plan", h)
	mux.Handle("/api/graph/stats", stats)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving plan API on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func authorize(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func statusOf(err error) int {
	switch planner.KindOf(err) {
	case planner.KindInvalidInput:
		return http.StatusBadRequest
	case planner.KindNoRoute, planner.KindEnergyInfeasible:
		return http.StatusUnprocessableEntity
	case planner.KindBudgetExceeded:
		return http.StatusServiceUnavailable
	case planner.KindCancelled:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
