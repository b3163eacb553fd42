package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/evroute/core/graph"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/logger"
)

// Planner computes plans. *planner.Planner implements it.
type Planner interface {
	Plan(ctx context.Context, start, goal graph.VertexID, v model.Vehicle) (*planner.Plan, error)
}

// PlanService answers plan requests received over MQTT. Each request is
// planned in its own goroutine, at most MaxConcurrent at a time, and the
// response is published on the request's response topic.
type PlanService struct {
	cfg     Config
	planner Planner
	vehicle model.Vehicle
	log     logger.Logger
	newID   func() string

	cli    pahoClient
	sem    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// ServiceOption configures a PlanService.
type ServiceOption func(*PlanService)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) ServiceOption {
	return func(s *PlanService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRequestIDGenerator sets the generator used for requests without id.
func WithRequestIDGenerator(f func() string) ServiceOption {
	return func(s *PlanService) { s.newID = f }
}

// NewPlanService creates a service planning with p for vehicle v unless a
// request carries its own vehicle.
func NewPlanService(cfg Config, p Planner, v model.Vehicle, opts ...ServiceOption) *PlanService {
	cfg.SetDefaults()
	s := &PlanService{
		cfg:     cfg,
		planner: p,
		vehicle: v,
		log:     logger.New("mqtt_plan_service"),
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.sem = make(chan struct{}, cfg.MaxConcurrent)
	return s
}

// Start connects to the broker and subscribes to the request topic. Requests
// in flight are cancelled with ctx.
func (s *PlanService) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	cli, err := connect(s.cfg, s.cfg.RequestTopic, s.onRequest, s.log)
	if err != nil {
		s.cancel()
		return fmt.Errorf("mqtt connect: %w", err)
	}
	s.cli = cli
	s.log.Infof("listening for plan requests on %s", s.cfg.RequestTopic)
	return nil
}

// Stop unsubscribes, waits for the requests in flight and disconnects.
func (s *PlanService) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.cli != nil {
		if token := s.cli.Unsubscribe(s.cfg.RequestTopic); token.Wait() && token.Error() != nil {
			s.log.Warnf("unsubscribe: %v", token.Error())
		}
	}
	s.wg.Wait()
	if s.cancel != nil {
		s.cancel()
	}
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}

// ResponseTopic returns the topic the response to requestID is published on.
func (s *PlanService) ResponseTopic(requestID string) string {
	return s.cfg.ResponsePrefix + "/" + requestID
}

func (s *PlanService) onRequest(_ paho.Client, msg paho.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		select {
		case s.sem <- struct{}{}:
		case <-s.ctx.Done():
			return
		}
		defer func() { <-s.sem }()
		s.respond(s.Handle(s.ctx, payload))
	}()
}

func (s *PlanService) respond(resp PlanResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Errorf("encode response %s: %v", resp.RequestID, err)
		return
	}
	topic := s.ResponseTopic(resp.RequestID)
	if err := publish(s.cli, s.cfg, topic, data, s.log); err != nil {
		monitoring.CaptureException(err, map[string]string{"module": "mqtt", "request_id": resp.RequestID})
		return
	}
	s.log.Debugw("response published", map[string]any{"topic": topic, "status": resp.Status})
}

// Handle decodes a request payload, plans it and builds the response. It does
// not touch the broker.
func (s *PlanService) Handle(ctx context.Context, payload []byte) PlanResponse {
	var req PlanRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		resp := PlanResponse{RequestID: s.newID(), Status: StatusError, Kind: planner.KindInvalidInput, Error: fmt.Sprintf("decode request: %v", err)}
		s.log.Warnf("request %s: %s", resp.RequestID, resp.Error)
		return resp
	}
	if req.RequestID == "" {
		req.RequestID = s.newID()
	}
	v := s.vehicle
	if req.Vehicle != nil {
		v = *req.Vehicle
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.PlanTimeoutMS)*time.Millisecond)
	defer cancel()
	tags := map[string]string{"module": "mqtt", "request_id": req.RequestID}
	var plan *planner.Plan
	err := monitoring.Safe(tags, func() error {
		var err error
		plan, err = s.planner.Plan(ctx, req.From, req.To, v)
		return err
	})
	if err != nil {
		kind := planner.KindOf(err)
		if kind == "" {
			kind = planner.KindInternal
		}
		if !errors.Is(err, monitoring.ErrPanic) {
			tags["kind"] = string(kind)
			monitoring.CaptureException(err, tags)
		}
		s.log.Warnf("request %s %d -> %d: %v", req.RequestID, req.From, req.To, err)
		return PlanResponse{RequestID: req.RequestID, Status: StatusError, Kind: kind, Error: err.Error()}
	}
	s.log.Infof("request %s %d -> %d planned with %d recharges", req.RequestID, req.From, req.To, len(plan.Stops))
	return PlanResponse{RequestID: req.RequestID, Status: StatusOK, Plan: plan}
}
