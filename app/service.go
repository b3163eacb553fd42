// Package app wires the configuration into a running planner.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/evroute/api/plan"
	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/events"
	"github.com/kilianp07/evroute/core/graph"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	coremon "github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/planner"
	_ "github.com/kilianp07/evroute/infra/history" // sqlite sink
	"github.com/kilianp07/evroute/infra/logger"
	"github.com/kilianp07/evroute/infra/metrics"
	"github.com/kilianp07/evroute/infra/monitoring"
	"github.com/kilianp07/evroute/infra/mqtt"
	"github.com/kilianp07/evroute/infra/roadgraph"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// Service owns the road graph, the planner and the metrics pipeline.
type Service struct {
	Planner *planner.Planner
	Graph   *roadgraph.Graph

	cfg       *config.Config
	bus       *eventbus.Bus[events.Event]
	sink      coremetrics.MetricsSink
	log       logger.Logger
	stopCol   context.CancelFunc
	collected <-chan struct{}
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Setup(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	coremon.Init(mon)

	g, err := cfg.Graph.Build()
	if err != nil {
		return nil, err
	}
	st := g.Stats()
	logg.Infof("road graph: %d vertices, %d edges, %d stations", st.Vertices, st.Edges, st.Stations)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New[events.Event]()
	p, err := planner.New(g, cfg.Planner, cfg.Energy,
		planner.WithLogger(logger.New("planner")),
		planner.WithEventBus(bus))
	if err != nil {
		_ = coremetrics.CloseSink(sink)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		Planner:   p,
		Graph:     g,
		cfg:       cfg,
		bus:       bus,
		sink:      sink,
		log:       logg,
		stopCol:   cancel,
		collected: metrics.StartEventCollector(ctx, bus, sink),
	}
	return svc, nil
}

// Plan plans a trip for the configured vehicle.
func (s *Service) Plan(ctx context.Context, from, to graph.VertexID) (*planner.Plan, error) {
	plan, err := s.Planner.Plan(ctx, from, to, s.cfg.Vehicle)
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "planner", "kind": string(planner.KindOf(err))})
	}
	return plan, err
}

// Run serves MQTT plan requests, the optional HTTP API and the Prometheus
// endpoint until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, nil, logger.New("prometheus")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if api := s.cfg.API; api.Addr != "" {
		h := plan.NewPlanHandler(s.Planner, s.cfg.Vehicle, api.Token, api.Timeout())
		stats := plan.NewGraphStatsHandler(s.Graph, api.Token)
		go func() {
			if err := plan.Serve(ctx, api.Addr, h, stats, logger.New("api")); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	svc := mqtt.NewPlanService(s.cfg.MQTT, s.Planner, s.cfg.Vehicle, mqtt.WithLogger(logger.New("mqtt_plan_service")))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	svc.Stop()
	return nil
}

// Close drains the event bus into the sinks and flushes error reports.
func (s *Service) Close() error {
	s.bus.Close()
	select {
	case <-s.collected:
	case <-time.After(2 * time.Second):
		s.log.Warnf("metrics collector did not drain in time")
	}
	s.stopCol()
	if err := coremetrics.CloseSink(s.sink); err != nil {
		s.log.Errorf("metrics sink close: %v", err)
	}
	if d := s.bus.Dropped(); d > 0 {
		s.log.Warnf("%d planner events dropped", d)
	}
	coremon.Flush(2 * time.Second)
	return logger.Close()
}
