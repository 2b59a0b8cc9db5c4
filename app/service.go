package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/railsim/api/network"
	"github.com/kilianp07/railsim/config"
	coremetrics "github.com/kilianp07/railsim/core/metrics"
	"github.com/kilianp07/railsim/core/metrics/kpi"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/monitoring"
	"github.com/kilianp07/railsim/core/scheduler"
	"github.com/kilianp07/railsim/core/simulation"
	"github.com/kilianp07/railsim/infra/logger"
	"github.com/kilianp07/railsim/infra/metrics"
	inframon "github.com/kilianp07/railsim/infra/monitoring"
	"github.com/kilianp07/railsim/infra/mqtt"
	"github.com/kilianp07/railsim/internal/eventbus"
)

// Service wires the simulation engine to its observers and servers.
type Service struct {
	Engine    *simulation.Engine
	Scheduler *scheduler.Scheduler
	KPI       *kpi.MemoryStore

	cfg    *config.Config
	bus    *eventbus.Bus
	states *eventbus.TypedBus[model.TrainSnapshot]
	sink   coremetrics.MetricsSink
	pub    mqtt.Publisher
	log    logger.Logger
	reg    prometheus.Registerer
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher replaces the MQTT publisher built from the configuration.
func WithPublisher(p mqtt.Publisher) Option { return func(s *Service) { s.pub = p } }

// WithRegisterer registers the KPI gauges on reg instead of the default
// Prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) Option { return func(s *Service) { s.reg = reg } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:    cfg,
		bus:    eventbus.New(),
		states: eventbus.NewTyped[model.TrainSnapshot](),
		log:    logger.New("service"),
		reg:    prometheus.DefaultRegisterer,
	}
	for _, o := range opts {
		o(s)
	}
	monitoring.Init(inframon.NewLogMonitor(os.Stderr))

	net := cfg.Network.Build()
	sched, err := scheduler.New(net, cfg.Scheduler,
		scheduler.WithLogger(logger.New("scheduler")),
		scheduler.WithBus(s.bus))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	eng, err := simulation.New(net, sched, cfg.Routes, cfg.Simulation,
		simulation.WithLogger(logger.New("engine")),
		simulation.WithBus(s.bus),
		simulation.WithStateBus(s.states))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	s.Scheduler, s.Engine = sched, eng

	base, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	s.KPI = kpi.NewMemoryStore(cfg.Metrics.KPIWindow)
	kpiSink, err := metrics.NewKPISink(s.KPI, cfg.Metrics.KPIWindow, s.reg)
	if err != nil {
		return nil, fmt.Errorf("kpi sink: %w", err)
	}
	s.sink = coremetrics.NewMultiSink(base, kpiSink)

	if s.pub == nil && cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT, eng.RunID())
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		s.pub = pub
	}
	s.log.Infof("run %s: %d stations, %d routes", eng.RunID(), len(cfg.Network.Stations), len(cfg.Routes))
	return s, nil
}

// Run starts the collectors and servers, then drives the engine until it
// reaches max_ticks or ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	tags := map[string]string{"run_id": s.Engine.RunID()}
	defer monitoring.Flush(2 * time.Second)
	defer monitoring.Recover(tags)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.StartEventCollector(ctx, s.bus, s.sink)
	metrics.StartStateCollector(ctx, s.states, s.sink, s.Engine.RunID(), s.cfg.Metrics.StateEvery)
	if s.pub != nil {
		mqtt.StartForwarder(ctx, s.bus, s.states, s.pub, s.cfg.MQTT.StateEvery)
	}
	if s.cfg.API.Enabled {
		go func() {
			defer monitoring.Recover(map[string]string{"component": "api"})
			h := network.NewRouter(s.Engine, s.KPI)
			if err := network.Serve(ctx, s.cfg.API.Addr, h, logger.New("api")); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	if s.cfg.Metrics.PromAddr != "" {
		go func() {
			defer monitoring.Recover(map[string]string{"component": "prom"})
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PromAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	err := s.Engine.Run(ctx)
	if err != nil {
		monitoring.CaptureException(err, tags)
	}
	st := s.Engine.Stats()
	s.log.Infof("run %s stopped at tick %d: %d trips, %d routes, %d conflicts avoided",
		st.RunID, st.Tick, st.Trips, st.Scheduler.Routes, st.Scheduler.ConflictsAvoided)
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if d, ok := s.pub.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.bus.Close()
	s.states.Close()
	return nil
}
