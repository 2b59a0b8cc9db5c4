package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/railsim/config"
	"github.com/kilianp07/railsim/core/factory"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/infra/mqtt"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Network = config.NetworkConfig{
		Stations: []config.StationConfig{{Name: "A"}, {Name: "B", X: 300}},
		Tracks:   []config.TrackConfig{{From: "A", To: "B"}},
	}
	cfg.Routes = []model.RouteConfig{
		{TrainID: 1, Stops: []string{"A", "B"}},
		{TrainID: 2, Stops: []string{"A", "B"}},
	}
	cfg.Simulation.TickIntervalMS = 1
	cfg.Simulation.Loop = false
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	return cfg
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestServiceRunsSimulation(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	svc, err := New(testConfig(), WithPublisher(pub), WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	eventually(t, func() bool {
		return pub.ScheduleCount(1) == 1 && pub.ScheduleCount(2) == 1
	})
	eventually(t, func() bool {
		recs, _ := svc.KPI.Query(2, 0, 1000)
		return len(recs) > 0 && recs[0].Trips == 1
	})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if st := svc.Engine.Stats(); st.Arrived != 2 || st.Trips != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if pub.StateCount() == 0 {
		t.Fatalf("expected state snapshots")
	}
}

func TestServiceStopsAtMaxTicks(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.MaxTicks = 20
	svc, err := New(cfg, WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = svc.Close() }()
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if now := svc.Engine.Now(); now != 20 {
		t.Fatalf("expected 20 ticks got %d", now)
	}
}

func TestServiceRejectsUnknownSink(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	if _, err := New(cfg, WithRegisterer(prometheus.NewRegistry())); err == nil {
		t.Fatal("expected error for unknown sink")
	}
}
