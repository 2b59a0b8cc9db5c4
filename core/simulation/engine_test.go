package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/railsim/core/events"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/scheduler"
	"github.com/kilianp07/railsim/core/topology"
	"github.com/kilianp07/railsim/internal/eventbus"
)

func line() *topology.Network {
	n := topology.New()
	n.AddStation("A", 0, 0)
	n.AddStation("B", 300, 0)
	n.AddStation("C", 600, 0)
	n.AddTrack("A", "B")
	n.AddTrack("B", "C")
	return n
}

func newEngine(t *testing.T, routes []model.RouteConfig, cfg Config, opts ...Option) *Engine {
	t.Helper()
	net := line()
	s, err := scheduler.New(net, scheduler.DefaultConfig())
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	e, err := New(net, s, routes, cfg, opts...)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func noLoop() Config {
	cfg := DefaultConfig()
	cfg.Loop = false
	return cfg
}

func TestEngineRunsTwoTrains(t *testing.T) {
	routes := []model.RouteConfig{
		{TrainID: 1, Stops: []string{"A", "B"}},
		{TrainID: 2, Stops: []string{"A", "B"}},
	}
	e := newEngine(t, routes, noLoop())
	if err := e.Advance(200); err != nil {
		t.Fatalf("advance: %v", err)
	}
	trains := e.Trains()
	if len(trains) != 2 {
		t.Fatalf("expected 2 trains got %d", len(trains))
	}
	for _, tr := range trains {
		if tr.Status != "ARRIVED" || tr.CurrentNode != "B" || tr.TripsCompleted != 1 {
			t.Fatalf("unexpected train state %+v", tr)
		}
	}
	// train 2 is held until tick 80 by train 1
	if trains[1].TotalWait != 79 {
		t.Fatalf("expected train 2 to wait 79 ticks got %d", trains[1].TotalWait)
	}
	st := e.Stats()
	if st.Arrived != 2 || st.Trips != 2 || st.Tick != 200 || st.Scheduler.Routes != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.RunID == "" {
		t.Fatalf("missing run id")
	}
}

func TestEngineStartDelayAndPerRouteAlgorithm(t *testing.T) {
	routes := []model.RouteConfig{
		{TrainID: 1, Stops: []string{"A", "B"}},
		{TrainID: 2, Stops: []string{"A", "B"}, StartDelay: 5, Algorithm: "csp"},
	}
	e := newEngine(t, routes, noLoop())
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	rs := e.Reservations()[model.NewEdgeKey("A", "B")]
	// CSP probes from 5 in steps of 10 until it clears 60+15
	if len(rs) != 2 || rs[1].Start != 75 {
		t.Fatalf("expected second booking at 75 got %+v", rs)
	}
}

func TestEngineLoopsArrivedTrains(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	e := newEngine(t, []model.RouteConfig{{TrainID: 1, Stops: []string{"A", "B"}}}, DefaultConfig(), WithBus(bus))

	if err := e.Advance(61); err != nil {
		t.Fatalf("advance: %v", err)
	}
	snap := e.Trains()[0]
	if snap.TripsCompleted != 1 || snap.Pending != 2 || snap.CurrentNode != "B" {
		t.Fatalf("expected return trip queued %+v", snap)
	}

	var trip, arrived bool
	for i := 0; i < 2; i++ {
		switch ev := (<-sub).(type) {
		case events.TripCompleted:
			trip = ev.Event.Target == "B" && ev.Tick == 61
		case events.TrainArrived:
			arrived = ev.Station == "B"
		}
	}
	if !trip || !arrived {
		t.Fatalf("missing runtime events trip=%v arrived=%v", trip, arrived)
	}

	// the return leg waits for the headway behind the train's own booking
	if err := e.Advance(21); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s := e.Trains()[0]; s.Status != "MOVING" || s.Current == nil || s.Current.Target != "A" {
		t.Fatalf("expected train heading back to A %+v", s)
	}
}

func TestEngineRetriesEmptyReschedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryTicks = 10
	e := newEngine(t, []model.RouteConfig{{TrainID: 1, Stops: []string{"A", "B"}}}, cfg)
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	// cut the line so the return trip is unreachable
	e.Network().RemoveTrack("A", "B")
	if err := e.Advance(61); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s := e.Trains()[0]; s.Status != "ARRIVED" || s.Pending != 0 {
		t.Fatalf("expected train to stay arrived %+v", s)
	}
	e.Network().AddTrack("A", "B")
	if err := e.Advance(9); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s := e.Trains()[0]; s.Pending != 0 {
		t.Fatalf("rescheduled before the retry delay %+v", s)
	}
	if err := e.Advance(1); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s := e.Trains()[0]; s.Pending == 0 {
		t.Fatalf("expected reschedule at retry tick %+v", s)
	}
}

func TestEnginePublishesSnapshots(t *testing.T) {
	states := eventbus.NewTyped[model.TrainSnapshot]()
	defer states.Close()
	sub := states.Subscribe()
	e := newEngine(t, []model.RouteConfig{{TrainID: 7, Stops: []string{"A", "C"}}}, noLoop(), WithStateBus(states))
	if _, err := e.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	snap := <-sub
	if snap.TrainID != 7 || snap.Tick != 1 || snap.Status != "MOVING" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestEngineRunStopsAtMaxTicks(t *testing.T) {
	cfg := noLoop()
	cfg.TickIntervalMS = 1
	cfg.Speed = 10
	cfg.MaxTicks = 5
	e := newEngine(t, []model.RouteConfig{{TrainID: 1, Stops: []string{"A", "B"}}}, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if e.Now() != 5 {
		t.Fatalf("expected 5 ticks got %d", e.Now())
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := newEngine(t, []model.RouteConfig{{TrainID: 1, Stops: []string{"A", "B"}}}, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestEngineReset(t *testing.T) {
	e := newEngine(t, []model.RouteConfig{{TrainID: 1, Stops: []string{"A", "C"}}}, noLoop())
	if err := e.Advance(100); err != nil {
		t.Fatalf("advance: %v", err)
	}
	e.Reset()
	if e.Now() != 0 || len(e.Reservations()) != 0 {
		t.Fatalf("reset left state behind")
	}
	if s := e.Trains()[0]; s.CurrentNode != "A" || s.TripsCompleted != 0 || s.Position != (model.Point{}) {
		t.Fatalf("agent not reset %+v", s)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(e.Reservations()) != 2 {
		t.Fatalf("expected routes booked again")
	}
}

func TestNewEngineErrors(t *testing.T) {
	net := line()
	s, err := scheduler.New(net, scheduler.DefaultConfig())
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	dup := []model.RouteConfig{{TrainID: 1, Stops: []string{"A", "B"}}, {TrainID: 1, Stops: []string{"B", "C"}}}
	if _, err := New(net, s, dup, DefaultConfig()); !errors.Is(err, ErrDuplicateTrain) {
		t.Fatalf("expected ErrDuplicateTrain got %v", err)
	}
	short := []model.RouteConfig{{TrainID: 1, Stops: []string{"A"}}}
	if _, err := New(net, s, short, DefaultConfig()); err == nil {
		t.Fatalf("expected error for single stop route")
	}
	cfg := DefaultConfig()
	cfg.Speed = 0
	if _, err := New(net, s, nil, cfg); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestConfigInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickIntervalMS = 100
	cfg.Speed = 4
	if cfg.Interval() != 25*time.Millisecond {
		t.Fatalf("expected 25ms got %s", cfg.Interval())
	}
}
