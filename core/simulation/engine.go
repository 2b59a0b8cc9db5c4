// Package simulation drives the logical clock: it books the configured
// routes, advances train agents tick by tick and reschedules trains that
// reached the end of their route.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/railsim/core/agent"
	"github.com/kilianp07/railsim/core/events"
	"github.com/kilianp07/railsim/core/logger"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/scheduler"
	"github.com/kilianp07/railsim/core/topology"
	"github.com/kilianp07/railsim/internal/eventbus"
)

// ErrDuplicateTrain is returned when two routes share a train id.
var ErrDuplicateTrain = errors.New("duplicate train id")

// Stats summarises the engine state.
type Stats struct {
	RunID     string          `json:"run_id"`
	Tick      int             `json:"tick"`
	Trains    int             `json:"trains"`
	Moving    int             `json:"moving"`
	Waiting   int             `json:"waiting"`
	Delayed   int             `json:"delayed"`
	Arrived   int             `json:"arrived"`
	Trips     int             `json:"trips"`
	Scheduler scheduler.Stats `json:"scheduler"`
}

type train struct {
	route   model.RouteConfig
	alg     model.Algorithm
	agent   *agent.TrainAgent
	retryAt int
}

// Engine owns the topology, the scheduler and the train agents.
type Engine struct {
	mu      sync.RWMutex
	cfg     Config
	net     *topology.Network
	sched   *scheduler.Scheduler
	trains  []*train
	now     int
	started bool
	runID   string

	bus    eventbus.EventBus
	states *eventbus.TypedBus[model.TrainSnapshot]
	log    logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithBus publishes runtime events on bus.
func WithBus(bus eventbus.EventBus) Option { return func(e *Engine) { e.bus = bus } }

// WithStateBus publishes a snapshot of every train after each tick.
func WithStateBus(b *eventbus.TypedBus[model.TrainSnapshot]) Option {
	return func(e *Engine) { e.states = b }
}

// New returns an engine for routes. Routes are booked in the given order
// when the engine starts.
func New(net *topology.Network, sched *scheduler.Scheduler, routes []model.RouteConfig, cfg Config, opts ...Option) (*Engine, error) {
	if net == nil || sched == nil {
		return nil, errors.New("simulation: network and scheduler are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulation config: %w", err)
	}
	def, _ := model.ParseAlgorithm(cfg.Algorithm)
	e := &Engine{cfg: cfg, net: net, sched: sched, log: logger.NopLogger{}, runID: uuid.NewString()}
	for _, o := range opts {
		o(e)
	}
	seen := make(map[int]struct{}, len(routes))
	for _, r := range routes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[r.TrainID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateTrain, r.TrainID)
		}
		seen[r.TrainID] = struct{}{}
		alg := def
		if r.Algorithm != "" {
			alg, _ = model.ParseAlgorithm(r.Algorithm)
		}
		a := agent.New(r.TrainID, r.Color, r.Stops[0], agent.WithDwell(sched.Config().DwellTicks))
		a.Place(net)
		e.trains = append(e.trains, &train{route: r, alg: alg, agent: a})
	}
	return e, nil
}

// RunID identifies this engine instance in published data.
func (e *Engine) RunID() string { return e.runID }

// Start books every route at its start delay. Calling it twice is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	if e.started {
		return nil
	}
	for _, tr := range e.trains {
		res, err := e.sched.ScheduleRoute(tr.route.TrainID, tr.route.Stops, tr.route.Color, e.now+tr.route.StartDelay, tr.alg)
		if err != nil {
			return fmt.Errorf("train %d: %w", tr.route.TrainID, err)
		}
		tr.agent.Enqueue(res.Events...)
		e.log.Infof("train %d scheduled: %d segments, %d conflicts avoided", tr.route.TrainID, len(res.Events), res.ConflictsAvoided)
	}
	e.started = true
	return nil
}

// Tick advances the clock by one and returns the new time.
func (e *Engine) Tick() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.startLocked(); err != nil {
		return e.now, err
	}
	e.now++
	now := e.now
	e.sched.Tick(now)
	for _, tr := range e.trains {
		up := tr.agent.Tick(now, e.net)
		for _, ev := range up.Completed {
			e.publish(events.TripCompleted{Event: ev, Tick: now})
		}
		if up.Arrived {
			e.publish(events.TrainArrived{TrainID: tr.route.TrainID, Station: tr.agent.CurrentNode(), Tick: now})
			tr.retryAt = now
		}
		if e.cfg.Loop && tr.agent.Status() == agent.StatusArrived && now >= tr.retryAt {
			if err := e.reschedule(tr, now); err != nil {
				return now, err
			}
		}
		if e.states != nil {
			e.states.Publish(tr.agent.Snapshot())
		}
	}
	return now, nil
}

// reschedule books the route again starting from the station the train is
// standing at.
func (e *Engine) reschedule(tr *train, now int) error {
	stops := tr.route.Stops
	if node := tr.agent.CurrentNode(); node != stops[0] {
		stops = append([]string{node}, stops...)
	}
	res, err := e.sched.ScheduleRoute(tr.route.TrainID, stops, tr.route.Color, now, tr.alg)
	if err != nil {
		return fmt.Errorf("reschedule train %d: %w", tr.route.TrainID, err)
	}
	if len(res.Events) == 0 {
		tr.retryAt = now + e.cfg.RetryTicks
		e.log.Warnf("train %d: nothing could be booked from %s, retrying at tick %d", tr.route.TrainID, stops[0], tr.retryAt)
		return nil
	}
	tr.agent.Enqueue(res.Events...)
	return nil
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// Advance runs n ticks without pacing.
func (e *Engine) Advance(n int) error {
	if err := e.Start(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if _, err := e.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Run ticks at the configured pace until ctx is cancelled or MaxTicks is
// reached.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(); err != nil {
		return err
	}
	e.log.Infof("simulation %s running, tick every %s", e.runID, e.cfg.Interval())
	ticker := time.NewTicker(e.cfg.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now, err := e.Tick()
			if err != nil {
				return err
			}
			if e.cfg.MaxTicks > 0 && now >= e.cfg.MaxTicks {
				e.log.Infof("simulation %s reached tick %d", e.runID, now)
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Reset clears reservations, agents and the clock. The next Start books the
// routes again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sched.Reset()
	e.now = 0
	e.started = false
	for _, tr := range e.trains {
		tr.agent.Reset(tr.route.Stops[0], e.net)
		tr.retryAt = 0
	}
}

// Now returns the current tick.
func (e *Engine) Now() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.now
}

// Trains returns a snapshot of every train ordered by id.
func (e *Engine) Trains() []model.TrainSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]model.TrainSnapshot, 0, len(e.trains))
	for _, tr := range e.trains {
		out = append(out, tr.agent.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainID < out[j].TrainID })
	return out
}

// Reservations returns a copy of the reservation table.
func (e *Engine) Reservations() map[model.EdgeKey][]model.Reservation {
	return e.sched.Reservations()
}

// Network returns the topology the engine runs on.
func (e *Engine) Network() *topology.Network { return e.net }

// Stats returns counters for the current run.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := Stats{RunID: e.runID, Tick: e.now, Trains: len(e.trains), Scheduler: e.sched.Stats()}
	for _, tr := range e.trains {
		snap := tr.agent.Snapshot()
		st.Trips += snap.TripsCompleted
		switch tr.agent.Status() {
		case agent.StatusMoving:
			st.Moving++
		case agent.StatusWaiting:
			st.Waiting++
		case agent.StatusDelayed:
			st.Delayed++
		case agent.StatusArrived:
			st.Arrived++
		}
	}
	return st
}
