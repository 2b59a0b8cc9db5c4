package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/railsim/core/events"
	"github.com/kilianp07/railsim/core/logger"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/reservation"
	"github.com/kilianp07/railsim/internal/eventbus"
)

// ErrUnknownAlgorithm is returned when no slot finder is configured for the
// requested algorithm.
var ErrUnknownAlgorithm = errors.New("unknown scheduling algorithm")

// Topology supplies paths and segment durations.
type Topology interface {
	ShortestPath(start, end string) []string
	Weight(u, v string) (int, bool)
}

// Result is the outcome of one scheduling call.
type Result struct {
	TrainID          int
	Algorithm        model.Algorithm
	Events           []model.ScheduleEvent
	ConflictsAvoided int
	// Skipped lists segments left unscheduled because no slot was found
	// within the search bound.
	Skipped []model.EdgeKey
	Elapsed time.Duration
}

// ElapsedMS returns the wall clock duration in milliseconds.
func (r Result) ElapsedMS() float64 { return float64(r.Elapsed) / float64(time.Millisecond) }

// Scheduler books segment reservations for train routes.
type Scheduler struct {
	mu      sync.Mutex
	cfg     Config
	topo    Topology
	table   *reservation.Table
	finders map[model.Algorithm]SlotFinder
	log     logger.Logger
	bus     eventbus.EventBus
	now     int
	stats   Stats
	latency *latencyWindow
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBus publishes scheduling events on bus.
func WithBus(bus eventbus.EventBus) Option {
	return func(s *Scheduler) { s.bus = bus }
}

// WithTable uses an existing reservation table instead of a new one.
func WithTable(t *reservation.Table) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.table = t
		}
	}
}

// New returns a Scheduler working on topo.
func New(topo Topology, cfg Config, opts ...Option) (*Scheduler, error) {
	if topo == nil {
		return nil, errors.New("scheduler: nil topology")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler config: %w", err)
	}
	s := &Scheduler{
		cfg:     cfg,
		topo:    topo,
		finders: defaultFinders(),
		log:     logger.NopLogger{},
		latency: newLatencyWindow(cfg.LatencyWindow),
	}
	for _, o := range opts {
		o(s)
	}
	if s.table == nil {
		s.table = reservation.NewTable(reservation.WithGrace(cfg.CleanupGrace))
	}
	for _, m := range cfg.Strategies {
		alg, err := model.ParseAlgorithm(m.Type)
		if err != nil {
			return nil, err
		}
		f, err := NewSlotFinder(m)
		if err != nil {
			return nil, err
		}
		s.finders[alg] = f
	}
	return s, nil
}

// Config returns the scheduler configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// ScheduleRoute books every leg of stops starting at start. Unreachable
// legs are skipped and a dwell time is added after every booked leg.
// Fewer than two stops yield an empty result.
func (s *Scheduler) ScheduleRoute(trainID int, stops []string, color model.Color, start int, mode model.Algorithm) (Result, error) {
	return s.schedule(trainID, stops, color, start, mode, s.cfg.Margin, s.cfg.DwellTicks)
}

// ScheduleLeg books a single leg using the leg margin.
func (s *Scheduler) ScheduleLeg(trainID int, from, to string, color model.Color, start int, mode model.Algorithm) (Result, error) {
	return s.schedule(trainID, []string{from, to}, color, start, mode, s.cfg.LegMargin, 0)
}

func (s *Scheduler) schedule(trainID int, stops []string, color model.Color, start int, mode model.Algorithm, margin, dwell int) (Result, error) {
	t0 := time.Now()
	res := Result{TrainID: trainID, Algorithm: mode}

	s.mu.Lock()
	defer s.mu.Unlock()
	finder, ok := s.finders[mode]
	if !ok {
		return res, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(mode))
	}
	if len(stops) < 2 {
		res.Elapsed = time.Since(t0)
		return res, nil
	}

	cursor := start
	for i := 0; i+1 < len(stops); i++ {
		path := s.topo.ShortestPath(stops[i], stops[i+1])
		if len(path) < 2 {
			s.log.Debugf("train %d: leg %s -> %s unreachable, skipped", trainID, stops[i], stops[i+1])
			continue
		}
		cursor = s.bookPath(&res, finder, path, cursor, color, margin)
		cursor += dwell
	}
	res.Elapsed = time.Since(t0)

	s.record(res)
	s.log.Debugw("route scheduled", map[string]any{
		"train_id":          trainID,
		"algorithm":         mode.String(),
		"events":            len(res.Events),
		"conflicts_avoided": res.ConflictsAvoided,
		"skipped":           len(res.Skipped),
		"elapsed_ms":        res.ElapsedMS(),
	})
	s.publish(events.RouteScheduled{
		TrainID:          trainID,
		Algorithm:        mode,
		Events:           res.Events,
		ConflictsAvoided: res.ConflictsAvoided,
		Skipped:          len(res.Skipped),
		Latency:          res.Elapsed,
		Tick:             s.now,
	})
	return res, nil
}

// bookPath books consecutive segments of path and returns the cursor after
// the last booked segment.
func (s *Scheduler) bookPath(res *Result, finder SlotFinder, path []string, cursor int, color model.Color, margin int) int {
	for j := 0; j+1 < len(path); j++ {
		u, v := path[j], path[j+1]
		w, ok := s.topo.Weight(u, v)
		if !ok {
			s.skip(res, u, v, cursor)
			continue
		}
		slot := finder.FindSlot(s.table, u, v, cursor, w, margin)
		res.ConflictsAvoided += slot.Retries
		if !slot.Found {
			s.skip(res, u, v, cursor)
			continue
		}
		s.book(u, v, slot.Start, slot.Start+w, res.TrainID, margin)
		res.Events = append(res.Events, model.ScheduleEvent{
			TrainID:   res.TrainID,
			Source:    u,
			Target:    v,
			StartTime: slot.Start,
			EndTime:   slot.Start + w,
			Color:     color,
		})
		cursor = slot.Start + w
	}
	return cursor
}

func (s *Scheduler) skip(res *Result, u, v string, cursor int) {
	key := model.NewEdgeKey(u, v)
	res.Skipped = append(res.Skipped, key)
	s.log.Warnf("train %d: no slot on %s from tick %d, segment left unscheduled", res.TrainID, key, cursor)
	s.publish(events.SlotUnavailable{TrainID: res.TrainID, Edge: key, Cursor: cursor})
}

// book reserves a slot returned by a SlotFinder. A conflict here means the
// finder returned an occupied slot, which is a programming error.
func (s *Scheduler) book(u, v string, start, end, trainID, margin int) {
	if !s.table.TryReserve(u, v, start, end, trainID, margin) {
		panic(fmt.Sprintf("scheduler: %v on %s for train %d [%d,%d]",
			reservation.ErrDoubleBooking, model.NewEdgeKey(u, v), trainID, start, end))
	}
}

func (s *Scheduler) record(res Result) {
	s.stats.Routes++
	s.stats.Events += len(res.Events)
	s.stats.ConflictsAvoided += res.ConflictsAvoided
	s.stats.SkippedEdges += len(res.Skipped)
	s.stats.LastLatency = res.Elapsed
	s.latency.add(res.Elapsed)
}

func (s *Scheduler) publish(ev eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// Tick informs the scheduler of the simulation time and runs the cleanup
// sweep every CleanupInterval ticks.
func (s *Scheduler) Tick(now int) {
	s.mu.Lock()
	s.now = now
	interval := s.cfg.CleanupInterval
	s.mu.Unlock()
	if interval > 0 && now > 0 && now%interval == 0 {
		s.CleanupOldReservations(now)
	}
}

// CleanupOldReservations removes intervals that ended before now minus the
// grace window and returns how many were removed.
func (s *Scheduler) CleanupOldReservations(now int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.table.Cleanup(now)
	s.stats.Pruned += removed
	remaining := s.table.Len()
	segments := len(s.table.Keys())
	s.log.Debugf("cleanup at tick %d removed %d intervals, %d remain on %d segments", now, removed, remaining, segments)
	s.publish(events.ReservationsPruned{Tick: now, Removed: removed, Remaining: remaining, Segments: segments})
	return removed
}

// Reset clears every reservation and counter.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Reset()
	s.stats = Stats{}
	s.latency.reset()
	s.now = 0
}

// Reservations returns a copy of the reservation table.
func (s *Scheduler) Reservations() map[model.EdgeKey][]model.Reservation {
	return s.table.Snapshot()
}

// Table exposes the underlying reservation table for read access.
func (s *Scheduler) Table() *reservation.Table { return s.table }

// Validate checks the reservation table for double bookings under the
// smaller of the configured margins.
func (s *Scheduler) Validate() error {
	m := s.cfg.Margin
	if s.cfg.LegMargin < m {
		m = s.cfg.LegMargin
	}
	return s.table.Validate(m)
}

// Stats returns the cumulative counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.ActiveIntervals = s.table.Len()
	st.MeanLatency, st.P95Latency = s.latency.summary()
	return st
}
