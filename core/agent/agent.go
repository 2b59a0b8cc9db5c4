// Package agent consumes scheduled events and tracks where each train is.
package agent

import (
	"github.com/kilianp07/railsim/core/model"
)

// Status is the runtime state of a train.
type Status int

const (
	StatusWaiting Status = iota
	StatusMoving
	StatusDelayed
	StatusArrived
)

// String returns the upper-case name used in snapshots and the API.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusMoving:
		return "MOVING"
	case StatusDelayed:
		return "DELAYED"
	case StatusArrived:
		return "ARRIVED"
	default:
		return "UNKNOWN"
	}
}

// Positions resolves station coordinates.
type Positions interface {
	Position(name string) (model.Point, bool)
}

// Update reports what happened to an agent during one tick.
type Update struct {
	Completed []model.ScheduleEvent
	// Arrived is true on the tick the agent ran out of events.
	Arrived bool
}

// TrainAgent follows the events booked for one train. It is not safe for
// concurrent use; the simulation engine owns it.
type TrainAgent struct {
	id      int
	color   model.Color
	node    string
	dwell   int
	queue   ring[model.ScheduleEvent]
	current *model.ScheduleEvent
	pos     model.Point
	status  Status
	lastEnd int
	hasLast bool
	now     int

	totalWait   int
	journeyTime int
	trips       int
	delay       int
}

// Option configures a TrainAgent.
type Option func(*TrainAgent)

// WithDwell sets the scheduled stop time after which a waiting train is
// considered delayed.
func WithDwell(ticks int) Option {
	return func(a *TrainAgent) {
		if ticks >= 0 {
			a.dwell = ticks
		}
	}
}

// New returns an agent waiting at station start.
func New(id int, color model.Color, start string, opts ...Option) *TrainAgent {
	a := &TrainAgent{id: id, color: color, node: start, dwell: 5}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ID returns the train id.
func (a *TrainAgent) ID() int { return a.id }

// Color returns the display color of the train.
func (a *TrainAgent) Color() model.Color { return a.color }

// CurrentNode returns the last station the train reached.
func (a *TrainAgent) CurrentNode() string { return a.node }

// Status returns the state computed by the last Tick.
func (a *TrainAgent) Status() Status { return a.status }

// Position returns the interpolated coordinates of the train.
func (a *TrainAgent) Position() model.Point { return a.pos }

// Pending returns the number of queued events, excluding the current one.
func (a *TrainAgent) Pending() int { return a.queue.Len() }

// Enqueue appends events to the agent's queue in order.
func (a *TrainAgent) Enqueue(evs ...model.ScheduleEvent) {
	for _, ev := range evs {
		a.queue.Push(ev)
	}
	if len(evs) > 0 && a.status == StatusArrived {
		a.status = StatusWaiting
	}
}

// Tick advances the agent to time now.
func (a *TrainAgent) Tick(now int, positions Positions) Update {
	var up Update
	a.now = now
	wasArrived := a.status == StatusArrived
	for {
		if a.current == nil {
			head, ok := a.queue.Peek()
			if !ok || head.StartTime > now {
				break
			}
			a.queue.Pop()
			a.current = &head
		}
		if now <= a.current.EndTime {
			a.move(now, positions)
			return up
		}
		a.complete(positions)
		up.Completed = append(up.Completed, *a.current)
		a.current = nil
	}

	if a.queue.Len() == 0 {
		a.status = StatusArrived
		up.Arrived = !wasArrived
		return up
	}
	a.totalWait++
	if a.hasLast && now > a.lastEnd+a.dwell {
		a.status = StatusDelayed
		a.delay++
	} else {
		a.status = StatusWaiting
	}
	return up
}

func (a *TrainAgent) move(now int, positions Positions) {
	ev := a.current
	a.status = StatusMoving
	a.journeyTime++
	frac := 1.0
	if d := ev.EndTime - ev.StartTime; d > 0 {
		frac = float64(now-ev.StartTime) / float64(d)
	}
	from, _ := positions.Position(ev.Source)
	to, _ := positions.Position(ev.Target)
	a.pos = from.Lerp(to, clamp(frac))
}

func (a *TrainAgent) complete(positions Positions) {
	ev := a.current
	a.node = ev.Target
	a.trips++
	a.lastEnd = ev.EndTime
	a.hasLast = true
	if p, ok := positions.Position(ev.Target); ok {
		a.pos = p
	}
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Reset clears the queue and statistics and places the agent at start.
func (a *TrainAgent) Reset(start string, positions Positions) {
	a.queue.Clear()
	a.current = nil
	a.node = start
	a.status = StatusWaiting
	a.hasLast = false
	a.lastEnd = 0
	a.now = 0
	a.totalWait, a.journeyTime, a.trips, a.delay = 0, 0, 0, 0
	a.pos = model.Point{}
	if positions != nil {
		if p, ok := positions.Position(start); ok {
			a.pos = p
		}
	}
}

// Place sets the position to the current station without touching the
// queue. It is used once the topology is known.
func (a *TrainAgent) Place(positions Positions) {
	if p, ok := positions.Position(a.node); ok {
		a.pos = p
	}
}

// Queue returns a copy of the pending events.
func (a *TrainAgent) Queue() []model.ScheduleEvent { return a.queue.Items() }

// Snapshot returns a read-only view of the agent.
func (a *TrainAgent) Snapshot() model.TrainSnapshot {
	s := model.TrainSnapshot{
		TrainID:          a.id,
		Status:           a.status.String(),
		CurrentNode:      a.node,
		Position:         a.pos,
		Pending:          a.queue.Len(),
		TotalWait:        a.totalWait,
		JourneyTime:      a.journeyTime,
		TripsCompleted:   a.trips,
		DelayAccumulated: a.delay,
		Tick:             a.now,
	}
	if a.current != nil {
		ev := *a.current
		s.Current = &ev
	}
	return s
}
