package metrics

import (
	"time"

	"github.com/kilianp07/railsim/core/model"
)

// ScheduleRecord describes one scheduling call.
type ScheduleRecord struct {
	TrainID          int
	Algorithm        string
	Events           int
	ConflictsAvoided int
	Skipped          int
	Latency          time.Duration
	Tick             int
	Time             time.Time
}

// MetricsSink records scheduling results for observability purposes.
type MetricsSink interface {
	RecordSchedule(rec ScheduleRecord) error
}

// ReservationEvent is emitted after a cleanup sweep of the reservation table.
type ReservationEvent struct {
	Tick      int
	Removed   int
	Remaining int
	Segments  int
	Time      time.Time
}

// ReservationRecorder records reservation table sizes.
type ReservationRecorder interface {
	RecordReservations(ev ReservationEvent) error
}

// SlotUnavailableEvent reports a segment left unscheduled.
type SlotUnavailableEvent struct {
	TrainID int
	Edge    string
	Cursor  int
	Time    time.Time
}

// SlotUnavailableRecorder records segments the scheduler gave up on.
type SlotUnavailableRecorder interface {
	RecordSlotUnavailable(ev SlotUnavailableEvent) error
}

// TripEvent is emitted when a train leaves a segment.
type TripEvent struct {
	TrainID   int
	Source    string
	Target    string
	StartTime int
	EndTime   int
	Tick      int
	Time      time.Time
}

// Duration returns the booked traversal time in ticks.
func (e TripEvent) Duration() int { return e.EndTime - e.StartTime }

// TripRecorder records completed segment traversals.
type TripRecorder interface {
	RecordTrip(ev TripEvent) error
}

// TrainStateEvent is a snapshot of a train.
type TrainStateEvent struct {
	Snapshot model.TrainSnapshot
	RunID    string
	Time     time.Time
}

// TrainStateRecorder records train snapshots.
type TrainStateRecorder interface {
	RecordTrainState(ev TrainStateEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSchedule(ScheduleRecord) error              { return nil }
func (NopSink) RecordReservations(ReservationEvent) error        { return nil }
func (NopSink) RecordSlotUnavailable(SlotUnavailableEvent) error { return nil }
func (NopSink) RecordTrip(TripEvent) error                       { return nil }
func (NopSink) RecordTrainState(TrainStateEvent) error           { return nil }
