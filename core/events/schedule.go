package events

import (
	"time"

	"github.com/kilianp07/railsim/core/model"
)

// RouteScheduled is published after every route or leg scheduling call.
type RouteScheduled struct {
	TrainID          int
	Algorithm        model.Algorithm
	Events           []model.ScheduleEvent
	ConflictsAvoided int
	Skipped          int
	Latency          time.Duration
	Tick             int
}

// SlotUnavailable is published when no slot was found for a segment within
// the search bound. The segment is left unscheduled.
type SlotUnavailable struct {
	TrainID int
	Edge    model.EdgeKey
	Cursor  int
}

// ReservationsPruned is published after a cleanup sweep.
type ReservationsPruned struct {
	Tick      int
	Removed   int
	Remaining int
	Segments  int
}
