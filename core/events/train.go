package events

import "github.com/kilianp07/railsim/core/model"

// TripCompleted is published when a train leaves a segment.
type TripCompleted struct {
	Event model.ScheduleEvent
	Tick  int
}

// TrainArrived is published when a train has no queued events left.
type TrainArrived struct {
	TrainID int
	Station string
	Tick    int
}
