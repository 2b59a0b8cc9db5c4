package model

// TrainSnapshot is a read-only view of a train agent for display layers.
type TrainSnapshot struct {
	TrainID          int            `json:"train_id"`
	Status           string         `json:"status"`
	CurrentNode      string         `json:"current_node"`
	Position         Point          `json:"position"`
	Current          *ScheduleEvent `json:"current,omitempty"`
	Pending          int            `json:"pending"`
	TotalWait        int            `json:"total_wait"`
	JourneyTime      int            `json:"journey_time"`
	TripsCompleted   int            `json:"trips_completed"`
	DelayAccumulated int            `json:"delay_accumulated"`
	Tick             int            `json:"tick"`
}
