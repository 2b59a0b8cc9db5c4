package kpi

// Record aggregates service indicators for one train over a tick window.
type Record struct {
	TrainID     int `json:"train_id"`
	Window      int `json:"window"`
	Trips       int `json:"trips"`
	TravelTicks int `json:"travel_ticks"`
	Retries     int `json:"retries"`
	Schedules   int `json:"schedules"`
}

// AverageTrip returns the mean booked traversal time per segment.
func (r Record) AverageTrip() float64 {
	if r.Trips == 0 {
		return 0
	}
	return float64(r.TravelTicks) / float64(r.Trips)
}

// RetryRate returns the conflicts avoided per scheduling call.
func (r Record) RetryRate() float64 {
	if r.Schedules == 0 {
		return 0
	}
	return float64(r.Retries) / float64(r.Schedules)
}
