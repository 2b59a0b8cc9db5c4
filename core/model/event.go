package model

import "fmt"

// Color is an RGB triple carried with a train for display purposes.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// ScheduleEvent is one directed traversal of one track by one train.
type ScheduleEvent struct {
	TrainID   int    `json:"train_id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	StartTime int    `json:"start_time"`
	EndTime   int    `json:"end_time"`
	Color     Color  `json:"color"`
}

// Duration returns EndTime-StartTime.
func (e ScheduleEvent) Duration() int { return e.EndTime - e.StartTime }

// Edge returns the canonical key of the traversed segment.
func (e ScheduleEvent) Edge() EdgeKey { return NewEdgeKey(e.Source, e.Target) }

// Reservation is an occupied interval on a segment.
type Reservation struct {
	Start   int `json:"start"`
	End     int `json:"end"`
	TrainID int `json:"train_id"`
}
