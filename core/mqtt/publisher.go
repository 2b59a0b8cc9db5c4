// Package mqtt defines how schedules and train states are pushed to display
// clients over MQTT.
package mqtt

import (
	"fmt"
	"strings"

	"github.com/kilianp07/railsim/core/model"
)

// Publisher pushes scheduling output to display clients.
type Publisher interface {
	// PublishSchedule sends the events booked for a train in one call.
	PublishSchedule(trainID int, events []model.ScheduleEvent) error
	// PublishState sends a train snapshot.
	PublishState(s model.TrainSnapshot) error
}

// Message kinds carried in Envelope.Kind.
const (
	KindSchedule = "schedule"
	KindState    = "state"
)

// Envelope wraps every published payload.
type Envelope[T any] struct {
	MessageID string `json:"message_id"`
	RunID     string `json:"run_id,omitempty"`
	Kind      string `json:"kind"`
	TrainID   int    `json:"train_id"`
	Timestamp int64  `json:"timestamp"`
	Payload   T      `json:"payload"`
}

// ScheduleTopic returns <prefix>/trains/<id>/schedule.
func ScheduleTopic(prefix string, trainID int) string {
	return topic(prefix, trainID, KindSchedule)
}

// StateTopic returns <prefix>/trains/<id>/state.
func StateTopic(prefix string, trainID int) string {
	return topic(prefix, trainID, KindState)
}

func topic(prefix string, trainID int, kind string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "railsim"
	}
	return fmt.Sprintf("%s/trains/%d/%s", prefix, trainID, kind)
}
