package mqtt

import (
	"fmt"
	"sync"

	"github.com/kilianp07/railsim/core/model"
	coremqtt "github.com/kilianp07/railsim/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records published payloads in memory.
type MockPublisher struct {
	Schedules map[int][]model.ScheduleEvent
	States    []model.TrainSnapshot
	FailIDs   map[int]bool
	mu        sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Schedules: make(map[int][]model.ScheduleEvent),
		FailIDs:   make(map[int]bool),
	}
}

// PublishSchedule records the events or fails for trains listed in FailIDs.
func (m *MockPublisher) PublishSchedule(trainID int, events []model.ScheduleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[trainID] {
		return fmt.Errorf("publish failed")
	}
	m.Schedules[trainID] = append(m.Schedules[trainID], events...)
	return nil
}

// PublishState records the snapshot.
func (m *MockPublisher) PublishState(s model.TrainSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[s.TrainID] {
		return fmt.Errorf("publish failed")
	}
	m.States = append(m.States, s)
	return nil
}

// ScheduleCount returns the number of events recorded for a train.
func (m *MockPublisher) ScheduleCount(trainID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Schedules[trainID])
}

// StateCount returns the number of snapshots recorded.
func (m *MockPublisher) StateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.States)
}

var (
	_ Publisher = (*MockPublisher)(nil)
	_ Publisher = (*PahoPublisher)(nil)
)
