package mqtt

import (
	"context"

	"github.com/kilianp07/railsim/core/events"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/infra/logger"
	"github.com/kilianp07/railsim/internal/eventbus"
)

// StartForwarder publishes booked schedules from bus and train snapshots
// from states until ctx is cancelled. A snapshot is sent when the train
// changes status or, if every is positive, every `every` ticks.
func StartForwarder(ctx context.Context, bus eventbus.EventBus, states *eventbus.TypedBus[model.TrainSnapshot], pub Publisher, every int) {
	if pub == nil {
		return
	}
	log := logger.New("mqtt_forwarder")
	var sub <-chan eventbus.Event
	if bus != nil {
		sub = bus.Subscribe()
	}
	var snaps <-chan model.TrainSnapshot
	if states != nil {
		snaps = states.Subscribe()
	}
	go func() {
		defer func() {
			if bus != nil {
				bus.Unsubscribe(sub)
			}
			if states != nil {
				states.Unsubscribe(snaps)
			}
		}()
		last := make(map[int]string)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					sub = nil
					continue
				}
				rs, isRoute := ev.(events.RouteScheduled)
				if !isRoute || len(rs.Events) == 0 {
					continue
				}
				if err := pub.PublishSchedule(rs.TrainID, rs.Events); err != nil {
					log.Errorf("schedule for train %d: %v", rs.TrainID, err)
				}
			case s, ok := <-snaps:
				if !ok {
					snaps = nil
					continue
				}
				changed := last[s.TrainID] != s.Status
				last[s.TrainID] = s.Status
				if !changed && (every <= 0 || s.Tick%every != 0) {
					continue
				}
				if err := pub.PublishState(s); err != nil {
					log.Errorf("state for train %d: %v", s.TrainID, err)
				}
			}
		}
	}()
}
