package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/railsim/core/events"
	coremetrics "github.com/kilianp07/railsim/core/metrics"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) {
	now := time.Now()
	switch e := ev.(type) {
	case events.RouteScheduled:
		_ = sink.RecordSchedule(coremetrics.ScheduleRecord{
			TrainID:          e.TrainID,
			Algorithm:        e.Algorithm.String(),
			Events:           len(e.Events),
			ConflictsAvoided: e.ConflictsAvoided,
			Skipped:          e.Skipped,
			Latency:          e.Latency,
			Tick:             e.Tick,
			Time:             now,
		})
	case events.ReservationsPruned:
		if r, ok := sink.(coremetrics.ReservationRecorder); ok {
			_ = r.RecordReservations(coremetrics.ReservationEvent{
				Tick: e.Tick, Removed: e.Removed, Remaining: e.Remaining, Segments: e.Segments, Time: now,
			})
		}
	case events.SlotUnavailable:
		if r, ok := sink.(coremetrics.SlotUnavailableRecorder); ok {
			_ = r.RecordSlotUnavailable(coremetrics.SlotUnavailableEvent{
				TrainID: e.TrainID, Edge: e.Edge.String(), Cursor: e.Cursor, Time: now,
			})
		}
	case events.TripCompleted:
		if r, ok := sink.(coremetrics.TripRecorder); ok {
			_ = r.RecordTrip(coremetrics.TripEvent{
				TrainID:   e.Event.TrainID,
				Source:    e.Event.Source,
				Target:    e.Event.Target,
				StartTime: e.Event.StartTime,
				EndTime:   e.Event.EndTime,
				Tick:      e.Tick,
				Time:      now,
			})
		}
	}
}

// StartStateCollector records one snapshot per train every `every` ticks.
// It does nothing when every is not positive or the sink cannot record
// train states.
func StartStateCollector(ctx context.Context, states *eventbus.TypedBus[model.TrainSnapshot], sink coremetrics.MetricsSink, runID string, every int) {
	rec, ok := sink.(coremetrics.TrainStateRecorder)
	if states == nil || !ok || every <= 0 {
		return
	}
	sub := states.Subscribe()
	go func() {
		defer states.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-sub:
				if !ok {
					return
				}
				if snap.Tick%every != 0 {
					continue
				}
				_ = rec.RecordTrainState(coremetrics.TrainStateEvent{Snapshot: snap, RunID: runID, Time: time.Now()})
			}
		}
	}()
}
