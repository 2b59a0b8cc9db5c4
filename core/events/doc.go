// Package events defines the scheduling and runtime events emitted on the
// event bus.
//
// Available event types:
//   - RouteScheduled: a scheduleRoute call finished
//   - SlotUnavailable: the bounded probe gave up on a segment
//   - ReservationsPruned: the periodic cleanup removed stale intervals
//   - TripCompleted: a train finished traversing one segment
//   - TrainArrived: a train exhausted its event queue
package events
