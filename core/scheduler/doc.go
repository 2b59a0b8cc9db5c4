// Package scheduler turns a train's stop list into time-stamped segment
// reservations. Each leg between consecutive stops is expanded into its
// shortest path, and every segment on that path is booked in the shared
// reservation table using a pluggable SlotFinder:
//
//   - GREEDY waits in fixed steps until the segment is free.
//   - CSP probes finer offsets and abandons the segment after a bounded
//     search, leaving a gap in the emitted events.
//
// Conflicts are resolved first come, first served: a booked interval is
// never moved by later calls. All Scheduler methods are serialised by one
// mutex so check-then-reserve stays atomic even with concurrent callers.
package scheduler
