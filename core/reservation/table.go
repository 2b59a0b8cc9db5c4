// Package reservation implements the per-segment reservation table used by
// the scheduler. Each undirected segment keeps its intervals in insertion
// order. The table never rejects an overlapping Reserve; callers check
// HasConflict first or use TryReserve.
package reservation

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/railsim/core/model"
)

// ErrDoubleBooking reports two conflicting intervals on the same segment.
var ErrDoubleBooking = errors.New("double booking")

// Overlaps is the padded interval test shared by HasConflict and Validate.
// It is symmetric in its two intervals.
func Overlaps(start, end, rStart, rEnd, margin int) bool {
	return start < rEnd+margin && end+margin > rStart
}

// Table maps segments to reserved intervals. It is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	grace int
	slots map[model.EdgeKey][]model.Reservation
}

// Option configures a Table.
type Option func(*Table)

// WithGrace keeps intervals that ended less than grace ticks before the
// cleanup time.
func WithGrace(grace int) Option {
	return func(t *Table) {
		if grace > 0 {
			t.grace = grace
		}
	}
}

// NewTable returns an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{slots: make(map[model.EdgeKey][]model.Reservation)}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Grace returns the cleanup grace window.
func (t *Table) Grace() int { return t.grace }

// Reset removes every reservation.
func (t *Table) Reset() {
	t.mu.Lock()
	t.slots = make(map[model.EdgeKey][]model.Reservation)
	t.mu.Unlock()
}

// HasConflict reports whether [start,end] collides with an interval already
// reserved on the u-v segment once margin is applied on both sides.
func (t *Table) HasConflict(u, v string, start, end, margin int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conflictLocked(model.NewEdgeKey(u, v), start, end, margin)
}

func (t *Table) conflictLocked(key model.EdgeKey, start, end, margin int) bool {
	for _, r := range t.slots[key] {
		if Overlaps(start, end, r.Start, r.End, margin) {
			return true
		}
	}
	return false
}

// Reserve appends the interval to the u-v segment unconditionally.
func (t *Table) Reserve(u, v string, start, end, trainID int) {
	key := model.NewEdgeKey(u, v)
	t.mu.Lock()
	t.slots[key] = append(t.slots[key], model.Reservation{Start: start, End: end, TrainID: trainID})
	t.mu.Unlock()
}

// TryReserve checks and reserves as one atomic step. It reports false and
// leaves the table untouched when the interval conflicts.
func (t *Table) TryReserve(u, v string, start, end, trainID, margin int) bool {
	key := model.NewEdgeKey(u, v)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conflictLocked(key, start, end, margin) {
		return false
	}
	t.slots[key] = append(t.slots[key], model.Reservation{Start: start, End: end, TrainID: trainID})
	return true
}

// Cleanup drops intervals ending at or before now minus the grace window and
// deletes segments left empty. It returns the number of intervals removed.
func (t *Table) Cleanup(now int) int {
	cutoff := now - t.grace
	removed := 0
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, rs := range t.slots {
		kept := rs[:0]
		for _, r := range rs {
			if r.End > cutoff {
				kept = append(kept, r)
			}
		}
		removed += len(rs) - len(kept)
		if len(kept) == 0 {
			delete(t.slots, key)
			continue
		}
		t.slots[key] = kept
	}
	return removed
}

// Intervals returns a copy of the intervals reserved on the u-v segment.
func (t *Table) Intervals(u, v string) []model.Reservation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rs := t.slots[model.NewEdgeKey(u, v)]
	if len(rs) == 0 {
		return nil
	}
	out := make([]model.Reservation, len(rs))
	copy(out, rs)
	return out
}

// Snapshot returns a deep copy of the table.
func (t *Table) Snapshot() map[model.EdgeKey][]model.Reservation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[model.EdgeKey][]model.Reservation, len(t.slots))
	for k, rs := range t.slots {
		cp := make([]model.Reservation, len(rs))
		copy(cp, rs)
		out[k] = cp
	}
	return out
}

// Keys returns the reserved segments in key order.
func (t *Table) Keys() []model.EdgeKey {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]model.EdgeKey, 0, len(t.slots))
	for k := range t.slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Len returns the total number of reserved intervals.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, rs := range t.slots {
		n += len(rs)
	}
	return n
}

// Validate returns ErrDoubleBooking if any two intervals on one segment
// conflict under margin.
func (t *Table) Validate(margin int) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for key, rs := range t.slots {
		for i := 0; i < len(rs); i++ {
			for j := i + 1; j < len(rs); j++ {
				if Overlaps(rs[i].Start, rs[i].End, rs[j].Start, rs[j].End, margin) {
					return fmt.Errorf("%w on %s: train %d [%d,%d] and train %d [%d,%d]",
						ErrDoubleBooking, key, rs[i].TrainID, rs[i].Start, rs[i].End,
						rs[j].TrainID, rs[j].Start, rs[j].End)
				}
			}
		}
	}
	return nil
}
