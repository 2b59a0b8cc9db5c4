package kpi

import (
	"sort"
	"sync"
)

// MemoryStore keeps records in memory, aggregated by train and window.
type MemoryStore struct {
	mu   sync.Mutex
	size int
	data map[int]map[int]*Record
}

// NewMemoryStore returns an empty MemoryStore using windows of size ticks.
func NewMemoryStore(size int) *MemoryStore {
	return &MemoryStore{size: size, data: map[int]map[int]*Record{}}
}

// WindowSize returns the aggregation window in ticks.
func (s *MemoryStore) WindowSize() int { return s.size }

// Add inserts or updates the record aggregated by window and train.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.TrainID] == nil {
		s.data[r.TrainID] = map[int]*Record{}
	}
	w := Window(r.Window, s.size)
	rec := s.data[r.TrainID][w]
	if rec == nil {
		rec = &Record{TrainID: r.TrainID, Window: w}
		s.data[r.TrainID][w] = rec
	}
	rec.Trips += r.Trips
	rec.TravelTicks += r.TravelTicks
	rec.Retries += r.Retries
	rec.Schedules += r.Schedules
	return nil
}

// Query returns the records whose window starts between from and to
// inclusive, oldest first.
func (s *MemoryStore) Query(trainID, from, to int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = Window(from, s.size)
	to = Window(to, s.size)
	var res []Record
	for w, r := range s.data[trainID] {
		if w < from || w > to {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Window < res[j].Window })
	return res, nil
}
