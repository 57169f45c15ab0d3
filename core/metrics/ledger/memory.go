package ledger

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[time.Time]*Record{}}
}

// Add inserts or updates the record aggregated by day.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Day(r.Date)
	rec := s.data[d]
	if rec == nil {
		rec = &Record{Date: d}
		s.data[d] = rec
	}
	rec.ImportKWh += r.ImportKWh
	rec.ExportKWh += r.ExportKWh
	rec.ThroughputKWh += r.ThroughputKWh
	rec.EnergyCost += r.EnergyCost
	return nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
