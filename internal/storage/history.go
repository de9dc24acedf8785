package storage

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"equipment-risk-gateway/internal/analyzer"
	"equipment-risk-gateway/internal/data"
)

// maxRetainedBatches bounds how many batch summaries survive; older ones
// are evicted on insert.
const maxRetainedBatches = 5

// HistoryRecord is one retained batch summary.
type HistoryRecord struct {
	ID        string                `json:"id"`
	Filename  string                `json:"filename"`
	Summary   analyzer.BatchSummary `json:"summary_data"`
	CreatedAt string                `json:"upload_date"`
}

// HistoryStore is a bounded FIFO-by-time store of batch summaries.
type HistoryStore struct {
	mu      sync.RWMutex
	records []HistoryRecord // kept ordered oldest first
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make([]HistoryRecord, 0, maxRetainedBatches)}
}

// Insert evicts the oldest records down to capacity-1 and then appends the
// new one, all under one lock so concurrent ingestions cannot overshoot
// the cap. At most maxRetainedBatches records exist after any insert.
func (s *HistoryStore) Insert(filename string, summary analyzer.BatchSummary) HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.records); n >= maxRetainedBatches {
		drop := n - (maxRetainedBatches - 1)
		s.records = append(s.records[:0], s.records[drop:]...)
	}

	record := HistoryRecord{
		ID:        uuid.NewString(),
		Filename:  filename,
		Summary:   summary,
		CreatedAt: summary.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	s.records = append(s.records, record)
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Summary.CreatedAt.Before(s.records[j].Summary.CreatedAt)
	})
	return record
}

// ListRecent returns the retained records newest first.
func (s *HistoryStore) ListRecent() []HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HistoryRecord, len(s.records))
	for i, r := range s.records {
		out[len(s.records)-1-i] = r
	}
	return out
}

// MostRecent returns the newest record, or data.ErrNotFound when no batch
// has been ingested yet.
func (s *HistoryStore) MostRecent() (HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return HistoryRecord{}, data.ErrNotFound
	}
	return s.records[len(s.records)-1], nil
}

// Count reports how many batches are currently retained.
func (s *HistoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
