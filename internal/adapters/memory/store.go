// Package memory implements the storage ports in process memory.
// The learning store keeps the serialized document rather than live structs,
// so every Load hands out an independent copy just like a durable backend.
package memory

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/corey/conferente/internal/ports"
)

// LearningStore implements ports.LearningStore over an in-memory JSON blob.
type LearningStore struct {
	mu      sync.Mutex
	data    []byte
	saveErr error
}

// NewLearningStore creates an empty store.
func NewLearningStore() *LearningStore {
	return &LearningStore{}
}

// Load decodes the stored blob. Returns nil, nil if nothing was saved.
func (s *LearningStore) Load() (*ports.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, nil
	}
	var db ports.Database
	if err := json.Unmarshal(s.data, &db); err != nil {
		return nil, fmt.Errorf("unmarshal learning db: %w", err)
	}
	return &db, nil
}

// Save encodes db and replaces the stored blob.
func (s *LearningStore) Save(db *ports.Database) error {
	if db == nil {
		return fmt.Errorf("nil learning db")
	}
	data, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("marshal learning db: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = data
	return nil
}

// Raw returns a copy of the stored blob.
func (s *LearningStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// SetRaw replaces the stored blob verbatim, valid or not.
func (s *LearningStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// FailSaves makes every subsequent Save return err (nil restores saving).
func (s *LearningStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// HistoryStore implements ports.HistoryStore over a slice, newest first.
type HistoryStore struct {
	mu      sync.Mutex
	records []ports.WeighingRecord
}

// NewHistoryStore creates an empty history.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (h *HistoryStore) Save(record ports.WeighingRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append([]ports.WeighingRecord{record}, h.records...)
	return nil
}

func (h *HistoryStore) List() ([]ports.WeighingRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ports.WeighingRecord, len(h.records))
	copy(out, h.records)
	return out, nil
}

func (h *HistoryStore) Recent(cutoffMillis int64) ([]ports.WeighingRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []ports.WeighingRecord{}
	for _, r := range h.records {
		if r.Timestamp >= cutoffMillis {
			out = append(out, r)
		}
	}
	return out, nil
}

func (h *HistoryStore) PruneBefore(cutoffMillis int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.records[:0]
	removed := 0
	for _, r := range h.records {
		if r.Timestamp < cutoffMillis {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	h.records = kept
	return removed, nil
}

func (h *HistoryStore) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
	return nil
}
