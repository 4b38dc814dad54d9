package bbolt

import (
	"encoding/json"
	"fmt"

	"github.com/corey/conferente/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// HistoryStore implements ports.HistoryStore as a JSON array, newest first,
// stored next to the learning database in the same file.
type HistoryStore struct {
	s *Store
}

// History returns the history view of the store.
func (s *Store) History() *HistoryStore {
	return &HistoryStore{s: s}
}

// Save prepends record. An undecodable existing history is reported rather
// than overwritten.
func (h *HistoryStore) Save(record ports.WeighingRecord) error {
	return h.s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketRoot)
		if err != nil {
			return err
		}
		records, err := decodeHistory(b.Get(keyHistory))
		if err != nil {
			return err
		}
		records = append([]ports.WeighingRecord{record}, records...)
		return putHistory(b, records)
	})
}

// List returns every record, newest first.
func (h *HistoryStore) List() ([]ports.WeighingRecord, error) {
	data, err := h.s.get(keyHistory)
	if err != nil {
		return nil, err
	}
	return decodeHistory(data)
}

// Recent returns records at or after cutoffMillis.
func (h *HistoryStore) Recent(cutoffMillis int64) ([]ports.WeighingRecord, error) {
	all, err := h.List()
	if err != nil {
		return nil, err
	}
	out := []ports.WeighingRecord{}
	for _, r := range all {
		if r.Timestamp >= cutoffMillis {
			out = append(out, r)
		}
	}
	return out, nil
}

// PruneBefore drops records older than cutoffMillis.
func (h *HistoryStore) PruneBefore(cutoffMillis int64) (int, error) {
	removed := 0
	err := h.s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRoot)
		if b == nil {
			return nil
		}
		records, err := decodeHistory(b.Get(keyHistory))
		if err != nil {
			return err
		}
		kept := make([]ports.WeighingRecord, 0, len(records))
		for _, r := range records {
			if r.Timestamp < cutoffMillis {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if removed == 0 {
			return nil
		}
		return putHistory(b, kept)
	})
	return removed, err
}

// Clear removes the history. Idempotent.
func (h *HistoryStore) Clear() error {
	return h.s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRoot)
		if b == nil {
			return nil
		}
		return b.Delete(keyHistory)
	})
}

func decodeHistory(data []byte) ([]ports.WeighingRecord, error) {
	records := []ports.WeighingRecord{}
	if data == nil {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return records, nil
}

func putHistory(b *bolt.Bucket, records []ports.WeighingRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return b.Put(keyHistory, data)
}
