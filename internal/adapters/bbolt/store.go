// Package bbolt implements the storage ports using bbolt (embedded B+ tree).
// One top-level bucket holds two JSON documents: the tare-learning database
// and the weighing history. Each write replaces a whole document inside a
// single transaction, so a crash mid-write cannot corrupt committed data.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corey/conferente/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketRoot  = []byte("conferente")
	keyLearning = []byte("conferente_learning_db")
	keyHistory  = []byte("conferente_history")
)

// Store implements ports.LearningStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Load retrieves the learning database.
// Returns nil, nil if nothing has been saved yet.
func (s *Store) Load() (*ports.Database, error) {
	data, err := s.get(keyLearning)
	if err != nil || data == nil {
		return nil, err
	}

	var db ports.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("unmarshal learning db: %w", err)
	}
	return &db, nil
}

// Save replaces the learning database.
func (s *Store) Save(db *ports.Database) error {
	if db == nil {
		return fmt.Errorf("nil learning db")
	}
	data, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("marshal learning db: %w", err)
	}
	return s.put(keyLearning, data)
}

// DeleteAll removes the learning database and the history.
// Idempotent: wiping an empty store is not an error.
func (s *Store) DeleteAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketRoot); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil // idempotent
		} else {
			return err
		}
	})
}

// get copies the value at key out of a read transaction.
func (s *Store) get(key []byte) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRoot)
		if b == nil {
			return nil
		}
		// bbolt slices are only valid within the tx
		if v := b.Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, err
}

func (s *Store) put(key, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketRoot)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}
