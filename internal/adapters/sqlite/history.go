// Package sqlite implements ports.HistoryStore on SQLite (modernc, pure Go).
// It is the history backend for installations that want to query weighings
// with SQL tools; the learning database always stays in bbolt.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corey/conferente/internal/ports"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS weighing_records (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	supplier      TEXT NOT NULL,
	product       TEXT NOT NULL,
	target_weight REAL NOT NULL DEFAULT 0,
	gross_weight  REAL NOT NULL DEFAULT 0,
	tare          REAL NOT NULL DEFAULT 0,
	box_quantity  INTEGER NOT NULL DEFAULT 0,
	net_weight    REAL NOT NULL DEFAULT 0,
	timestamp     INTEGER NOT NULL,
	has_photo     INTEGER NOT NULL DEFAULT 0,
	photo_data    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_weighing_records_timestamp ON weighing_records(timestamp);
`

const selectColumns = `SELECT id, supplier, product, target_weight, gross_weight, tare,
	box_quantity, net_weight, timestamp, has_photo, photo_data FROM weighing_records`

// HistoryStore implements ports.HistoryStore. Insertion order is the
// history order: the most recently saved record comes first.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens (or creates) the database at path.
// Pass ":memory:" for an in-memory database (testing).
func NewHistoryStore(path string) (*HistoryStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Close closes the database connection.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}

func (h *HistoryStore) Save(r ports.WeighingRecord) error {
	_, err := h.db.Exec(`INSERT INTO weighing_records
		(id, supplier, product, target_weight, gross_weight, tare, box_quantity, net_weight, timestamp, has_photo, photo_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Supplier, r.Product, r.TargetWeight, r.GrossWeight, r.Tare,
		r.BoxQuantity, r.NetWeight, r.Timestamp, r.HasPhoto, r.PhotoData)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", r.ID, err)
	}
	return nil
}

func (h *HistoryStore) List() ([]ports.WeighingRecord, error) {
	return h.query(selectColumns + ` ORDER BY seq DESC`)
}

func (h *HistoryStore) Recent(cutoffMillis int64) ([]ports.WeighingRecord, error) {
	return h.query(selectColumns+` WHERE timestamp >= ? ORDER BY seq DESC`, cutoffMillis)
}

func (h *HistoryStore) PruneBefore(cutoffMillis int64) (int, error) {
	res, err := h.db.Exec(`DELETE FROM weighing_records WHERE timestamp < ?`, cutoffMillis)
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (h *HistoryStore) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM weighing_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

func (h *HistoryStore) query(q string, args ...any) ([]ports.WeighingRecord, error) {
	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []ports.WeighingRecord{}
	for rows.Next() {
		var r ports.WeighingRecord
		if err := rows.Scan(&r.ID, &r.Supplier, &r.Product, &r.TargetWeight, &r.GrossWeight,
			&r.Tare, &r.BoxQuantity, &r.NetWeight, &r.Timestamp, &r.HasPhoto, &r.PhotoData); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
