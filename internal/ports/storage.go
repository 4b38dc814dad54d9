// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// LearningStore persists the tare-learning Database as a single document.
//
// Save is a whole-document replace, never an incremental patch. Load returns
// nil, nil when nothing has been persisted yet. A document that cannot be
// decoded is reported as an error; callers decide how to recover.
type LearningStore interface {
	// Load retrieves the persisted Database.
	Load() (*Database, error)

	// Save replaces the persisted Database with db.
	Save(db *Database) error
}

// HistoryStore persists the ordered list of weighing records.
// Records are returned newest first.
type HistoryStore interface {
	// Save prepends a record to the history.
	Save(record WeighingRecord) error

	// List returns every record, newest first. Empty history is an empty slice.
	List() ([]WeighingRecord, error)

	// Recent returns records whose timestamp is at or after cutoffMillis.
	Recent(cutoffMillis int64) ([]WeighingRecord, error)

	// PruneBefore removes records older than cutoffMillis and returns how many
	// were removed.
	PruneBefore(cutoffMillis int64) (int, error)

	// Clear removes every record. Idempotent.
	Clear() error
}

// Database is the root aggregate of learned tares.
// The JSON shape is the persisted wire format.
type Database struct {
	Suppliers map[string]*SupplierMemory `json:"suppliers"`
}

// SupplierMemory holds everything learned for one supplier key.
type SupplierMemory struct {
	DisplayName     string                    `json:"display_name"`
	LastProductSlug string                    `json:"last_product_slug"` // key into Products; "" when unset
	Products        map[string]*ProductMemory `json:"products"`
}

// ProductMemory is the learned tare of one product under one supplier.
type ProductMemory struct {
	DisplayName string  `json:"display_name"`
	Tare        float64 `json:"tare"`         // kg, >= 0
	UsageCount  int     `json:"usage_count"`  // confirmed learns, never decreases
	LastUsedAt  int64   `json:"last_used_at"` // Unix milliseconds
}

// NewDatabase returns an empty Database with its map initialized.
func NewDatabase() *Database {
	return &Database{Suppliers: make(map[string]*SupplierMemory)}
}

// WeighingRecord is one registered weighing, as kept in the history.
type WeighingRecord struct {
	ID           string  `json:"id"`
	Supplier     string  `json:"supplier"`
	Product      string  `json:"product"`
	TargetWeight float64 `json:"targetWeight"` // invoice weight
	GrossWeight  float64 `json:"grossWeight"`
	Tare         float64 `json:"tare"` // total tare applied
	BoxQuantity  int     `json:"boxQuantity,omitempty"`
	NetWeight    float64 `json:"netWeight"`
	Timestamp    int64   `json:"timestamp"` // Unix milliseconds
	HasPhoto     bool    `json:"hasPhoto"`
	PhotoData    string  `json:"photoData,omitempty"` // base64 image, optional
}
