// Package tare implements the adaptive tare memory.
// It learns the packaging tare of each (supplier, product) pair from confirmed
// weighings, predicts tare for new entries, and flags when another supplier
// weighs the same product with a different tare.
//
// Every operation is one load -> (mutate -> save) sequence against a
// ports.LearningStore. There is no cache: a prediction made right after a
// learn always sees it. Storage failures never surface; an unreadable store
// behaves as an empty one and a failed save is logged and dropped.
package tare

import (
	"time"

	"github.com/corey/conferente/internal/logger"
	"github.com/corey/conferente/internal/ports"
)

// StorageKey is the fixed key the learning document is persisted under.
const StorageKey = "conferente_learning_db"

// Engine learns and predicts tares over a LearningStore.
// Thread safety: NOT safe for concurrent use. The caller must serialize access.
type Engine struct {
	store ports.LearningStore
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for last_used_at.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store ports.LearningStore, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Learn records tare as the current tare of product under supplier.
// The supplier's last product pointer moves to product and the pair's usage
// count grows by one on every call. Names that normalize to "" are ignored.
func (e *Engine) Learn(supplier, product string, tare float64) {
	supplierKey := Normalize(supplier)
	productKey := Normalize(product)
	if supplierKey == "" || productKey == "" {
		return
	}

	db := e.load()

	sm, ok := db.Suppliers[supplierKey]
	if !ok {
		sm = &ports.SupplierMemory{Products: make(map[string]*ports.ProductMemory)}
		db.Suppliers[supplierKey] = sm
	}
	sm.DisplayName = supplier
	sm.LastProductSlug = productKey

	count := 0
	if prev, ok := sm.Products[productKey]; ok {
		count = prev.UsageCount
	}
	sm.Products[productKey] = &ports.ProductMemory{
		DisplayName: product,
		Tare:        tare,
		UsageCount:  count + 1,
		LastUsedAt:  e.now().UnixMilli(),
	}

	e.save(db)
	logger.Debug("tare learned", "supplier", supplier, "product", product, "tare_kg", tare)
}

// ConfirmTare commits tare as the default for the pair. It is the same write
// as Learn, issued when the operator explicitly accepts or keeps a tare.
func (e *Engine) ConfirmTare(supplier, product string, tare float64) {
	e.Learn(supplier, product, tare)
}

// Snapshot returns the current learned state as loaded from the store.
func (e *Engine) Snapshot() *ports.Database {
	return e.load()
}

// Reset replaces the learned state with an empty database.
func (e *Engine) Reset() {
	e.save(ports.NewDatabase())
}

// load reads the database, degrading to an empty one on any failure.
func (e *Engine) load() *ports.Database {
	db, err := e.store.Load()
	if err != nil {
		logger.Warn("learning store unreadable, starting with no history", "err", err)
		return ports.NewDatabase()
	}
	if db == nil {
		return ports.NewDatabase()
	}
	sanitize(db)
	return db
}

func (e *Engine) save(db *ports.Database) {
	if err := e.store.Save(db); err != nil {
		logger.Warn("learning store save failed", "err", err)
	}
}

// sanitize drops structurally invalid entries so the rest of the package can
// rely on non-nil maps and values.
func sanitize(db *ports.Database) {
	if db.Suppliers == nil {
		db.Suppliers = make(map[string]*ports.SupplierMemory)
	}
	for key, sm := range db.Suppliers {
		if sm == nil {
			delete(db.Suppliers, key)
			continue
		}
		if sm.Products == nil {
			sm.Products = make(map[string]*ports.ProductMemory)
		}
		for pk, pm := range sm.Products {
			if pm == nil {
				delete(sm.Products, pk)
			}
		}
	}
}
