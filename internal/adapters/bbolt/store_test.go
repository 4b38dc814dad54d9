package bbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corey/conferente/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// makeTestDatabase creates a realistic learning database: two suppliers
// sharing a product with different tares.
func makeTestDatabase() *ports.Database {
	return &ports.Database{
		Suppliers: map[string]*ports.SupplierMemory{
			"hortifruti sao jose": {
				DisplayName:     "Hortifruti São José",
				LastProductSlug: "tomate italiano",
				Products: map[string]*ports.ProductMemory{
					"tomate italiano": {DisplayName: "Tomate Italiano", Tare: 1.35, UsageCount: 7, LastUsedAt: 1700000300000},
					"cebola":          {DisplayName: "Cebola", Tare: 0.25, UsageCount: 2, LastUsedAt: 1700000100000},
				},
			},
			"ceasa norte": {
				DisplayName:     "Ceasa Norte",
				LastProductSlug: "tomate italiano",
				Products: map[string]*ports.ProductMemory{
					"tomate italiano": {DisplayName: "TOMATE ITALIANO", Tare: 1.8, UsageCount: 3, LastUsedAt: 1700000200000},
				},
			},
		},
	}
}

func makeRecord(id string, ts int64) ports.WeighingRecord {
	return ports.WeighingRecord{
		ID:           id,
		Supplier:     "Ceasa Norte",
		Product:      "Tomate Italiano",
		TargetWeight: 20,
		GrossWeight:  21.9,
		Tare:         1.8,
		BoxQuantity:  1,
		NetWeight:    20.1,
		Timestamp:    ts,
	}
}

func TestStore_SaveLoad_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	original := makeTestDatabase()

	require.NoError(t, store.Save(original))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	// Zero tolerance on floats: the document is replaced, never merged.
	assert.Equal(t, original, loaded)
}

func TestStore_Load_Empty(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded, "fresh store has no learning db")
}

func TestStore_Load_Corrupt(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.put(keyLearning, []byte(`{"suppliers": [1, 2`)))

	loaded, err := store.Load()
	require.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "unmarshal learning db")
}

func TestStore_Save_ReplacesWholeDocument(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(makeTestDatabase()))

	replacement := ports.NewDatabase()
	replacement.Suppliers["outro"] = &ports.SupplierMemory{
		DisplayName: "Outro",
		Products:    map[string]*ports.ProductMemory{},
	}
	require.NoError(t, store.Save(replacement))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Suppliers, 1)
	assert.Contains(t, loaded.Suppliers, "outro")
}

func TestStore_Save_Nil(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.Save(nil))
}

func TestStore_CrashRecovery(t *testing.T) {
	// bbolt fsyncs on commit: data from the last committed transaction
	// survives a reopen.
	dir := t.TempDir()
	path := filepath.Join(dir, "crash.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(makeTestDatabase()))
	require.NoError(t, store.History().Save(makeRecord("r1", 1700000000000)))
	require.NoError(t, store.Close())

	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Len(t, loaded.Suppliers, 2)

	records, err := store2.History().List()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestStore_DeleteAll(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(makeTestDatabase()))
	require.NoError(t, store.History().Save(makeRecord("r1", 1)))

	require.NoError(t, store.DeleteAll())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	records, err := store.History().List()
	require.NoError(t, err)
	assert.Empty(t, records)

	// Wiping an already empty store is idempotent
	assert.NoError(t, store.DeleteAll())
}

func TestStore_ConcurrentReads(t *testing.T) {
	// bbolt supports concurrent readers, single writer.
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(makeTestDatabase()))

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := store.Load()
			if err != nil {
				errs <- err
				return
			}
			if db == nil {
				errs <- fmt.Errorf("got nil db")
				return
			}
			if len(db.Suppliers) != 2 {
				errs <- fmt.Errorf("expected 2 suppliers, got %d", len(db.Suppliers))
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read error: %v", err)
	}
}

func TestHistory_SaveNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	h := store.History()

	require.NoError(t, h.Save(makeRecord("first", 1000)))
	require.NoError(t, h.Save(makeRecord("second", 2000)))

	records, err := h.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].ID)
	assert.Equal(t, "first", records[1].ID)
	assert.Equal(t, 20.1, records[0].NetWeight)
}

func TestHistory_Recent(t *testing.T) {
	store, _ := newTestStore(t)
	h := store.History()

	require.NoError(t, h.Save(makeRecord("old", 1000)))
	require.NoError(t, h.Save(makeRecord("edge", 5000)))
	require.NoError(t, h.Save(makeRecord("new", 9000)))

	records, err := h.Recent(5000)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "edge", records[1].ID)
}

func TestHistory_PruneBefore(t *testing.T) {
	store, _ := newTestStore(t)
	h := store.History()

	require.NoError(t, h.Save(makeRecord("old", 1000)))
	require.NoError(t, h.Save(makeRecord("new", 9000)))

	removed, err := h.PruneBefore(5000)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	records, err := h.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)

	// Nothing left to prune
	removed, err = h.PruneBefore(5000)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestHistory_Clear(t *testing.T) {
	store, _ := newTestStore(t)
	h := store.History()
	require.NoError(t, store.Save(makeTestDatabase()))
	require.NoError(t, h.Save(makeRecord("r1", 1)))

	require.NoError(t, h.Clear())
	records, err := h.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	// Learning db is untouched by a history clear.
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Suppliers, 2)

	assert.NoError(t, h.Clear())
}

func TestHistory_CorruptIsNotOverwritten(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.put(keyHistory, []byte("not json")))

	err := store.History().Save(makeRecord("r1", 1))
	require.Error(t, err)

	raw, err := store.get(keyHistory)
	require.NoError(t, err)
	assert.Equal(t, "not json", string(raw))
}

// =============================================================================
// Lock contention: the 1s timeout prevents hangs
// =============================================================================

func TestStore_OpenTimeout_DoesNotHang(t *testing.T) {
	// When another holder has the bbolt exclusive lock, a second open
	// should timeout in ~1 second, not hang forever.
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	defer store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.Error(t, err, "second open should fail with lock timeout")
	assert.Nil(t, store2, "store should be nil on timeout")
	assert.Contains(t, err.Error(), "timeout", "error should mention timeout")
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Less(t, elapsed, 3*time.Second, "should complete within 3s, not hang")
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond, "should wait ~1s for the configured timeout")
}

func TestStore_OpenAfterClose_Succeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "released.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.Save(makeTestDatabase()))
	store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.NoError(t, err, "open after close should succeed")
	require.NotNil(t, store2)
	assert.Less(t, elapsed, 500*time.Millisecond, "should open instantly after lock released")
	defer store2.Close()

	db, err := store2.Load()
	require.NoError(t, err)
	assert.Len(t, db.Suppliers, 2)
	assert.Equal(t, path, store2.Path())
}
