// Package app wires together all adapters and domain logic.
// It owns the single tare engine of a project and serializes every access
// to it, so the CLI, the HTTP API and the MCP server can share one App.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corey/conferente/internal/adapters/bbolt"
	"github.com/corey/conferente/internal/adapters/claude"
	"github.com/corey/conferente/internal/adapters/sqlite"
	"github.com/corey/conferente/internal/config"
	"github.com/corey/conferente/internal/domain/advisor"
	"github.com/corey/conferente/internal/domain/tare"
	"github.com/corey/conferente/internal/domain/weighing"
	"github.com/corey/conferente/internal/logger"
	"github.com/corey/conferente/internal/ports"
)

const day = 24 * time.Hour

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Resolved    config.ResolvedConfig

	Store   *bbolt.Store
	History ports.HistoryStore
	Engine  *tare.Engine
	Advisor *advisor.Advisor // nil without an API key

	mu       sync.Mutex // serializes engine and history access
	settings config.Settings
	now      func() time.Time
	closers  []func() error
}

// Config holds initialization parameters for the App.
type Config struct {
	ProjectRoot string
	Resolve     config.ResolveOptions

	// Completer overrides the Claude client. Tests inject fakes here.
	Completer ports.Completer
	// Now overrides the clock for record timestamps and learned_at.
	Now func() time.Time
}

// New resolves configuration, opens the stores and builds the engine.
func New(cfg Config) (*App, error) {
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	paths := NewPaths(cfg.ProjectRoot)
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create %s: %w", paths.Root, err)
	}

	opts := cfg.Resolve
	opts.DefaultConfigPath = paths.Config
	opts.DefaultDBPath = paths.DB
	opts.DefaultSQLitePath = paths.HistorySQLite

	resolved, err := config.ResolveConfig(opts)
	if err != nil {
		return nil, err
	}
	settings, err := resolved.Settings()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := bbolt.NewStore(settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		ProjectRoot: cfg.ProjectRoot,
		Paths:       paths,
		Resolved:    resolved,
		Store:       store,
		Engine:      tare.NewEngine(store, tare.WithClock(cfg.Now)),
		settings:    settings,
		now:         cfg.Now,
		closers:     []func() error{store.Close},
	}

	switch settings.HistoryDriver {
	case config.DriverSQLite:
		h, err := sqlite.NewHistoryStore(settings.HistorySQLitePath)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.History = h
		a.closers = append(a.closers, h.Close)
	default:
		a.History = store.History()
	}

	completer := cfg.Completer
	if completer == nil && settings.AdvisorAPIKey != "" {
		c, err := claude.New(settings.AdvisorAPIKey, settings.AdvisorModel)
		if err != nil {
			a.Close()
			return nil, err
		}
		completer = c
	}
	if completer != nil {
		a.Advisor = advisor.New(completer, advisorConfig(settings))
	}

	logger.Debug("app ready", "db", settings.DBPath, "history", settings.HistoryDriver, "advisor", a.Advisor != nil)
	return a, nil
}

func advisorConfig(s config.Settings) advisor.Config {
	return advisor.Config{
		Timeout:     s.AdvisorTimeout,
		Temperature: s.AdvisorTemperature,
		MaxTokens:   s.AdvisorMaxTokens,
	}
}

// Close releases the stores. Safe to call once.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Settings returns the typed settings currently in effect.
func (a *App) Settings() config.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// ApplySettings swaps in reloaded settings. Only the values that can change
// at runtime are taken: weighing thresholds, retention and advisor tuning.
func (a *App) ApplySettings(s config.Settings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings.VarianceThreshold = s.VarianceThreshold
	a.settings.AdviceTolerance = s.AdviceTolerance
	a.settings.RetentionDays = s.RetentionDays
	a.settings.AdvisorTimeout = s.AdvisorTimeout
	a.settings.AdvisorTemperature = s.AdvisorTemperature
	a.settings.AdvisorMaxTokens = s.AdvisorMaxTokens
	if a.Advisor != nil {
		a.Advisor.SetConfig(advisorConfig(a.settings))
	}
}

// Learn records a confirmed tare.
func (a *App) Learn(supplier, product string, tareKg float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Engine.Learn(supplier, product, tareKg)
}

// ConfirmTare records a tare the operator accepted from a warning.
func (a *App) ConfirmTare(supplier, product string, tareKg float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Engine.ConfirmTare(supplier, product, tareKg)
}

func (a *App) PredictLastProduct(supplier string) (tare.Prediction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Engine.PredictLastProduct(supplier)
}

func (a *App) PredictTareForPair(supplier, product string) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Engine.PredictTareForPair(supplier, product)
}

func (a *App) CheckOtherSupplierTare(supplier, product string) (*tare.Warning, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Engine.CheckOtherSupplierTare(supplier, product)
}

func (a *App) Suggest(supplier, product string, currentTare float64) tare.Suggestion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Engine.Suggest(supplier, product, currentTare)
}

func (a *App) KnownSuppliers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Engine.KnownSuppliers()
}

func (a *App) KnownProducts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Engine.KnownProducts()
}

// Register validates and records a finished weighing. A per-unit product tare
// in the entry is learned for the supplier/product pair before the record is
// stored. Validation errors are the weighing.Err* sentinels.
func (a *App) Register(e weighing.Entry) (weighing.Outcome, error) {
	if err := e.Validate(); err != nil {
		return weighing.Outcome{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	reading := e.Reading()
	learned := false
	if reading.Tare > 0 && e.Breakdown.Learnable() {
		a.Engine.Learn(e.Supplier, e.Product, e.Breakdown.ProductTare)
		learned = true
	}

	rec := ports.WeighingRecord{
		ID:           uuid.NewString(),
		Supplier:     e.Supplier,
		Product:      e.Product,
		TargetWeight: e.TargetWeight,
		GrossWeight:  reading.Gross,
		Tare:         reading.Tare,
		BoxQuantity:  e.Breakdown.ProductQty,
		NetWeight:    reading.Net,
		Timestamp:    a.now().UnixMilli(),
		HasPhoto:     e.Photo != "",
		PhotoData:    e.Photo,
	}
	if err := a.History.Save(rec); err != nil {
		return weighing.Outcome{}, fmt.Errorf("save record: %w", err)
	}

	v := weighing.Classify(reading.Net, e.TargetWeight, a.settings.VarianceThreshold)
	logger.Info("weighing registered", "id", rec.ID, "supplier", rec.Supplier, "net_kg", rec.NetWeight, "variance", v.Kind)
	return weighing.Outcome{
		Record:   rec,
		Variance: v,
		Learned:  learned,
		Summary:  v.Summary(rec.Supplier, rec.NetWeight),
	}, nil
}

// Advise returns the live hint for an entry in progress.
func (a *App) Advise(e weighing.Entry) (*weighing.Advice, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	records, err := a.History.List()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return weighing.Advise(e.Reading(), e.Identification, e.Photo != "", len(records), a.settings.AdviceTolerance), nil
}

// Records returns the history, newest first. days > 0 limits it to the last
// days days.
func (a *App) Records(days int) ([]ports.WeighingRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if days <= 0 {
		return a.History.List()
	}
	cutoff := a.now().Add(-time.Duration(days) * day).UnixMilli()
	return a.History.Recent(cutoff)
}

// ClearHistory deletes every record.
func (a *App) ClearHistory() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.History.Clear()
}

// PruneHistory deletes records older than the configured retention. A zero
// retention keeps everything.
func (a *App) PruneHistory() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	days := a.settings.RetentionDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := a.now().Add(-time.Duration(days) * day).UnixMilli()
	n, err := a.History.PruneBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	if n > 0 {
		logger.Info("history pruned", "removed", n, "retention_days", days)
	}
	return n, nil
}

// Ask forwards an operator question about the entry in progress to the
// advisor, along with any learned tares the question names. The engine lock
// is not held while waiting on the model.
func (a *App) Ask(ctx context.Context, question string, id weighing.Identification, r weighing.Reading) (string, error) {
	if a.Advisor == nil {
		return "", advisor.ErrUnavailable
	}
	snap := advisor.NewSnapshot(id, r)

	a.mu.Lock()
	snap.Remembered = rememberedFor(a.Engine.Snapshot(), question)
	a.mu.Unlock()

	return a.Advisor.Ask(ctx, question, snap)
}

// Reset forgets every learned tare and every record.
func (a *App) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Engine.Reset()
	if err := a.History.Clear(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
