package tare

import (
	"math"

	"github.com/corey/conferente/internal/ports"
)

// Prediction is the product last weighed for a supplier and its tare.
type Prediction struct {
	Product string  `json:"product"`
	Tare    float64 `json:"tare"`
}

// PredictLastProduct returns the product most recently learned for supplier.
// ok is false when the supplier is unknown or has no resolvable last product.
func (e *Engine) PredictLastProduct(supplier string) (p Prediction, ok bool) {
	supplierKey := Normalize(supplier)
	if supplierKey == "" {
		return Prediction{}, false
	}

	sm, found := e.load().Suppliers[supplierKey]
	if !found || sm.LastProductSlug == "" {
		return Prediction{}, false
	}
	pm, found := sm.Products[sm.LastProductSlug]
	if !found {
		return Prediction{}, false
	}
	return Prediction{Product: pm.DisplayName, Tare: pm.Tare}, true
}

// PredictTareForPair returns the tare learned for exactly this supplier and
// product. A zero tare is a placeholder, not a prediction.
func (e *Engine) PredictTareForPair(supplier, product string) (float64, bool) {
	return pairTare(e.load(), Normalize(supplier), Normalize(product))
}

func pairTare(db *ports.Database, supplierKey, productKey string) (float64, bool) {
	if supplierKey == "" || productKey == "" {
		return 0, false
	}
	sm, ok := db.Suppliers[supplierKey]
	if !ok {
		return 0, false
	}
	pm, ok := sm.Products[productKey]
	if !ok || pm.Tare <= 0 {
		return 0, false
	}
	return pm.Tare, true
}

// Action tells the caller what to do with the tare field.
type Action string

const (
	ActionNone  Action = "none"  // leave the tare as it is
	ActionApply Action = "apply" // set Suggestion.Tare without asking
	ActionWarn  Action = "warn"  // show Suggestion.Warning and let the operator decide
)

// Suggestion is the outcome of Suggest.
type Suggestion struct {
	Action  Action   `json:"action"`
	Tare    float64  `json:"tare,omitempty"`
	Warning *Warning `json:"warning,omitempty"`
}

// Suggest decides how the tare field should react once both supplier and
// product are filled in and the field currently holds currentTare.
//
// An exact pair match is applied silently. Only without one is the conflict
// detector consulted, and its warning is raised only if the current tare is
// empty or differs from the other supplier's.
func (e *Engine) Suggest(supplier, product string, currentTare float64) Suggestion {
	supplierKey := Normalize(supplier)
	productKey := Normalize(product)
	if supplierKey == "" || productKey == "" {
		return Suggestion{Action: ActionNone}
	}

	db := e.load()
	if t, ok := pairTare(db, supplierKey, productKey); ok {
		if math.Abs(currentTare-t) > ConflictTolerance {
			return Suggestion{Action: ActionApply, Tare: t}
		}
		return Suggestion{Action: ActionNone}
	}

	w := otherSupplierWarning(db, supplierKey, productKey)
	if w == nil {
		return Suggestion{Action: ActionNone}
	}
	if currentTare == 0 || math.Abs(currentTare-w.Tare) > ConflictTolerance {
		return Suggestion{Action: ActionWarn, Tare: w.Tare, Warning: w}
	}
	return Suggestion{Action: ActionNone}
}
