package tare

import (
	"fmt"
	"math"
	"sort"

	"github.com/corey/conferente/internal/ports"
)

// ConflictTolerance is the largest tare difference, in kg, still treated as
// the same tare (1 g).
const ConflictTolerance = 0.001

// WarningKind distinguishes the two conflict situations.
type WarningKind string

const (
	// WarningAdopt: the current supplier has no tare for the product yet.
	WarningAdopt WarningKind = "adopt"
	// WarningDiscrepancy: the current supplier's tare differs from the other's.
	WarningDiscrepancy WarningKind = "discrepancy"
)

// Warning is an advisory about another supplier's tare for the same product.
// Accepting it means calling ConfirmTare with Tare; dismissing it changes nothing.
type Warning struct {
	Kind        WarningKind `json:"kind"`
	Supplier    string      `json:"supplier"` // display name of the other supplier
	Product     string      `json:"product"`
	Tare        float64     `json:"tare"`
	UsageCount  int         `json:"usage_count"`
	CurrentTare float64     `json:"current_tare,omitempty"`
	Message     string      `json:"message"`
}

// CheckOtherSupplierTare looks for the most used positive tare of product
// under any supplier other than currentSupplier and reports it when it is
// actionable for currentSupplier.
//
// Ties on usage count go to the alphabetically first supplier key.
func (e *Engine) CheckOtherSupplierTare(currentSupplier, product string) (*Warning, bool) {
	w := otherSupplierWarning(e.load(), Normalize(currentSupplier), Normalize(product))
	return w, w != nil
}

type candidate struct {
	key string
	sm  *ports.SupplierMemory
	pm  *ports.ProductMemory
}

func otherSupplierWarning(db *ports.Database, supplierKey, productKey string) *Warning {
	if supplierKey == "" || productKey == "" {
		return nil
	}

	var found []candidate
	for key, sm := range db.Suppliers {
		if key == supplierKey {
			continue
		}
		if pm, ok := sm.Products[productKey]; ok && pm.Tare > 0 {
			found = append(found, candidate{key, sm, pm})
		}
	}
	if len(found) == 0 {
		return nil
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].pm.UsageCount != found[j].pm.UsageCount {
			return found[i].pm.UsageCount > found[j].pm.UsageCount
		}
		return found[i].key < found[j].key
	})
	best := found[0]

	w := &Warning{
		Supplier:   best.sm.DisplayName,
		Product:    best.pm.DisplayName,
		Tare:       best.pm.Tare,
		UsageCount: best.pm.UsageCount,
	}

	current, hasCurrent := pairTare(db, supplierKey, productKey)
	switch {
	case !hasCurrent:
		w.Kind = WarningAdopt
		w.Message = fmt.Sprintf("O fornecedor %s usa tara de %s para %s. Usar como ponto de partida?",
			w.Supplier, grams(w.Tare), w.Product)
	case math.Abs(current-best.pm.Tare) > ConflictTolerance:
		w.Kind = WarningDiscrepancy
		w.CurrentTare = current
		w.Message = fmt.Sprintf("Tara atual deste fornecedor: %s. O fornecedor %s usa %s para %s. Taras podem variar entre fornecedores (embalagens diferentes).",
			grams(current), w.Supplier, grams(w.Tare), w.Product)
	default:
		return nil
	}
	return w
}

// grams renders a kg value as whole grams, e.g. 0.3 -> "300g".
func grams(kg float64) string {
	return fmt.Sprintf("%.0fg", kg*1000)
}
