package app

import (
	"sort"

	"github.com/corey/conferente/internal/adapters/ahocorasick"
	"github.com/corey/conferente/internal/domain/advisor"
	"github.com/corey/conferente/internal/domain/tare"
	"github.com/corey/conferente/internal/ports"
)

// maxRemembered caps how many learned tares ride along with a question.
const maxRemembered = 20

// rememberedFor returns the learned tares for suppliers and products named in
// question. Naming both narrows to the pairs that match; naming only one side
// returns every tare on that side.
func rememberedFor(db *ports.Database, question string) []advisor.Remembered {
	text := tare.Normalize(question)
	if text == "" || len(db.Suppliers) == 0 {
		return nil
	}

	var keys []string
	isSupplier := make(map[string]bool)
	isProduct := make(map[string]bool)
	for sk, sm := range db.Suppliers {
		keys = append(keys, sk)
		for pk := range sm.Products {
			keys = append(keys, pk)
		}
	}

	for _, k := range ahocorasick.NewMatcher(keys).Match(text) {
		if _, ok := db.Suppliers[k]; ok {
			isSupplier[k] = true
		}
		for _, sm := range db.Suppliers {
			if _, ok := sm.Products[k]; ok {
				isProduct[k] = true
				break
			}
		}
	}
	if len(isSupplier) == 0 && len(isProduct) == 0 {
		return nil
	}

	type hit struct {
		sk, pk string
		r      advisor.Remembered
	}
	var hits []hit
	for sk, sm := range db.Suppliers {
		for pk, pm := range sm.Products {
			if pm.Tare <= 0 {
				continue
			}
			supplierOK := len(isSupplier) == 0 || isSupplier[sk]
			productOK := len(isProduct) == 0 || isProduct[pk]
			if !supplierOK || !productOK {
				continue
			}
			hits = append(hits, hit{sk, pk, advisor.Remembered{
				Supplier: sm.DisplayName,
				Product:  pm.DisplayName,
				Tare:     pm.Tare,
				Uses:     pm.UsageCount,
			}})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sk != hits[j].sk {
			return hits[i].sk < hits[j].sk
		}
		return hits[i].pk < hits[j].pk
	})
	if len(hits) == 0 {
		return nil
	}
	if len(hits) > maxRemembered {
		hits = hits[:maxRemembered]
	}

	out := make([]advisor.Remembered, len(hits))
	for i, h := range hits {
		out[i] = h.r
	}
	return out
}
