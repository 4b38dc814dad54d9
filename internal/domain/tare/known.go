package tare

import "sort"

// KnownSuppliers returns the display names of all learned suppliers, sorted.
func (e *Engine) KnownSuppliers() []string {
	db := e.load()
	names := make([]string, 0, len(db.Suppliers))
	for _, sm := range db.Suppliers {
		names = append(names, sm.DisplayName)
	}
	sort.Strings(names)
	return names
}

// KnownProducts returns the distinct product display names across all
// suppliers, sorted. Deduplication is on the literal display string, so
// "Caixa" and "CAIXA" under different suppliers are both listed.
func (e *Engine) KnownProducts() []string {
	db := e.load()
	seen := make(map[string]struct{})
	names := []string{}
	for _, sm := range db.Suppliers {
		for _, pm := range sm.Products {
			if _, ok := seen[pm.DisplayName]; ok {
				continue
			}
			seen[pm.DisplayName] = struct{}{}
			names = append(names, pm.DisplayName)
		}
	}
	sort.Strings(names)
	return names
}
