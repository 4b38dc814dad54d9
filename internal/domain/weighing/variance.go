package weighing

import (
	"fmt"
	"math"

	"github.com/corey/conferente/internal/ports"
)

// DefaultVarianceThreshold is the difference in kg below which a registered
// weighing counts as exact.
const DefaultVarianceThreshold = 0.01

type VarianceKind string

const (
	VarianceShortage VarianceKind = "shortage"
	VarianceSurplus  VarianceKind = "surplus"
	VarianceExact    VarianceKind = "exact"
	VarianceNoTarget VarianceKind = "no_target"
)

// Variance compares the net weight with the invoice weight.
type Variance struct {
	Kind VarianceKind `json:"kind"`
	Diff float64      `json:"diff"`
}

// Classify returns how net relates to target. Diff is net - target and is
// zero when there is no target.
func Classify(net, target, threshold float64) Variance {
	if target <= 0 {
		return Variance{Kind: VarianceNoTarget}
	}
	diff := net - target
	switch {
	case diff < -threshold:
		return Variance{Kind: VarianceShortage, Diff: diff}
	case diff > threshold:
		return Variance{Kind: VarianceSurplus, Diff: diff}
	default:
		return Variance{Kind: VarianceExact, Diff: diff}
	}
}

// Summary renders the variance as the operator notification line.
func (v Variance) Summary(supplier string, net float64) string {
	switch v.Kind {
	case VarianceShortage:
		return fmt.Sprintf("%s: Faltam %.2fkg.", supplier, math.Abs(v.Diff))
	case VarianceSurplus:
		return fmt.Sprintf("%s: Sobram %.2fkg.", supplier, v.Diff)
	case VarianceExact:
		return fmt.Sprintf("%s: Peso exato.", supplier)
	default:
		return fmt.Sprintf("%s: %.2fkg", supplier, net)
	}
}

// Outcome is the result of registering a weighing.
type Outcome struct {
	Record   ports.WeighingRecord `json:"record"`
	Variance Variance             `json:"variance"`
	Learned  bool                 `json:"learned"`
	Summary  string               `json:"summary"`
}
