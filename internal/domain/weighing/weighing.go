// Package weighing holds the pure arithmetic and validation of a single
// conferência: how the tare is composed, what the scale reading means, and
// whether an entry is complete enough to be registered.
package weighing

import (
	"errors"
	"math"
	"strings"
)

// TareMode selects whether a tare is subtracted at all.
type TareMode string

const (
	TareManual TareMode = "manual"
	TareNone   TareMode = "none"
)

// ParseTareMode accepts "manual" and "none"; anything else is manual.
func ParseTareMode(s string) TareMode {
	if strings.EqualFold(strings.TrimSpace(s), string(TareNone)) {
		return TareNone
	}
	return TareManual
}

// TareBreakdown is the operator's tare input: a per-box product tare and an
// optional extra packaging weight (pallet, film, crate).
type TareBreakdown struct {
	ProductTare       float64 `json:"product_tare"`
	ProductQty        int     `json:"product_qty"`
	PackageUnitWeight float64 `json:"package_unit_weight"`
	PackageQty        int     `json:"package_qty"`
}

// Total returns the tare in kg subtracted from the gross weight.
func (b TareBreakdown) Total(mode TareMode) float64 {
	if mode == TareNone {
		return 0
	}
	return b.ProductTare*float64(b.ProductQty) + b.PackageUnitWeight*float64(b.PackageQty)
}

// Learnable reports whether this breakdown carries a per-unit product tare
// worth remembering for the supplier/product pair.
func (b TareBreakdown) Learnable() bool {
	return b.ProductTare > 0 && b.ProductQty > 0
}

// Reading is a scale reading after tare subtraction.
type Reading struct {
	Gross float64 `json:"gross"`
	Tare  float64 `json:"tare"`
	Net   float64 `json:"net"`
}

// Compute derives the reading for a gross weight. Net never goes negative.
func Compute(gross float64, b TareBreakdown, mode TareMode) Reading {
	tare := b.Total(mode)
	return Reading{
		Gross: gross,
		Tare:  tare,
		Net:   math.Max(0, gross-tare),
	}
}

// Identification names what is being checked.
type Identification struct {
	Supplier     string  `json:"supplier"`
	Product      string  `json:"product"`
	TargetWeight float64 `json:"target_weight"`
}

// Entry is everything the operator has filled in at the moment of registering.
type Entry struct {
	Identification
	Gross     float64       `json:"gross"`
	Breakdown TareBreakdown `json:"breakdown"`
	Mode      TareMode      `json:"mode"`
	Photo     string        `json:"photo,omitempty"`
}

// Reading computes the entry's current scale reading.
func (e Entry) Reading() Reading {
	return Compute(e.Gross, e.Breakdown, e.Mode)
}

var (
	ErrNoSupplier = errors.New("fornecedor não informado")
	ErrNoProduct  = errors.New("produto não selecionado")
	ErrNoLoad     = errors.New("sem carga na balança")
	ErrInvalidNet = errors.New("peso líquido inválido")
	ErrNoTarget   = errors.New("peso da nota não digitado")
)

// Validate checks the entry in the order the operator is expected to fill it
// and returns the first problem found.
func (e Entry) Validate() error {
	switch {
	case strings.TrimSpace(e.Supplier) == "":
		return ErrNoSupplier
	case strings.TrimSpace(e.Product) == "":
		return ErrNoProduct
	case e.Gross <= 0:
		return ErrNoLoad
	case e.Reading().Net <= 0:
		return ErrInvalidNet
	case e.TargetWeight <= 0:
		return ErrNoTarget
	}
	return nil
}
