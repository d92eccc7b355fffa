package analytics

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultUOMLabel is shown for transactions without a unit of measure
const DefaultUOMLabel = "Units"

// UOMRule converts one business unit's deliveries to the display unit.
// Deliveries already recorded in one of NativeUOMs are taken as is; the
// rest are converted through their gross weight.
type UOMRule struct {
	NativeUOMs []string
}

// UOMPolicy normalizes delivered quantities so sums share one unit.
// Units without a rule keep their recorded quantity and UOM.
type UOMPolicy struct {
	DisplayUnit string
	// WeightPerDisplayUnit is the gross weight of one display unit,
	// e.g. 1000 kg per metric ton.
	WeightPerDisplayUnit decimal.Decimal
	Units                map[string]UOMRule
}

// Converts reports whether unitID's quantities are converted
func (p UOMPolicy) Converts(unitID string) bool {
	_, ok := p.Units[unitID]
	return ok && p.DisplayUnit != ""
}

// IsNative reports whether uom is already the display unit for unitID
func (p UOMPolicy) IsNative(unitID, uom string) bool {
	for _, native := range p.Units[unitID].NativeUOMs {
		if strings.EqualFold(strings.TrimSpace(uom), native) {
			return true
		}
	}
	return false
}

// Quantity returns t's quantity in its display unit
func (p UOMPolicy) Quantity(t Transaction) decimal.Decimal {
	if !p.Converts(t.BusinessUnitID) || p.IsNative(t.BusinessUnitID, t.UOM) {
		return t.Quantity
	}
	if p.WeightPerDisplayUnit.IsZero() {
		return t.Quantity
	}
	return t.Quantity.Mul(t.GrossWeight).Div(p.WeightPerDisplayUnit)
}

// Label returns the display unit of measure for t
func (p UOMPolicy) Label(t Transaction) string {
	if p.Converts(t.BusinessUnitID) {
		return p.DisplayUnit
	}
	if uom := strings.TrimSpace(t.UOM); uom != "" {
		return uom
	}
	return DefaultUOMLabel
}

// Apply returns t with its quantity and UOM in display terms
func (p UOMPolicy) Apply(t Transaction) Transaction {
	t.Quantity = p.Quantity(t)
	t.UOM = p.Label(t)
	return t
}
