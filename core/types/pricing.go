package types

import "math"

// Pricing selects how a consume is costed. Exactly one field is set; a zero
// value in either is invalid.
type Pricing struct {
	UnitPrice *uint64 `json:"unitPrice,omitempty"`
	FixedCost *uint64 `json:"fixedCost,omitempty"`
}

// Valid reports whether exactly one variant is present with a positive value.
func (p Pricing) Valid() bool {
	switch {
	case p.UnitPrice != nil && p.FixedCost != nil:
		return false
	case p.UnitPrice != nil:
		return *p.UnitPrice > 0
	case p.FixedCost != nil:
		return *p.FixedCost > 0
	default:
		return false
	}
}

// Cost computes the charge for units using checked 64-bit arithmetic. ok is
// false on overflow or when no variant is set. Other malformed pricings (both
// variants set, a zero value) are not detected here; Valid reports those.
func (p Pricing) Cost(units uint64) (cost uint64, ok bool) {
	switch {
	case p.UnitPrice != nil:
		price := *p.UnitPrice
		if units != 0 && price > math.MaxUint64/units {
			return 0, false
		}
		return units * price, true
	case p.FixedCost != nil:
		return *p.FixedCost, true
	default:
		return 0, false
	}
}
