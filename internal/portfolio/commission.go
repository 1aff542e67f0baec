package portfolio

import "github.com/shopspring/decimal"

// CommissionSchedule computes the commission owed on a fill. The kernel
// models a single flat per-share rate — no tiered pricing, no minimums —
// matching spec.md's "commission-per-share constant."
type CommissionSchedule struct {
	perShare decimal.Decimal
}

// NewCommissionSchedule returns a schedule charging perShare dollars per
// share traded, on both buys and sells.
func NewCommissionSchedule(perShare decimal.Decimal) CommissionSchedule {
	return CommissionSchedule{perShare: perShare}
}

// Commission returns the total commission for a fill of shares shares.
func (c CommissionSchedule) Commission(shares int64) decimal.Decimal {
	return c.perShare.Mul(decimal.NewFromInt(shares))
}

// PerShare returns the configured per-share rate, used by the position
// sizing formulas (A / (p + c)) which need the rate directly.
func (c CommissionSchedule) PerShare() decimal.Decimal {
	return c.perShare
}
