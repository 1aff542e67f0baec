package portfolio

import "github.com/shopspring/decimal"

// marginMultiplier is the Regulation T analog applied to short-sale
// initial sizing and collateral checks (spec.md §4.3.1/§4.3.2).
var marginMultiplier = decimal.NewFromFloat(1.5)

// sizeLong returns floor(allocationDollars / (price + commissionPerShare)).
func sizeLong(allocationDollars, price, commissionPerShare decimal.Decimal) int64 {
	return floorShares(allocationDollars, price.Add(commissionPerShare))
}

// sizeShort returns floor(allocationDollars / (price*1.5 + commissionPerShare)).
func sizeShort(allocationDollars, price, commissionPerShare decimal.Decimal) int64 {
	return floorShares(allocationDollars, price.Mul(marginMultiplier).Add(commissionPerShare))
}

// sizeByRisk returns floor(allocationDollars / riskPerShare), the ATR-risk
// sizing override a signal may carry instead of price-based sizing.
func sizeByRisk(allocationDollars, riskPerShare decimal.Decimal) int64 {
	return floorShares(allocationDollars, riskPerShare)
}

// floorShares returns the integer-floored share count for
// allocationDollars / perShareCost, clamped to zero for non-positive or
// degenerate inputs rather than dividing by zero or returning negative
// shares.
func floorShares(allocationDollars, perShareCost decimal.Decimal) int64 {
	if allocationDollars.IsZero() || allocationDollars.IsNegative() {
		return 0
	}
	if perShareCost.IsZero() || perShareCost.IsNegative() {
		return 0
	}
	shares := allocationDollars.Div(perShareCost).Floor()
	if shares.IsNegative() {
		return 0
	}
	return shares.IntPart()
}
