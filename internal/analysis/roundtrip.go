package analysis

import (
	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
)

// roundTrip is one closed entry/exit pair on a symbol — a BUY-SELL pair
// for a long, or a SELL-BUY pair for a short (spec.md's "round-trip
// trade" in the GLOSSARY).
type roundTrip struct {
	Symbol     string
	Shares     int64
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	PnL        decimal.Decimal
}

// lot is one still-open slice of a position: positive shares is a long
// lot opened by a BUY, negative shares is a short lot opened by a SELL.
type lot struct {
	shares     int64
	price      decimal.Decimal
	commission decimal.Decimal // remaining unallocated entry commission
}

// fifoBook matches fills into round trips per symbol, FIFO, generalizing
// the teacher's PositionTracker (pkg/backtester/results.go) from
// long-only to both long and short lots: a fill closes from the front of
// the opposite-signed queue before opening a new lot of its own sign.
type fifoBook struct {
	bySymbol map[string][]lot
}

func newFIFOBook() *fifoBook {
	return &fifoBook{bySymbol: make(map[string][]lot)}
}

func (b *fifoBook) apply(fill types.Fill) []roundTrip {
	lots := b.bySymbol[fill.Symbol]
	var closed []roundTrip

	sign := int64(1)
	if fill.Direction == types.Sell {
		sign = -1
	}
	remaining := fill.Quantity

	for remaining > 0 && len(lots) > 0 && opposingSign(lots[0].shares, sign) {
		front := lots[0]
		frontAbs := abs64(front.shares)
		closeQty := min64(frontAbs, remaining)

		entryCommission := proportional(front.commission, closeQty, frontAbs)
		exitCommission := proportional(fill.Commission, closeQty, fill.Quantity)

		var pnl decimal.Decimal
		if front.shares > 0 {
			// closing a long: this fill is the SELL exit.
			pnl = fill.FillPrice.Sub(front.price).Mul(decimal.NewFromInt(closeQty))
		} else {
			// closing a short: this fill is the BUY-to-cover exit.
			pnl = front.price.Sub(fill.FillPrice).Mul(decimal.NewFromInt(closeQty))
		}
		pnl = pnl.Sub(entryCommission).Sub(exitCommission)

		closed = append(closed, roundTrip{
			Symbol:     fill.Symbol,
			Shares:     closeQty,
			EntryPrice: front.price,
			ExitPrice:  fill.FillPrice,
			PnL:        pnl,
		})

		remaining -= closeQty
		if closeQty == frontAbs {
			lots = lots[1:]
		} else {
			lots[0].commission = front.commission.Sub(entryCommission)
			if front.shares > 0 {
				lots[0].shares -= closeQty
			} else {
				lots[0].shares += closeQty
			}
		}
	}

	if remaining > 0 {
		lots = append(lots, lot{
			shares:     sign * remaining,
			price:      fill.FillPrice,
			commission: proportional(fill.Commission, remaining, fill.Quantity),
		})
	}

	b.bySymbol[fill.Symbol] = lots
	return closed
}

func opposingSign(lotShares int64, fillSign int64) bool {
	if lotShares == 0 {
		return false
	}
	if lotShares > 0 {
		return fillSign < 0
	}
	return fillSign > 0
}

func proportional(total decimal.Decimal, part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return total.Mul(decimal.NewFromInt(part)).Div(decimal.NewFromInt(whole))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// summarizeRoundTrips reduces a set of closed round trips into the
// win-rate/profit-factor statistics of spec.md §4.6.
func summarizeRoundTrips(trips []roundTrip) (count, wins, losses int, winRate, avgWin, avgLoss decimal.Decimal, profitFactor Ratio) {
	count = len(trips)
	if count == 0 {
		return 0, 0, 0, decimal.Zero, decimal.Zero, decimal.Zero, Ratio{}
	}

	sumWins := decimal.Zero
	sumLosses := decimal.Zero // kept negative
	for _, t := range trips {
		switch {
		case t.PnL.IsPositive():
			wins++
			sumWins = sumWins.Add(t.PnL)
		case t.PnL.IsNegative():
			losses++
			sumLosses = sumLosses.Add(t.PnL)
		}
	}

	winRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(count)))
	if wins > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(wins)))
	}
	if losses > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(losses)))
	}
	if !sumLosses.IsZero() {
		profitFactor = validRatio(sumWins.Div(sumLosses.Abs()))
	}
	return count, wins, losses, winRate, avgWin, avgLoss, profitFactor
}
