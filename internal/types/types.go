// Package types defines the core immutable data model shared by every
// component of the backtesting kernel: bars, signals, orders, fills,
// positions and the equity curve. All monetary fields are exact decimal
// and share counts are int64 — no float64 ever enters the kernel's
// arithmetic.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a signal, order or fill.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Bar is one OHLCV observation for a symbol at a timestamp.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Validate enforces the OHLC and volume invariants from the data model:
// low <= min(open, close) <= max(open, close) <= high, volume >= 0, and
// the timestamp must carry a UTC location (not the zero/naive value).
func (b Bar) Validate() error {
	if b.Timestamp.Location() != time.UTC {
		return fmt.Errorf("%s %s: timestamp is not UTC-located", b.Symbol, b.Timestamp)
	}
	lo := decimal.Min(b.Open, b.Close)
	hi := decimal.Max(b.Open, b.Close)
	if b.Low.GreaterThan(lo) {
		return fmt.Errorf("%s %s: low %s exceeds min(open,close) %s", b.Symbol, b.Timestamp, b.Low, lo)
	}
	if lo.GreaterThan(hi) {
		return fmt.Errorf("%s %s: min(open,close) %s exceeds max(open,close) %s", b.Symbol, b.Timestamp, lo, hi)
	}
	if hi.GreaterThan(b.High) {
		return fmt.Errorf("%s %s: max(open,close) %s exceeds high %s", b.Symbol, b.Timestamp, hi, b.High)
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("%s %s: volume %s is negative", b.Symbol, b.Timestamp, b.Volume)
	}
	return nil
}

// Signal is emitted by a strategy: "allocate PortfolioPercent of current
// total portfolio value to a position in Side's direction on Symbol."
// PortfolioPercent == 0 means liquidate any existing position, regardless
// of Side — the only liquidation idiom the kernel recognizes.
type Signal struct {
	Symbol           string
	Side             Side
	Timestamp        time.Time
	PortfolioPercent decimal.Decimal

	// RiskPerShare is an optional ATR-risk sizing override: when set and
	// nonzero, the portfolio sizes shares as AllocationDollars/RiskPerShare
	// instead of the notional-based long/short formula.
	RiskPerShare decimal.Decimal
}

// IsLiquidate reports whether the signal is the universal liquidation idiom.
func (s Signal) IsLiquidate() bool {
	return s.PortfolioPercent.IsZero()
}

// Order is produced by the portfolio from a signal. MARKET is the only
// order type the kernel supports (fills occur at the bar's close).
type Order struct {
	Symbol    string
	Direction Side
	Quantity  int64
	Timestamp time.Time
}

// Fill is produced on successful order execution. Fills are append-only
// and never mutated once recorded.
type Fill struct {
	Symbol     string
	Direction  Side
	Quantity   int64
	FillPrice  decimal.Decimal
	Commission decimal.Decimal
	Timestamp  time.Time

	// SecFee and FinraTaf are regulatory fee fields carried over from the
	// broker model this kernel was adapted from; they default to zero and
	// play no part in the commission formula of the sizing/constraint math.
	SecFee   decimal.Decimal
	FinraTaf decimal.Decimal
}

// Position is a per-symbol signed share count: positive long, zero flat,
// negative short.
type Position struct {
	Symbol string
	Shares int64
}

func (p Position) IsFlat() bool  { return p.Shares == 0 }
func (p Position) IsLong() bool  { return p.Shares > 0 }
func (p Position) IsShort() bool { return p.Shares < 0 }

// EquityPoint is one point on the equity curve: total portfolio value
// after all of a bar's fills have been applied.
type EquityPoint struct {
	Timestamp time.Time
	Value     decimal.Decimal
}
