package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategyContextRecord is a snapshot a strategy captures before emitting
// a signal, carrying the decision context the Signal type itself cannot:
// Signal must stay uniform across strategies, so the rich, open-ended
// "why" lives here instead and is joined back in by the trade logger.
type StrategyContextRecord struct {
	Timestamp      time.Time
	Symbol         string // the trade symbol the signal will target
	BarNumber      int64
	StateLabel     string
	DecisionReason string
	Indicators     map[string]decimal.Decimal
	Thresholds     map[string]decimal.Decimal
}

// PortfolioSnapshot captures total value, cash and per-symbol allocation
// percentages at one instant, used for the trade record's before/after pair.
type PortfolioSnapshot struct {
	TotalValue decimal.Decimal
	Cash       decimal.Decimal
	// AllocationPct maps symbol -> fraction of TotalValue held in that symbol.
	AllocationPct map[string]decimal.Decimal
}

// TradeRecord is the two-phase join of one Fill with the strategy context
// that preceded it (or "Unknown" if no context matched), augmented with
// before/after portfolio snapshots and cumulative return since run start.
// Trade records are append-only and globally numbered.
type TradeRecord struct {
	TradeID int64
	Fill    Fill

	BarNumber      int64
	StateLabel     string
	DecisionReason string
	Indicators     map[string]decimal.Decimal
	Thresholds     map[string]decimal.Decimal

	Before PortfolioSnapshot
	After  PortfolioSnapshot

	CumulativeReturnPct decimal.Decimal
}

// UnknownStateLabel is recorded when no strategy context matched a fill
// within the correlation window.
const UnknownStateLabel = "Unknown"
