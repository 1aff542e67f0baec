package engine

import (
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
)

// Status is the terminal state of a backtest run.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Run is the event loop's output: the equity curve, fill log and
// terminal status, preserved up to the point of failure or cancellation
// (spec.md §5, §4.4 failure modes).
type Run struct {
	RunID        string
	Status       Status
	Err          error
	EquityCurve  []types.EquityPoint
	Fills        []types.Fill
	Snapshots    []TickSnapshot
	BarsObserved int64
}

// TickSnapshot is the portfolio's full state at one tick, recorded
// alongside each equity-curve point — the per-bar detail the equity
// curve alone discards but the portfolio-daily CSV (spec.md §6) needs.
type TickSnapshot struct {
	Timestamp    time.Time
	Cash         decimal.Decimal
	TotalValue   decimal.Decimal
	Positions    map[string]types.Position
	LatestPrices map[string]decimal.Decimal
}
