// Package feed adapts one or more per-symbol historical bar sequences
// into the single chronologically-ordered stream the event loop consumes.
package feed

import (
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
)

// DataFeed is the interface consumed by the kernel. Next yields bars with
// non-decreasing timestamps, ties broken by ascending symbol; the feed is
// finite, single-pass and not restartable.
type DataFeed interface {
	// Initialize prepares the feed (loads bars from the backing provider).
	Initialize() error

	// Next returns the next bar in chronological order, or nil when the
	// feed is exhausted.
	Next() (*types.Bar, error)

	// HasNext reports whether Next would return a bar.
	HasNext() bool

	// Close releases any resources held by the feed.
	Close() error

	// Symbols returns the symbols this feed was constructed over.
	Symbols() []string
}

// HistoricalDataProvider is the storage collaborator the feed merges over.
// Persistence of OHLCV bars is deliberately out of the kernel's scope; the
// kernel only depends on this boundary interface.
type HistoricalDataProvider interface {
	// Bars retrieves historical OHLCV data for symbol in [start, end],
	// ordered by ascending timestamp.
	Bars(symbol string, timeframe string, start, end time.Time) ([]types.Bar, error)

	// FirstAndLastClose returns the first and last observed close price
	// for symbol in [start, end], used for the buy-and-hold baseline. The
	// second return is false when fewer than two bars are available.
	FirstAndLastClose(symbol string, start, end time.Time) (first, last decimal.Decimal, ok bool, err error)
}
