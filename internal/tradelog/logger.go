// Package tradelog implements the two-phase trade-logger correlation:
// strategies record decision context before emitting a signal (Phase 1),
// the portfolio records the resulting fill after execution (Phase 2), and
// this package joins the two into a single TradeRecord.
package tradelog

import (
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// correlationWindow is the maximum time gap between a strategy context
// call and the fill it is joined with (spec.md §4.5).
const correlationWindow = 60 * time.Second

// Logger buffers recent strategy-context records and joins them against
// fills as the portfolio reports them.
type Logger struct {
	contexts []types.StrategyContextRecord
	trades   []types.TradeRecord
	nextID   int64
	initial  decimal.Decimal
	logger   zerolog.Logger
}

// New returns a Logger that computes CumulativeReturnPct against
// initialCapital.
func New(initialCapital decimal.Decimal) *Logger {
	return &Logger{initial: initialCapital, logger: logging.GetLogger("tradelog")}
}

// LogStrategyContext records Phase 1 decision context. symbol must be the
// trade symbol the forthcoming signal will target.
func (l *Logger) LogStrategyContext(ts time.Time, symbol string, barNumber int64, stateLabel, decisionReason string, indicators, thresholds map[string]decimal.Decimal) {
	l.contexts = append(l.contexts, types.StrategyContextRecord{
		Timestamp:      ts,
		Symbol:         symbol,
		BarNumber:      barNumber,
		StateLabel:     stateLabel,
		DecisionReason: decisionReason,
		Indicators:     indicators,
		Thresholds:     thresholds,
	})
}

// LogTradeExecution is Phase 2: it joins fill against the most recent
// context record for the same symbol within correlationWindow, producing
// a TradeRecord appended to the trade log. No match still produces a row,
// labeled types.UnknownStateLabel.
func (l *Logger) LogTradeExecution(fill types.Fill, barNumber int64, before, after types.PortfolioSnapshot) {
	ctx, ok := l.mostRecentMatch(fill.Symbol, fill.Timestamp)

	record := types.TradeRecord{
		Before: before,
		After:  after,
	}
	l.nextID++
	record.TradeID = l.nextID
	record.Fill = fill
	record.BarNumber = barNumber

	if ok {
		record.StateLabel = ctx.StateLabel
		record.DecisionReason = ctx.DecisionReason
		record.Indicators = ctx.Indicators
		record.Thresholds = ctx.Thresholds
	} else {
		record.StateLabel = types.UnknownStateLabel
		l.logger.Debug().Str("symbol", fill.Symbol).Time("fill_time", fill.Timestamp).Msg("no matching strategy context within correlation window")
	}

	if !l.initial.IsZero() {
		record.CumulativeReturnPct = after.TotalValue.Sub(l.initial).Div(l.initial)
	}

	l.trades = append(l.trades, record)
}

// mostRecentMatch returns the latest buffered context for symbol whose
// timestamp lies within correlationWindow of ts, if any.
func (l *Logger) mostRecentMatch(symbol string, ts time.Time) (types.StrategyContextRecord, bool) {
	var best types.StrategyContextRecord
	found := false
	for i := len(l.contexts) - 1; i >= 0; i-- {
		ctx := l.contexts[i]
		if ctx.Symbol != symbol {
			continue
		}
		delta := ts.Sub(ctx.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta > correlationWindow {
			continue
		}
		if !found || ctx.Timestamp.After(best.Timestamp) {
			best = ctx
			found = true
		}
	}
	return best, found
}

// Trades returns every trade record produced so far, in fill order.
func (l *Logger) Trades() []types.TradeRecord {
	return l.trades
}
