// Package engine is the kernel's Event Loop: the single pass over the
// merged bar stream that drives the strategy and portfolio collaborators
// in the exact order spec.md §4.4 requires.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/ridopark/quantback/internal/portfolio"
	"github.com/ridopark/quantback/internal/tradelog"
	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/feed"
	"github.com/ridopark/quantback/pkg/logging"
	"github.com/ridopark/quantback/pkg/strategy"
	"github.com/rs/zerolog"
)

// Engine wires a feed, a strategy, a portfolio and an optional trade
// logger into one deterministic, single-threaded event loop.
type Engine struct {
	feed      feed.DataFeed
	strategy  strategy.Strategy
	portfolio *portfolio.Portfolio
	tradelog  *tradelog.Logger
	logger    zerolog.Logger
	runID     string

	history *strategy.History
	pending *types.Bar
}

// New constructs an Engine. tradelog may be nil. Each Engine is stamped
// with a fresh RunID so a run's log lines and output artifacts can be
// correlated even when several runs execute against the same strategy
// name, as a grid search's runs do.
func New(f feed.DataFeed, s strategy.Strategy, p *portfolio.Portfolio, tl *tradelog.Logger) *Engine {
	return &Engine{
		feed:      f,
		strategy:  s,
		portfolio: p,
		tradelog:  tl,
		logger:    logging.GetLogger("engine"),
		runID:     uuid.New().String(),
		history:   strategy.NewHistory(),
	}
}

// Run drives the merged bar stream to completion, to a strategy error, to
// a feed error, or to ctx cancellation — whichever comes first. The
// returned Run always carries whatever equity curve and fills were
// produced before termination.
func (e *Engine) Run(ctx context.Context) Run {
	run := Run{Status: StatusCompleted, RunID: e.runID}

	if err := e.feed.Initialize(); err != nil {
		run.Status = StatusFailed
		run.Err = fmt.Errorf("initializing data feed: %w", err)
		return run
	}
	defer e.feed.Close()

	for e.feed.HasNext() || e.pending != nil {
		select {
		case <-ctx.Done():
			run.Status = StatusCancelled
			run.Err = ctx.Err()
			return e.finish(run)
		default:
		}

		tick, err := e.nextTick()
		if err != nil {
			run.Status = StatusFailed
			run.Err = fmt.Errorf("reading bar stream: %w", err)
			return e.finish(run)
		}
		if len(tick) == 0 {
			break
		}

		e.portfolio.UpdateMarketValue(tick)

		queue := strategy.NewSignalQueue()
		tickTimestamp := tick[0].Timestamp

		for _, bar := range tick {
			e.history.Append(bar)

			rc := &runtimeContext{
				history:   e.history,
				portfolio: e.portfolio,
				tradelog:  e.tradelog,
				queue:     queue,
				logger:    e.logger,
				now:       bar.Timestamp,
			}

			if err := e.strategy.OnBar(rc, bar); err != nil {
				run.Status = StatusFailed
				run.Err = fmt.Errorf("%w on bar %s@%s: %w", kernelerr.ErrStrategy, bar.Symbol, bar.Timestamp, err)
				return e.finish(run)
			}
		}

		for _, signal := range queue.Drain() {
			executionBar := tick[len(tick)-1]
			for _, b := range tick {
				if b.Symbol == signal.Symbol {
					executionBar = b
					break
				}
			}
			if fill, ok := e.portfolio.ExecuteSignal(signal, executionBar, e.history.BarNumber()); ok {
				run.Fills = append(run.Fills, fill)
			}
		}

		totalValue := e.portfolio.TotalValue()
		run.EquityCurve = append(run.EquityCurve, types.EquityPoint{
			Timestamp: tickTimestamp,
			Value:     totalValue,
		})
		run.Snapshots = append(run.Snapshots, TickSnapshot{
			Timestamp:    tickTimestamp,
			Cash:         e.portfolio.Cash(),
			TotalValue:   totalValue,
			Positions:    e.portfolio.Positions(),
			LatestPrices: e.portfolio.LatestPrices(),
		})
		run.BarsObserved += int64(len(tick))
	}

	return e.finish(run)
}

// nextTick drains the feed for every bar sharing the next timestamp,
// since update_market_value and the per-tick signal queue operate on the
// whole group of same-timestamp bars together (spec.md §4.3, §4.4): "mark-
// to-market precedes strategy call precedes signal execution" must hold
// across every symbol delivered at that instant, not just the first.
func (e *Engine) nextTick() ([]types.Bar, error) {
	first := e.pending
	e.pending = nil
	if first == nil {
		if !e.feed.HasNext() {
			return nil, nil
		}
		b, err := e.feed.Next()
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, nil
		}
		first = b
	}

	tick := []types.Bar{*first}
	for e.feed.HasNext() {
		next, err := e.feed.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		if next.Timestamp.Equal(first.Timestamp) {
			tick = append(tick, *next)
			continue
		}
		e.pending = next
		break
	}
	return tick, nil
}

func (e *Engine) finish(run Run) Run {
	e.logger.Info().
		Str("run_id", run.RunID).
		Int64("bars_observed", run.BarsObserved).
		Int("fills", len(run.Fills)).
		Str("status", string(run.Status)).
		Msg("backtest run finished")
	return run
}
