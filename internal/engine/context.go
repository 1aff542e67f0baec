package engine

import (
	"fmt"
	"time"

	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/ridopark/quantback/internal/portfolio"
	"github.com/ridopark/quantback/internal/tradelog"
	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/strategy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// runtimeContext is the concrete strategy.Context the event loop hands to
// a strategy's OnBar. It is rebuilt fresh for each bar so a strategy can
// never retain it across bars and see stale state.
type runtimeContext struct {
	history   *strategy.History
	portfolio *portfolio.Portfolio
	tradelog  *tradelog.Logger
	queue     *strategy.SignalQueue
	logger    zerolog.Logger
	now       time.Time
}

var _ strategy.Context = (*runtimeContext)(nil)

func (c *runtimeContext) Portfolio() strategy.PortfolioView {
	return strategy.PortfolioView{
		Cash:         c.portfolio.Cash(),
		Positions:    c.portfolio.Positions(),
		LatestPrices: c.portfolio.LatestPrices(),
		TotalValue:   c.portfolio.TotalValue(),
	}
}

func (c *runtimeContext) Position(symbol string) types.Position {
	return c.portfolio.Position(symbol)
}

func (c *runtimeContext) HasPosition(symbol string) bool {
	return !c.portfolio.Position(symbol).IsFlat()
}

func (c *runtimeContext) Cash() decimal.Decimal {
	return c.portfolio.Cash()
}

func (c *runtimeContext) Closes(lookback int, symbol string) []decimal.Decimal {
	return c.history.Closes(lookback, symbol)
}

func (c *runtimeContext) Highs(lookback int, symbol string) []decimal.Decimal {
	return c.history.Highs(lookback, symbol)
}

func (c *runtimeContext) Lows(lookback int, symbol string) []decimal.Decimal {
	return c.history.Lows(lookback, symbol)
}

func (c *runtimeContext) BarNumber() int64 {
	return c.history.BarNumber()
}

func (c *runtimeContext) Now() time.Time {
	return c.now
}

// RequireSymbols fails once the kernel has observed at least minHistory
// bars but one or more named symbols never appeared in the merged feed —
// spec.md §4.2's "fail fast with a precise message" requirement.
func (c *runtimeContext) RequireSymbols(symbols []string, minHistory int) error {
	if int(c.history.BarNumber()) < minHistory {
		return nil
	}

	seen := make(map[string]bool, len(symbols))
	for _, s := range c.history.Symbols() {
		seen[s] = true
	}

	var missing, available []string
	for _, s := range symbols {
		if seen[s] {
			available = append(available, s)
		} else {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required symbols missing from observed history: missing=%v available=%v", kernelerr.ErrInputValidation, missing, available)
	}
	return nil
}

func (c *runtimeContext) Buy(symbol string, portfolioPercent decimal.Decimal) {
	c.queue.Push(types.Signal{Symbol: symbol, Side: types.Buy, Timestamp: c.now, PortfolioPercent: portfolioPercent})
}

func (c *runtimeContext) Sell(symbol string, portfolioPercent decimal.Decimal) {
	c.queue.Push(types.Signal{Symbol: symbol, Side: types.Sell, Timestamp: c.now, PortfolioPercent: portfolioPercent})
}

func (c *runtimeContext) BuyWithRisk(symbol string, portfolioPercent, riskPerShare decimal.Decimal) {
	c.queue.Push(types.Signal{Symbol: symbol, Side: types.Buy, Timestamp: c.now, PortfolioPercent: portfolioPercent, RiskPerShare: riskPerShare})
}

func (c *runtimeContext) SellWithRisk(symbol string, portfolioPercent, riskPerShare decimal.Decimal) {
	c.queue.Push(types.Signal{Symbol: symbol, Side: types.Sell, Timestamp: c.now, PortfolioPercent: portfolioPercent, RiskPerShare: riskPerShare})
}

func (c *runtimeContext) LogStrategyContext(symbol, stateLabel, decisionReason string, indicators, thresholds map[string]decimal.Decimal) {
	if c.tradelog == nil {
		return
	}
	c.tradelog.LogStrategyContext(c.now, symbol, c.history.BarNumber(), stateLabel, decisionReason, indicators, thresholds)
}

func (c *runtimeContext) Log(level string, message string, fields map[string]interface{}) {
	event := c.logger.Info()
	switch level {
	case "debug":
		event = c.logger.Debug()
	case "warn":
		event = c.logger.Warn()
	case "error":
		event = c.logger.Error()
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(message)
}
