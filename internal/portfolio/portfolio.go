// Package portfolio is the kernel's Portfolio Simulator: it owns cash,
// positions and latest marks, sizes and validates every signal the
// strategy framework emits, and is the single component allowed to
// mutate account state.
package portfolio

import (
	"fmt"

	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TradeLogger is Phase 2 of the two-phase trade-logger correlation: the
// portfolio calls LogTradeExecution immediately after applying a fill,
// handing over the before/after snapshots the trade logger joins against
// the strategy's earlier LogStrategyContext call.
type TradeLogger interface {
	LogTradeExecution(fill types.Fill, barNumber int64, before, after types.PortfolioSnapshot)
}

// Portfolio is the kernel's single mutable account-state owner.
type Portfolio struct {
	cash         decimal.Decimal
	positions    map[string]int64 // symbol -> signed share count
	latestPrices map[string]decimal.Decimal
	commission   CommissionSchedule
	tradeLogger  TradeLogger
	logger       zerolog.Logger
}

// New constructs a Portfolio with initialCash and the given flat
// per-share commission. tradeLogger may be nil, in which case fills are
// applied without Phase 2 correlation.
func New(initialCash decimal.Decimal, commission CommissionSchedule, tradeLogger TradeLogger) *Portfolio {
	return &Portfolio{
		cash:         initialCash,
		positions:    make(map[string]int64),
		latestPrices: make(map[string]decimal.Decimal),
		commission:   commission,
		tradeLogger:  tradeLogger,
		logger:       logging.GetLogger("portfolio"),
	}
}

// Cash returns current cash.
func (p *Portfolio) Cash() decimal.Decimal {
	return p.cash
}

// Position returns the position for symbol (flat if never traded).
func (p *Portfolio) Position(symbol string) types.Position {
	return types.Position{Symbol: symbol, Shares: p.positions[symbol]}
}

// Positions returns a read-only snapshot of every non-flat position.
func (p *Portfolio) Positions() map[string]types.Position {
	out := make(map[string]types.Position, len(p.positions))
	for symbol, shares := range p.positions {
		if shares != 0 {
			out[symbol] = types.Position{Symbol: symbol, Shares: shares}
		}
	}
	return out
}

// LatestPrices returns a read-only snapshot of the latest known close per symbol.
func (p *Portfolio) LatestPrices() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.latestPrices))
	for symbol, price := range p.latestPrices {
		out[symbol] = price
	}
	return out
}

// TotalValue returns cash plus the mark-to-market value of every position.
func (p *Portfolio) TotalValue() decimal.Decimal {
	total := p.cash
	for symbol, shares := range p.positions {
		if shares == 0 {
			continue
		}
		price, ok := p.latestPrices[symbol]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(shares)))
	}
	return total
}

// MarkToMarket returns a PortfolioSnapshot of the current account state:
// total value, cash, and per-symbol allocation percentage of total value.
func (p *Portfolio) MarkToMarket() types.PortfolioSnapshot {
	total := p.TotalValue()
	allocation := make(map[string]decimal.Decimal, len(p.positions))
	for symbol, shares := range p.positions {
		if shares == 0 {
			continue
		}
		price, ok := p.latestPrices[symbol]
		if !ok {
			continue
		}
		value := price.Mul(decimal.NewFromInt(shares))
		if total.IsZero() {
			allocation[symbol] = decimal.Zero
		} else {
			allocation[symbol] = value.Div(total)
		}
	}
	return types.PortfolioSnapshot{TotalValue: total, Cash: p.cash, AllocationPct: allocation}
}

// UpdateMarketValue sets latest_prices[symbol] = bar.close for every bar
// in this tick. Must be called before any signal on the same tick is
// executed (spec.md §4.3, §4.4 step 2).
func (p *Portfolio) UpdateMarketValue(bars []types.Bar) {
	for _, bar := range bars {
		p.latestPrices[bar.Symbol] = bar.Close
	}
}

// ExecuteSignal resolves signal against current account state, validates
// it against the trading constraints, applies the fill on success, and
// reports to the trade logger. barNumber is the caller's global bar
// position (strategy.History.BarNumber()), passed through unchanged to
// LogTradeExecution so Phase 2 records the same bar number Phase 1 used.
// ok is false when the signal was rejected or sized to zero shares;
// account state is unchanged in that case.
func (p *Portfolio) ExecuteSignal(signal types.Signal, currentBar types.Bar, barNumber int64) (fill types.Fill, ok bool) {
	before := p.MarkToMarket()

	price, havePrice := p.latestPrices[signal.Symbol]
	if !havePrice {
		price = currentBar.Close
		p.logger.Debug().Str("symbol", signal.Symbol).Msg("no latest price, falling back to current bar close")
	}

	currentShares := p.positions[signal.Symbol]
	portfolioValue := before.TotalValue
	allocationDollars := portfolioValue.Mul(signal.PortfolioPercent)

	var direction types.Side
	var shares int64

	if signal.IsLiquidate() {
		if currentShares == 0 {
			return types.Fill{}, false
		}
		if currentShares > 0 {
			direction = types.Sell
			shares = currentShares
		} else {
			direction = types.Buy
			shares = -currentShares
		}
	} else {
		direction = signal.Side
		shares = p.sizeSignal(signal, allocationDollars, price)
		if shares <= 0 {
			p.logger.Debug().Str("symbol", signal.Symbol).Msg("signal sized to zero shares, no-op")
			return types.Fill{}, false
		}
	}

	if reason, rejected := p.validate(direction, shares, price, currentShares); rejected {
		p.logger.Warn().
			Str("symbol", signal.Symbol).
			Str("rule", reason).
			Str("cash", p.cash.String()).
			Int64("shares", shares).
			Msg("signal rejected")
		return types.Fill{}, false
	}

	commission := p.commission.Commission(shares)
	switch direction {
	case types.Buy:
		p.cash = p.cash.Sub(price.Mul(decimal.NewFromInt(shares))).Sub(commission)
		p.positions[signal.Symbol] = currentShares + shares
	case types.Sell:
		p.cash = p.cash.Add(price.Mul(decimal.NewFromInt(shares))).Sub(commission)
		p.positions[signal.Symbol] = currentShares - shares
	}
	if p.positions[signal.Symbol] == 0 {
		delete(p.positions, signal.Symbol)
	}

	fill = types.Fill{
		Symbol:     signal.Symbol,
		Direction:  direction,
		Quantity:   shares,
		FillPrice:  price,
		Commission: commission,
		Timestamp:  currentBar.Timestamp,
	}

	after := p.MarkToMarket()
	if p.tradeLogger != nil {
		p.tradeLogger.LogTradeExecution(fill, barNumber, before, after)
	}

	return fill, true
}

func (p *Portfolio) sizeSignal(signal types.Signal, allocationDollars, price decimal.Decimal) int64 {
	if !signal.RiskPerShare.IsZero() {
		return sizeByRisk(allocationDollars, signal.RiskPerShare)
	}
	if signal.Side == types.Buy {
		return sizeLong(allocationDollars, price, p.commission.PerShare())
	}
	return sizeShort(allocationDollars, price, p.commission.PerShare())
}

// validate checks the trading constraints in the exact order spec.md
// §4.3.2 specifies, returning the rejection reason if any rule fails.
func (p *Portfolio) validate(direction types.Side, shares int64, price decimal.Decimal, currentShares int64) (reason string, rejected bool) {
	cost := price.Mul(decimal.NewFromInt(shares))
	commission := p.commission.Commission(shares)

	if direction == types.Buy {
		needed := cost.Add(commission)
		if needed.GreaterThan(p.cash) {
			return fmt.Sprintf("insufficient cash: need %s, have %s", needed, p.cash), true
		}
	}

	targetShares := currentShares
	if direction == types.Buy {
		targetShares += shares
	} else {
		targetShares -= shares
	}
	if (currentShares > 0 && targetShares < 0) || (currentShares < 0 && targetShares > 0) {
		return "direct long/short crossover not allowed; liquidate first", true
	}

	if direction == types.Sell {
		if currentShares > 0 {
			if shares > currentShares {
				return fmt.Sprintf("sell quantity %d exceeds long position %d", shares, currentShares), true
			}
			return "", false
		}

		// SELL while FLAT or SHORT: 1.5x notional collateral check on the
		// additional shares being sold.
		collateral := cost.Mul(marginMultiplier).Add(commission)
		if collateral.GreaterThan(p.cash) {
			return fmt.Sprintf("insufficient collateral for short: need %s, have %s", collateral, p.cash), true
		}
	}

	return "", false
}
