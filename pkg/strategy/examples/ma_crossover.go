package examples

import (
	"fmt"

	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/strategy"
	"github.com/shopspring/decimal"
)

// MovingAverageCrossoverStrategy is the multi-symbol signal-asset worked
// example: indicators are computed on signalSymbol, positions are opened
// on tradeSymbol. on_bar returns immediately for any bar whose symbol is
// not the signal asset — the portfolio still sees the trading vehicle's
// bars (the engine feeds every symbol through update_market_value
// regardless of which symbol a strategy acts on).
type MovingAverageCrossoverStrategy struct {
	*strategy.BaseStrategy
	signalSymbol string
	tradeSymbol  string
	shortPeriod  int
	longPeriod   int
}

// NewMovingAverageCrossoverStrategy constructs an uninitialized crossover strategy.
func NewMovingAverageCrossoverStrategy() strategy.Strategy {
	return &MovingAverageCrossoverStrategy{BaseStrategy: strategy.NewBaseStrategy("MovingAverageCrossover")}
}

func init() {
	strategy.Register("ma_crossover", NewMovingAverageCrossoverStrategy, []strategy.ParameterDescriptor{
		{Name: "signal_symbol", Kind: "string", Default: "SPY"},
		{Name: "trade_symbol", Kind: "string", Default: "SPY"},
		{Name: "short_period", Kind: "int", Default: 10},
		{Name: "long_period", Kind: "int", Default: 30},
	})
}

// Init captures parameters and declares the symbols this strategy needs.
func (s *MovingAverageCrossoverStrategy) Init(params map[string]interface{}) error {
	s.SetParameters(params)

	signalSymbol, err := s.ParameterString("signal_symbol")
	if err != nil {
		return err
	}
	tradeSymbol, err := s.ParameterString("trade_symbol")
	if err != nil {
		return err
	}
	shortPeriod, err := s.ParameterInt("short_period")
	if err != nil {
		return err
	}
	longPeriod, err := s.ParameterInt("long_period")
	if err != nil {
		return err
	}
	if shortPeriod >= longPeriod {
		return fmt.Errorf("short_period (%d) must be less than long_period (%d)", shortPeriod, longPeriod)
	}

	s.signalSymbol = signalSymbol
	s.tradeSymbol = tradeSymbol
	s.shortPeriod = shortPeriod
	s.longPeriod = longPeriod
	s.SetSymbols([]string{signalSymbol, tradeSymbol})
	return nil
}

// OnBar acts only on signal-asset bars, computing two SMAs over the
// signal asset's own close history and trading the configured vehicle.
func (s *MovingAverageCrossoverStrategy) OnBar(ctx strategy.Context, bar types.Bar) error {
	if bar.Symbol != s.signalSymbol {
		return nil
	}

	if err := s.RequireSymbols(ctx, s.longPeriod+2); err != nil {
		return err
	}

	closes := ctx.Closes(s.longPeriod+1, s.signalSymbol)
	if len(closes) < s.longPeriod+1 {
		return nil
	}

	prevShort := sma(closes[:len(closes)-1], s.shortPeriod)
	prevLong := sma(closes[:len(closes)-1], s.longPeriod)
	curShort := sma(closes, s.shortPeriod)
	curLong := sma(closes, s.longPeriod)

	wasAbove := prevShort.GreaterThan(prevLong)
	isAbove := curShort.GreaterThan(curLong)

	indicators := map[string]decimal.Decimal{
		"short_sma": curShort,
		"long_sma":  curLong,
	}

	switch {
	case !wasAbove && isAbove && !ctx.HasPosition(s.tradeSymbol):
		ctx.LogStrategyContext(s.tradeSymbol, "Entering", "bullish crossover on "+s.signalSymbol, indicators, nil)
		ctx.Buy(s.tradeSymbol, decimal.NewFromFloat(0.95))
	case wasAbove && !isAbove && ctx.HasPosition(s.tradeSymbol):
		ctx.LogStrategyContext(s.tradeSymbol, "Exiting", "bearish crossover on "+s.signalSymbol, indicators, nil)
		ctx.Sell(s.tradeSymbol, decimal.Zero)
	}

	return nil
}

// sma returns the simple moving average of the last period values in closes.
func sma(closes []decimal.Decimal, period int) decimal.Decimal {
	if len(closes) < period {
		return decimal.Zero
	}
	window := closes[len(closes)-period:]
	sum := decimal.Zero
	for _, c := range window {
		sum = sum.Add(c)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}
