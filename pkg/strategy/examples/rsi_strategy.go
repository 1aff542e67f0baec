package examples

import (
	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/strategy"
	"github.com/shopspring/decimal"
)

// RSIStrategy trades a single symbol on Wilder's RSI: buys when RSI drops
// to or below buyLevel (oversold) and liquidates when RSI rises to or
// above sellLevel (overbought). Every decision — trade or hold — is
// recorded via LogStrategyContext before any signal is emitted, the
// two-phase correlation pattern the trade logger joins against fills.
type RSIStrategy struct {
	*strategy.BaseStrategy
	symbol    string
	period    int
	buyLevel  decimal.Decimal
	sellLevel decimal.Decimal
	posSize   decimal.Decimal
}

// NewRSIStrategy constructs an uninitialized RSI strategy.
func NewRSIStrategy() strategy.Strategy {
	return &RSIStrategy{BaseStrategy: strategy.NewBaseStrategy("RSI")}
}

func init() {
	strategy.Register("rsi", NewRSIStrategy, []strategy.ParameterDescriptor{
		{Name: "symbol", Kind: "string", Default: "AAPL"},
		{Name: "period", Kind: "int", Default: 14},
		{Name: "buy_level", Kind: "float", Default: 30.0},
		{Name: "sell_level", Kind: "float", Default: 70.0},
		{Name: "position_size", Kind: "float", Default: 0.90},
	})
}

// Init captures parameters and declares the traded symbol.
func (s *RSIStrategy) Init(params map[string]interface{}) error {
	s.SetParameters(params)

	symbol, err := s.ParameterString("symbol")
	if err != nil {
		return err
	}
	period, err := s.ParameterInt("period")
	if err != nil {
		return err
	}
	buyLevel, err := s.ParameterDecimal("buy_level")
	if err != nil {
		return err
	}
	sellLevel, err := s.ParameterDecimal("sell_level")
	if err != nil {
		return err
	}
	posSize, err := s.ParameterDecimal("position_size")
	if err != nil {
		return err
	}

	s.symbol = symbol
	s.period = period
	s.buyLevel = buyLevel
	s.sellLevel = sellLevel
	s.posSize = posSize
	s.SetSymbols([]string{symbol})
	return nil
}

// OnBar computes RSI over the symbol's own close history and trades on
// oversold/overbought crossings of the configured levels.
func (s *RSIStrategy) OnBar(ctx strategy.Context, bar types.Bar) error {
	if bar.Symbol != s.symbol {
		return nil
	}

	if err := s.RequireSymbols(ctx, s.period+2); err != nil {
		return err
	}

	closes := ctx.Closes(s.period+1, s.symbol)
	if len(closes) < s.period+1 {
		return nil
	}

	rsi := wilderRSI(closes, s.period)
	indicators := map[string]decimal.Decimal{"rsi": rsi}
	thresholds := map[string]decimal.Decimal{"buy_level": s.buyLevel, "sell_level": s.sellLevel}

	hasPosition := ctx.HasPosition(s.symbol)

	switch {
	case rsi.LessThanOrEqual(s.buyLevel) && !hasPosition:
		ctx.LogStrategyContext(s.symbol, "Entering", "RSI oversold", indicators, thresholds)
		ctx.Buy(s.symbol, s.posSize)
	case rsi.GreaterThanOrEqual(s.sellLevel) && hasPosition:
		ctx.LogStrategyContext(s.symbol, "Exiting", "RSI overbought", indicators, thresholds)
		ctx.Sell(s.symbol, decimal.Zero)
	default:
		ctx.LogStrategyContext(s.symbol, "Holding", "RSI within band", indicators, thresholds)
	}

	return nil
}

// wilderRSI computes Wilder's RSI over closes using simple (not smoothed)
// average gain/loss across the trailing period — adequate for a single
// window since the strategy is called once per bar with a freshly sliced
// window rather than maintaining a running smoothed average.
func wilderRSI(closes []decimal.Decimal, period int) decimal.Decimal {
	gains := decimal.Zero
	losses := decimal.Zero
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i].Sub(closes[i-1])
		if delta.IsPositive() {
			gains = gains.Add(delta)
		} else {
			losses = losses.Add(delta.Neg())
		}
	}

	if losses.IsZero() {
		return decimal.NewFromInt(100)
	}

	periodDec := decimal.NewFromInt(int64(period))
	avgGain := gains.Div(periodDec)
	avgLoss := losses.Div(periodDec)
	rs := avgGain.Div(avgLoss)

	hundred := decimal.NewFromInt(100)
	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
}
