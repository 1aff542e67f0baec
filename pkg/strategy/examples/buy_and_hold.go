package examples

import (
	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/strategy"
	"github.com/shopspring/decimal"
)

// BuyAndHoldStrategy buys its configured symbol with 95% of the portfolio
// on the very first bar and never trades again. It exists mainly as the
// grid-search/runner baseline and as the simplest possible worked example.
type BuyAndHoldStrategy struct {
	*strategy.BaseStrategy
	symbol    string
	hasBought bool
}

// NewBuyAndHoldStrategy constructs an uninitialized buy-and-hold strategy.
func NewBuyAndHoldStrategy() strategy.Strategy {
	return &BuyAndHoldStrategy{BaseStrategy: strategy.NewBaseStrategy("BuyAndHold")}
}

func init() {
	strategy.Register("buy_and_hold", NewBuyAndHoldStrategy, []strategy.ParameterDescriptor{
		{Name: "symbol", Kind: "string", Default: "SPY"},
	})
}

// Init captures the target symbol.
func (s *BuyAndHoldStrategy) Init(params map[string]interface{}) error {
	s.SetParameters(params)
	symbol, err := s.ParameterString("symbol")
	if err != nil {
		return err
	}
	s.symbol = symbol
	s.SetSymbols([]string{symbol})
	s.hasBought = false
	return nil
}

// OnBar buys once, on the first bar for its symbol, then does nothing.
func (s *BuyAndHoldStrategy) OnBar(ctx strategy.Context, bar types.Bar) error {
	if bar.Symbol != s.symbol || s.hasBought {
		return nil
	}

	ctx.LogStrategyContext(s.symbol, "Entering", "initial allocation", nil, nil)
	ctx.Buy(s.symbol, decimal.NewFromFloat(0.95))
	s.hasBought = true
	return nil
}
