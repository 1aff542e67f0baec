package portfolio

import (
	"testing"
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bar(symbol string, ts time.Time, close string) types.Bar {
	c := d(close)
	return types.Bar{Symbol: symbol, Timestamp: ts, Open: c, High: c, Low: c, Close: c, Volume: decimal.NewFromInt(1000)}
}

func TestExecuteSignal_LongEntryThenLiquidation(t *testing.T) {
	p := New(d("1000"), NewCommissionSchedule(d("0.01")), nil)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)

	bar1 := bar("X", t0, "100")
	p.UpdateMarketValue([]types.Bar{bar1})
	fill, ok := p.ExecuteSignal(types.Signal{Symbol: "X", Side: types.Buy, Timestamp: t0, PortfolioPercent: decimal.NewFromFloat(1.0)}, bar1, 1)
	require.True(t, ok)
	assert.EqualValues(t, 9, fill.Quantity)
	assert.True(t, fill.FillPrice.Equal(d("100")))
	assert.True(t, fill.Commission.Equal(d("0.09")))
	assert.True(t, p.Cash().Equal(d("99.91")), "got %s", p.Cash())

	bar2 := bar("X", t1, "110")
	p.UpdateMarketValue([]types.Bar{bar2})
	fill2, ok := p.ExecuteSignal(types.Signal{Symbol: "X", Side: types.Sell, Timestamp: t1, PortfolioPercent: decimal.Zero}, bar2, 2)
	require.True(t, ok)
	assert.EqualValues(t, 9, fill2.Quantity)
	assert.True(t, p.Cash().Equal(d("1089.82")), "got %s", p.Cash())
	assert.True(t, p.Position("X").IsFlat())

	totalReturn := p.Cash().Sub(d("1000")).Div(d("1000"))
	assert.True(t, totalReturn.Equal(d("0.08982")), "got %s", totalReturn)
}

func TestExecuteSignal_RejectsDirectLongToShortCrossover(t *testing.T) {
	p := New(d("100000"), NewCommissionSchedule(d("0.01")), nil)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := bar("X", t0, "100")
	p.UpdateMarketValue([]types.Bar{b})

	_, ok := p.ExecuteSignal(types.Signal{Symbol: "X", Side: types.Buy, Timestamp: t0, PortfolioPercent: decimal.NewFromFloat(0.1)}, b, 1)
	require.True(t, ok)
	before := p.Position("X")
	require.True(t, before.IsLong())

	fill, ok := p.ExecuteSignal(types.Signal{Symbol: "X", Side: types.Sell, Timestamp: t0, PortfolioPercent: decimal.NewFromFloat(1.0)}, b, 1)
	assert.False(t, ok)
	assert.Equal(t, types.Fill{}, fill)
	assert.Equal(t, before, p.Position("X"))
}

func TestExecuteSignal_ShortInitialMarginEnforcement(t *testing.T) {
	p := New(d("10000"), NewCommissionSchedule(d("0.01")), nil)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := bar("X", t0, "150")
	p.UpdateMarketValue([]types.Bar{b})

	fill, ok := p.ExecuteSignal(types.Signal{Symbol: "X", Side: types.Sell, Timestamp: t0, PortfolioPercent: decimal.NewFromFloat(0.8)}, b, 1)
	require.True(t, ok)
	assert.EqualValues(t, 35, fill.Quantity)
	assert.True(t, p.Cash().IsPositive())
	assert.True(t, p.Position("X").IsShort())
}

func TestExecuteSignal_InsufficientCashRejectsBuy(t *testing.T) {
	p := New(d("50"), NewCommissionSchedule(d("0.01")), nil)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := bar("X", t0, "100")
	p.UpdateMarketValue([]types.Bar{b})

	_, ok := p.ExecuteSignal(types.Signal{Symbol: "X", Side: types.Buy, Timestamp: t0, PortfolioPercent: decimal.NewFromFloat(1.0)}, b, 1)
	assert.False(t, ok)
	assert.True(t, p.Position("X").IsFlat())
}

func TestUpdateMarketValue_Idempotent(t *testing.T) {
	p := New(d("1000"), NewCommissionSchedule(d("0.01")), nil)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := bar("X", t0, "100")
	p.UpdateMarketValue([]types.Bar{b})
	first := p.TotalValue()
	p.UpdateMarketValue([]types.Bar{b})
	second := p.TotalValue()
	assert.True(t, first.Equal(second))
}

func TestExecuteSignal_LiquidateOnFlatIsNoOp(t *testing.T) {
	p := New(d("1000"), NewCommissionSchedule(d("0.01")), nil)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := bar("X", t0, "100")
	p.UpdateMarketValue([]types.Bar{b})

	_, ok := p.ExecuteSignal(types.Signal{Symbol: "X", Side: types.Sell, Timestamp: t0, PortfolioPercent: decimal.Zero}, b, 1)
	assert.False(t, ok)
}
