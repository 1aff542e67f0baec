package tradelog

import (
	"testing"
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogTradeExecution_JoinsRecentContext(t *testing.T) {
	l := New(decimal.NewFromInt(1000))
	t0 := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	l.LogStrategyContext(t0, "B", 42, "Regime 3", "bullish crossover on A",
		map[string]decimal.Decimal{"sma": decimal.NewFromInt(101)},
		map[string]decimal.Decimal{"threshold": decimal.NewFromInt(100)})

	fill := types.Fill{Symbol: "B", Direction: types.Buy, Quantity: 10, FillPrice: decimal.NewFromInt(100), Timestamp: t0.Add(5 * time.Second)}
	before := types.PortfolioSnapshot{TotalValue: decimal.NewFromInt(1000), Cash: decimal.NewFromInt(1000)}
	after := types.PortfolioSnapshot{TotalValue: decimal.NewFromInt(1000), Cash: decimal.NewFromInt(0)}

	l.LogTradeExecution(fill, 42, before, after)

	require.Len(t, l.Trades(), 1)
	record := l.Trades()[0]
	assert.Equal(t, "Regime 3", record.StateLabel)
	assert.Equal(t, "bullish crossover on A", record.DecisionReason)
	assert.True(t, record.Indicators["sma"].Equal(decimal.NewFromInt(101)))
}

func TestLogTradeExecution_NoMatchRecordsUnknown(t *testing.T) {
	l := New(decimal.NewFromInt(1000))
	t0 := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	fill := types.Fill{Symbol: "B", Direction: types.Buy, Quantity: 10, FillPrice: decimal.NewFromInt(100), Timestamp: t0}
	l.LogTradeExecution(fill, 1, types.PortfolioSnapshot{}, types.PortfolioSnapshot{})

	require.Len(t, l.Trades(), 1)
	assert.Equal(t, types.UnknownStateLabel, l.Trades()[0].StateLabel)
}

func TestLogTradeExecution_OutsideWindowRecordsUnknown(t *testing.T) {
	l := New(decimal.NewFromInt(1000))
	t0 := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	l.LogStrategyContext(t0, "B", 1, "Regime 1", "reason", nil, nil)

	fill := types.Fill{Symbol: "B", Direction: types.Buy, Quantity: 10, FillPrice: decimal.NewFromInt(100), Timestamp: t0.Add(61 * time.Second)}
	l.LogTradeExecution(fill, 1, types.PortfolioSnapshot{}, types.PortfolioSnapshot{})

	assert.Equal(t, types.UnknownStateLabel, l.Trades()[0].StateLabel)
}

func TestLogTradeExecution_WrongSymbolRecordsUnknown(t *testing.T) {
	l := New(decimal.NewFromInt(1000))
	t0 := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	l.LogStrategyContext(t0, "A", 1, "Regime 1", "reason", nil, nil)

	fill := types.Fill{Symbol: "B", Direction: types.Buy, Quantity: 10, FillPrice: decimal.NewFromInt(100), Timestamp: t0}
	l.LogTradeExecution(fill, 1, types.PortfolioSnapshot{}, types.PortfolioSnapshot{})

	assert.Equal(t, types.UnknownStateLabel, l.Trades()[0].StateLabel)
}
