package examples

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestSMA(t *testing.T) {
	closes := decimals(10, 20, 30, 40)
	assert.True(t, sma(closes, 2).Equal(decimal.NewFromFloat(35)))
	assert.True(t, sma(closes, 4).Equal(decimal.NewFromFloat(25)))
	assert.True(t, sma(closes, 5).IsZero(), "insufficient history returns zero")
}

func TestWilderRSI_AllGainsIsHundred(t *testing.T) {
	closes := decimals(10, 11, 12, 13, 14, 15)
	rsi := wilderRSI(closes, 5)
	assert.True(t, rsi.Equal(decimal.NewFromInt(100)))
}

func TestWilderRSI_MixedMovement(t *testing.T) {
	closes := decimals(100, 102, 101, 103, 99, 98)
	rsi := wilderRSI(closes, 5)
	assert.True(t, rsi.GreaterThan(decimal.Zero))
	assert.True(t, rsi.LessThan(decimal.NewFromInt(100)))
}

func TestMovingAverageCrossoverStrategy_Init_RejectsBadPeriods(t *testing.T) {
	s := NewMovingAverageCrossoverStrategy()
	err := s.Init(map[string]interface{}{
		"signal_symbol": "SPY",
		"trade_symbol":  "QQQ",
		"short_period":  30,
		"long_period":   10,
	})
	require.Error(t, err)
}

func TestMovingAverageCrossoverStrategy_Init_Valid(t *testing.T) {
	s := NewMovingAverageCrossoverStrategy()
	err := s.Init(map[string]interface{}{
		"signal_symbol": "SPY",
		"trade_symbol":  "QQQ",
		"short_period":  10,
		"long_period":   30,
	})
	require.NoError(t, err)
	assert.Equal(t, "MovingAverageCrossover", s.Name())
}

func TestRSIStrategy_Init_Defaults(t *testing.T) {
	s := NewRSIStrategy()
	err := s.Init(map[string]interface{}{
		"symbol":        "AAPL",
		"period":        14,
		"buy_level":     30.0,
		"sell_level":    70.0,
		"position_size": 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "RSI", s.Name())
}
