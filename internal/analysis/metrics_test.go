package analysis

import (
	"testing"
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ep(days int, value string) types.EquityPoint {
	return types.EquityPoint{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days),
		Value:     d(value),
	}
}

func fill(symbol string, side types.Side, qty int64, price, commission string, ts time.Time) types.Fill {
	return types.Fill{Symbol: symbol, Direction: side, Quantity: qty, FillPrice: d(price), Commission: d(commission), Timestamp: ts}
}

func TestCompute_TotalReturn(t *testing.T) {
	equity := []types.EquityPoint{ep(0, "1000"), ep(252, "1300")}
	m := Compute(d("1000"), equity, nil, 252, "", nil, nil)
	assert.True(t, m.TotalReturn.Equal(d("0.3")), "got %s", m.TotalReturn)
}

func TestCompute_Baseline_Alpha(t *testing.T) {
	equity := []types.EquityPoint{ep(0, "1000"), ep(252, "1300")}
	first := d("100")
	last := d("120")
	m := Compute(d("1000"), equity, nil, 252, "Q", &first, &last)

	require.NotNil(t, m.Baseline)
	assert.True(t, m.Baseline.TotalReturn.Equal(d("0.2")), "got %s", m.Baseline.TotalReturn)
	require.True(t, m.Alpha.Valid)
	assert.True(t, m.Alpha.Value.Equal(d("1.5")), "got %s", m.Alpha.Value)
}

func TestCompute_Baseline_ZeroReturnIsAlphaNA(t *testing.T) {
	equity := []types.EquityPoint{ep(0, "1000"), ep(252, "1300")}
	same := d("100")
	m := Compute(d("1000"), equity, nil, 252, "Q", &same, &same)

	require.NotNil(t, m.Baseline)
	assert.True(t, m.Baseline.TotalReturn.IsZero())
	assert.False(t, m.Alpha.Valid)
}

func TestCompute_NoBaselineWhenClosesMissing(t *testing.T) {
	equity := []types.EquityPoint{ep(0, "1000"), ep(1, "1010")}
	m := Compute(d("1000"), equity, nil, 252, "Q", nil, nil)
	assert.Nil(t, m.Baseline)
	assert.False(t, m.Alpha.Valid)
}

func TestMaxDrawdown_TracksRunningPeak(t *testing.T) {
	equity := []types.EquityPoint{
		ep(0, "1000"),
		ep(1, "1200"), // new peak
		ep(2, "900"),  // -25% off peak
		ep(3, "1100"),
	}
	dd, clamped := maxDrawdown(equity)
	assert.False(t, clamped)
	assert.True(t, dd.Equal(d("-0.25")), "got %s", dd)
}

func TestMaxDrawdown_ClampsOnZeroPeak(t *testing.T) {
	equity := []types.EquityPoint{ep(0, "0"), ep(1, "100")}
	dd, clamped := maxDrawdown(equity)
	assert.True(t, clamped)
	assert.True(t, dd.GreaterThan(d("-1.0")))
}

func TestSharpeRatio_UndefinedUnderTwoObservations(t *testing.T) {
	r := sharpeRatio([]decimal.Decimal{d("0.01")}, 252)
	assert.False(t, r.Valid)
}

func TestSharpeRatio_UndefinedOnZeroStdev(t *testing.T) {
	r := sharpeRatio([]decimal.Decimal{d("0.01"), d("0.01"), d("0.01")}, 252)
	assert.False(t, r.Valid)
}

func TestSharpeRatio_Computed(t *testing.T) {
	r := sharpeRatio([]decimal.Decimal{d("0.01"), d("-0.01"), d("0.02"), d("0.00")}, 252)
	require.True(t, r.Valid)
	assert.True(t, r.Value.IsPositive())
}

func TestSortinoRatio_UndefinedWithNoDownside(t *testing.T) {
	r := sortinoRatio([]decimal.Decimal{d("0.01"), d("0.02"), d("0.00")}, 252)
	assert.False(t, r.Valid)
}

func TestSortinoRatio_Computed(t *testing.T) {
	r := sortinoRatio([]decimal.Decimal{d("0.01"), d("-0.02"), d("0.03"), d("-0.01")}, 252)
	require.True(t, r.Valid)
}

func TestCalmarRatio_UndefinedOnZeroDrawdown(t *testing.T) {
	r := calmarRatio(d("0.10"), decimal.Zero)
	assert.False(t, r.Valid)
}

func TestCalmarRatio_Computed(t *testing.T) {
	r := calmarRatio(d("0.10"), d("-0.05"))
	require.True(t, r.Valid)
	assert.True(t, r.Value.Equal(d("2")))
}

func TestTailRisk_UndefinedUnderTwentyObservations(t *testing.T) {
	returns := make([]decimal.Decimal, 10)
	for i := range returns {
		returns[i] = d("0.01")
	}
	varR, es := tailRisk(returns)
	assert.False(t, varR.Valid)
	assert.False(t, es.Valid)
}

func TestTailRisk_ComputedFromWorstObservations(t *testing.T) {
	returns := make([]decimal.Decimal, 0, 25)
	for i := 0; i < 24; i++ {
		returns = append(returns, d("0.01"))
	}
	returns = append(returns, d("-0.20"))
	varR, es := tailRisk(returns)
	require.True(t, varR.Valid)
	require.True(t, es.Valid)
	assert.True(t, varR.Value.IsPositive(), "VaR expressed as a positive loss magnitude, got %s", varR.Value)
}

func TestCompute_RoundTripWinRateFromFills(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fills := []types.Fill{
		fill("X", types.Buy, 10, "100", "0.10", t0),
		fill("X", types.Sell, 10, "110", "0.10", t0.AddDate(0, 0, 1)),
	}
	equity := []types.EquityPoint{ep(0, "1000"), ep(1, "1099.80")}
	m := Compute(d("1000"), equity, fills, 252, "", nil, nil)

	assert.Equal(t, 1, m.RoundTrips)
	assert.Equal(t, 1, m.Wins)
	assert.Equal(t, 0, m.Losses)
	assert.True(t, m.WinRate.Equal(d("1")))
}

func TestCompute_EmptyEquityCurveIsFinalEqualsInitial(t *testing.T) {
	m := Compute(d("1000"), nil, nil, 252, "", nil, nil)
	assert.True(t, m.FinalValue.Equal(d("1000")))
	assert.False(t, m.Alpha.Valid)
}
