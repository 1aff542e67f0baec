package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ridopark/quantback/internal/engine"
	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/ridopark/quantback/internal/types"
	_ "github.com/ridopark/quantback/pkg/strategy/examples"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is an in-memory HistoricalDataProvider serving, per symbol,
// the close series given to addSeries, one bar per day.
type fakeProvider struct {
	bars map[string][]types.Bar
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{bars: map[string][]types.Bar{}}
}

func (p *fakeProvider) addSeries(symbol string, start time.Time, closes []string) {
	bars := make([]types.Bar, 0, len(closes))
	for i, c := range closes {
		close := decimal.RequireFromString(c)
		bars = append(bars, types.Bar{
			Symbol:    symbol,
			Timestamp: start.AddDate(0, 0, i),
			Open:      close,
			High:      close,
			Low:       close,
			Close:     close,
			Volume:    decimal.NewFromInt(1000),
		})
	}
	p.bars[symbol] = bars
}

func (p *fakeProvider) Bars(symbol string, timeframe string, start, end time.Time) ([]types.Bar, error) {
	var out []types.Bar
	for _, b := range p.bars[symbol] {
		if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (p *fakeProvider) FirstAndLastClose(symbol string, start, end time.Time) (first, last decimal.Decimal, ok bool, err error) {
	bars, _ := p.Bars(symbol, "1D", start, end)
	if len(bars) < 2 {
		return decimal.Zero, decimal.Zero, false, nil
	}
	return bars[0].Close, bars[len(bars)-1].Close, true, nil
}

func TestRun_BuyAndHoldEndToEnd(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	provider := newFakeProvider()
	provider.addSeries("SPY", start, []string{"100", "105", "110", "120", "130"})
	provider.addSeries("QQQ", start, []string{"200", "204", "208", "212", "220"})

	req := Request{
		StrategyName:       "buy_and_hold",
		Parameters:         map[string]interface{}{"symbol": "SPY"},
		Symbols:            []string{"SPY"},
		Timeframe:          "1D",
		Start:              start,
		End:                start.AddDate(0, 0, 4),
		InitialCapital:     decimal.NewFromInt(10000),
		CommissionPerShare: decimal.NewFromFloat(0.01),
		BaselineSymbol:     "QQQ",
		OutputRoot:         t.TempDir(),
	}

	result, err := Run(context.Background(), provider, req)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusCompleted, result.Run.Status)
	assert.True(t, result.Metrics.TotalReturn.GreaterThan(decimal.Zero))
	require.NotNil(t, result.Metrics.Baseline)
	assert.Equal(t, "QQQ", result.Metrics.Baseline.Symbol)
	assert.True(t, result.Metrics.Alpha.Valid)

	assert.DirExists(t, result.OutputDir)

	tag := filepath.Base(result.OutputDir)
	assert.True(t, strings.HasPrefix(tag, "buy_and_hold_"))

	tradesPath := filepath.Join(result.OutputDir, "trades", tag+"_trades.csv")
	assert.FileExists(t, tradesPath)
	tradesContents, err := os.ReadFile(tradesPath)
	require.NoError(t, err)
	assert.Contains(t, string(tradesContents), "Trade_ID,Date,Bar_Number")
	assert.Contains(t, string(tradesContents), "SPY")

	dailyPath := filepath.Join(result.OutputDir, tag+".csv")
	assert.FileExists(t, dailyPath)
	dailyContents, err := os.ReadFile(dailyPath)
	require.NoError(t, err)
	assert.Contains(t, string(dailyContents), "Baseline_QQQ_Value,Baseline_QQQ_Return_Pct")
	assert.Contains(t, string(dailyContents), "SPY_Qty,SPY_Value")

	summaryPath := filepath.Join(result.OutputDir, tag+"_summary.csv")
	assert.FileExists(t, summaryPath)
	summaryContents, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(summaryContents), "Category,Metric,Baseline,Strategy,Difference")
}

func TestRun_UnknownStrategyIsConfigurationError(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := newFakeProvider()
	provider.addSeries("SPY", start, []string{"100", "101"})

	_, err := Run(context.Background(), provider, Request{
		StrategyName:   "does_not_exist",
		Symbols:        []string{"SPY"},
		Start:          start,
		End:            start.AddDate(0, 0, 1),
		InitialCapital: decimal.NewFromInt(1000),
		OutputRoot:     t.TempDir(),
	})
	require.ErrorIs(t, err, kernelerr.ErrConfiguration)
}

func TestRun_NoSymbolsIsInputValidationError(t *testing.T) {
	provider := newFakeProvider()
	_, err := Run(context.Background(), provider, Request{
		StrategyName:   "buy_and_hold",
		InitialCapital: decimal.NewFromInt(1000),
		OutputRoot:     t.TempDir(),
	})
	require.ErrorIs(t, err, kernelerr.ErrInputValidation)
}

func TestRun_MissingBaselineBarsOmitsAlpha(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := newFakeProvider()
	provider.addSeries("SPY", start, []string{"100", "105"})

	result, err := Run(context.Background(), provider, Request{
		StrategyName:       "buy_and_hold",
		Parameters:         map[string]interface{}{"symbol": "SPY"},
		Symbols:            []string{"SPY"},
		Start:              start,
		End:                start.AddDate(0, 0, 1),
		InitialCapital:     decimal.NewFromInt(1000),
		CommissionPerShare: decimal.Zero,
		BaselineSymbol:     "NO_SUCH_SYMBOL",
		OutputRoot:         t.TempDir(),
	})
	require.NoError(t, err)
	assert.Nil(t, result.Metrics.Baseline)
	assert.False(t, result.Metrics.Alpha.Valid)
}
