package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTradeLog_HeaderAndDynamicColumns(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []types.TradeRecord{
		{
			TradeID:        1,
			Fill:           fill("X", types.Buy, 9, "100", "0.09", t0),
			BarNumber:      0,
			StateLabel:     "Entering",
			DecisionReason: "initial allocation",
			Indicators:     map[string]decimal.Decimal{"rsi": d("28.5")},
			Thresholds:     map[string]decimal.Decimal{"buy_level": d("30")},
			Before:         types.PortfolioSnapshot{TotalValue: d("1000"), Cash: d("1000"), AllocationPct: map[string]decimal.Decimal{}},
			After:          types.PortfolioSnapshot{TotalValue: d("1000"), Cash: d("99.91"), AllocationPct: map[string]decimal.Decimal{"X": d("0.9")}},
		},
	}
	m := Compute(d("1000"), []types.EquityPoint{{Timestamp: t0, Value: d("1000")}}, nil, 252, "", nil, nil)

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, WriteTradeLog(path, trades, m))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)

	assert.True(t, strings.HasPrefix(text, "Trade_ID,Date,Bar_Number"))
	assert.Contains(t, text, "Indicator_rsi")
	assert.Contains(t, text, "Threshold_buy_level")
	assert.Contains(t, text, "Summary Statistics:")
	assert.Contains(t, text, "Sharpe_Ratio")
}

func TestWriteSummary_BaselineAbsentIsNA(t *testing.T) {
	m := Compute(d("1000"), []types.EquityPoint{{Value: d("1000")}, {Value: d("1200")}}, nil, 252, "", nil, nil)

	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, WriteSummary(path, m))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)
	assert.Contains(t, text, "Category,Metric,Baseline,Strategy,Difference")
	assert.Contains(t, text, "Comparison,Alpha,N/A,N/A,N/A")
}

func TestWritePortfolioDaily_SymbolColumns(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []PortfolioDailyRow{
		{
			Timestamp:    t0,
			TotalValue:   d("1000"),
			Cash:         d("100"),
			Positions:    map[string]types.Position{"X": {Symbol: "X", Shares: 9}},
			LatestPrices: map[string]decimal.Decimal{"X": d("100")},
		},
	}
	path := filepath.Join(t.TempDir(), "daily.csv")
	require.NoError(t, WritePortfolioDaily(path, rows, d("1000"), d("0"), "", []string{"X"}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)
	assert.Contains(t, text, "X_Qty,X_Value")
}
