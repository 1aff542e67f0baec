package analysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
)

// decimalString is the kernel's CSV serialization boundary: the single
// function, alongside powFloat/sqrtFloat in metrics.go, permitted to turn
// a decimal.Decimal into anything other than exact decimal text. It
// exists only because encoding/csv writes strings; no arithmetic happens
// here (spec.md §4.6, §9: "conversion to float is permitted only at CSV
// emission ... and only at a single boundary function").
func decimalString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func pctString(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(4)
}

func naOr(r Ratio) string {
	if !r.Valid {
		return "N/A"
	}
	return decimalString(r.Value)
}

// WriteTradeLog emits the trade-log CSV of spec.md §6: one row per trade
// record, stable columns, dynamic Indicator_/Threshold_ columns unioned
// across every record, a trailing blank line and a Summary Statistics
// section.
func WriteTradeLog(path string, trades []types.TradeRecord, m Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trade log %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	indicatorCols, thresholdCols := dynamicColumns(trades)

	header := []string{
		"Trade_ID", "Date", "Bar_Number", "Strategy_State", "Ticker", "Decision",
		"Decision_Reason", "Order_Type", "Shares", "Fill_Price", "Position_Value",
		"Slippage", "Commission", "Portfolio_Value_Before", "Portfolio_Value_After",
		"Cash_Before", "Cash_After", "Allocation_Before", "Allocation_After",
		"Cumulative_Return_Pct",
	}
	for _, c := range indicatorCols {
		header = append(header, "Indicator_"+c)
	}
	for _, c := range thresholdCols {
		header = append(header, "Threshold_"+c)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		positionValue := t.Fill.FillPrice.Mul(decimal.NewFromInt(t.Fill.Quantity))
		allocBefore := decimal.Zero
		allocAfter := decimal.Zero
		if v, ok := t.Before.AllocationPct[t.Fill.Symbol]; ok {
			allocBefore = v
		}
		if v, ok := t.After.AllocationPct[t.Fill.Symbol]; ok {
			allocAfter = v
		}

		row := []string{
			fmt.Sprintf("%d", t.TradeID),
			t.Fill.Timestamp.Format("2006-01-02"),
			fmt.Sprintf("%d", t.BarNumber),
			t.StateLabel,
			t.Fill.Symbol,
			string(t.Fill.Direction),
			t.DecisionReason,
			"MARKET",
			fmt.Sprintf("%d", t.Fill.Quantity),
			decimalString(t.Fill.FillPrice),
			decimalString(positionValue),
			decimalString(decimal.Zero), // Slippage: not modeled, see DESIGN.md
			decimalString(t.Fill.Commission),
			decimalString(t.Before.TotalValue),
			decimalString(t.After.TotalValue),
			decimalString(t.Before.Cash),
			decimalString(t.After.Cash),
			pctString(allocBefore),
			pctString(allocAfter),
			pctString(t.CumulativeReturnPct),
		}
		for _, c := range indicatorCols {
			if v, ok := t.Indicators[c]; ok {
				row = append(row, decimalString(v))
			} else {
				row = append(row, "")
			}
		}
		for _, c := range thresholdCols {
			if v, ok := t.Thresholds[c]; ok {
				row = append(row, decimalString(v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := f.WriteString("\nSummary Statistics:\n"); err != nil {
		return err
	}
	sw := csv.NewWriter(f)
	for _, kv := range summaryStatisticsRows(m) {
		if err := sw.Write(kv); err != nil {
			return err
		}
	}
	sw.Flush()
	return sw.Error()
}

func summaryStatisticsRows(m Metrics) [][]string {
	rows := [][]string{
		{"Key", "Value"},
		{"Total_Return_Pct", pctString(m.TotalReturn)},
		{"Annualized_Return_Pct", pctString(m.AnnualizedReturn)},
		{"Max_Drawdown_Pct", pctString(m.MaxDrawdown)},
		{"Sharpe_Ratio", naOr(m.Sharpe)},
		{"Sortino_Ratio", naOr(m.Sortino)},
		{"Calmar_Ratio", naOr(m.Calmar)},
		{"VaR_95_Pct", naOr(m.VaR95)},
		{"Expected_Shortfall_Pct", naOr(m.ExpectedShortfall)},
		{"Round_Trips", fmt.Sprintf("%d", m.RoundTrips)},
		{"Wins", fmt.Sprintf("%d", m.Wins)},
		{"Losses", fmt.Sprintf("%d", m.Losses)},
		{"Win_Rate_Pct", pctString(m.WinRate)},
		{"Avg_Win", decimalString(m.AvgWin)},
		{"Avg_Loss", decimalString(m.AvgLoss)},
		{"Profit_Factor", naOr(m.ProfitFactor)},
	}
	if m.Baseline != nil {
		rows = append(rows,
			[]string{"Baseline_Symbol", m.Baseline.Symbol},
			[]string{"Baseline_Total_Return_Pct", pctString(m.Baseline.TotalReturn)},
			[]string{"Alpha", naOr(m.Alpha)},
		)
	}
	return rows
}

func dynamicColumns(trades []types.TradeRecord) (indicators, thresholds []string) {
	indSeen := map[string]bool{}
	thrSeen := map[string]bool{}
	for _, t := range trades {
		for k := range t.Indicators {
			indSeen[k] = true
		}
		for k := range t.Thresholds {
			thrSeen[k] = true
		}
	}
	for k := range indSeen {
		indicators = append(indicators, k)
	}
	for k := range thrSeen {
		thresholds = append(thresholds, k)
	}
	sort.Strings(indicators)
	sort.Strings(thresholds)
	return indicators, thresholds
}

// PortfolioDailyRow is one bar's worth of portfolio/baseline state,
// gathered by the runner while replaying the equity curve against
// per-symbol positions (spec.md §6's `{strategy}_{ts}.csv`).
type PortfolioDailyRow struct {
	Timestamp        time.Time
	TotalValue       decimal.Decimal
	Cash             decimal.Decimal
	Positions        map[string]types.Position // symbol -> shares
	LatestPrices     map[string]decimal.Decimal
	BaselineValue    decimal.Decimal // zero if no baseline
	HasBaseline      bool
}

// WritePortfolioDaily emits the daily portfolio CSV: one row per bar,
// with a day-over-day change percent, overall return, optional baseline
// columns, and a Qty/Value pair per tracked symbol.
func WritePortfolioDaily(path string, rows []PortfolioDailyRow, initialCapital decimal.Decimal, initialBaselineValue decimal.Decimal, baselineSymbol string, symbols []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating portfolio daily CSV %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	hasBaseline := len(rows) > 0 && rows[0].HasBaseline

	header := []string{"Date", "Portfolio_Total_Value", "Portfolio_Day_Change_Pct", "Portfolio_Overall_Return", "Portfolio_PL_Percent"}
	if hasBaseline {
		header = append(header, "Baseline_"+baselineSymbol+"_Value", "Baseline_"+baselineSymbol+"_Return_Pct")
	}
	header = append(header, "Cash")
	for _, sym := range symbols {
		header = append(header, sym+"_Qty", sym+"_Value")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	prevValue := initialCapital
	for _, r := range rows {
		dayChange := decimal.Zero
		if !prevValue.IsZero() {
			dayChange = r.TotalValue.Div(prevValue).Sub(decimal.NewFromInt(1))
		}
		overallReturn := decimal.Zero
		if !initialCapital.IsZero() {
			overallReturn = r.TotalValue.Div(initialCapital).Sub(decimal.NewFromInt(1))
		}

		row := []string{
			r.Timestamp.Format("2006-01-02"),
			decimalString(r.TotalValue),
			pctString(dayChange),
			pctString(overallReturn),
			pctString(overallReturn),
		}
		if hasBaseline {
			baseReturn := decimal.Zero
			if !initialBaselineValue.IsZero() {
				baseReturn = r.BaselineValue.Div(initialBaselineValue).Sub(decimal.NewFromInt(1))
			}
			row = append(row, decimalString(r.BaselineValue), pctString(baseReturn))
		}
		row = append(row, decimalString(r.Cash))

		for _, sym := range symbols {
			pos := r.Positions[sym]
			price := r.LatestPrices[sym]
			value := price.Mul(decimal.NewFromInt(pos.Shares))
			row = append(row, fmt.Sprintf("%d", pos.Shares), decimalString(value))
		}

		if err := w.Write(row); err != nil {
			return err
		}
		prevValue = r.TotalValue
	}

	w.Flush()
	return w.Error()
}

// WriteSummary emits the summary CSV of spec.md §6, one row per metric
// grouped by category:
// Category, Metric, Baseline, Strategy, Difference.
func WriteSummary(path string, m Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary CSV %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Category", "Metric", "Baseline", "Strategy", "Difference"}); err != nil {
		return err
	}

	baseTotal, baseAnnualized := "N/A", "N/A"
	diffTotal, diffAnnualized := "N/A", "N/A"
	if m.Baseline != nil {
		baseTotal = pctString(m.Baseline.TotalReturn)
		baseAnnualized = pctString(m.Baseline.AnnualizedReturn)
		diffTotal = pctString(m.TotalReturn.Sub(m.Baseline.TotalReturn))
		diffAnnualized = pctString(m.AnnualizedReturn.Sub(m.Baseline.AnnualizedReturn))
	}

	rows := [][]string{
		{"Performance", "Total_Return_Pct", baseTotal, pctString(m.TotalReturn), diffTotal},
		{"Performance", "Annualized_Return_Pct", baseAnnualized, pctString(m.AnnualizedReturn), diffAnnualized},
		{"Risk", "Max_Drawdown_Pct", "N/A", pctString(m.MaxDrawdown), "N/A"},
		{"Risk", "Sharpe_Ratio", "N/A", naOr(m.Sharpe), "N/A"},
		{"Risk", "Sortino_Ratio", "N/A", naOr(m.Sortino), "N/A"},
		{"Risk", "Calmar_Ratio", "N/A", naOr(m.Calmar), "N/A"},
		{"Risk", "VaR_95_Pct", "N/A", naOr(m.VaR95), "N/A"},
		{"Risk", "Expected_Shortfall_Pct", "N/A", naOr(m.ExpectedShortfall), "N/A"},
		{"Trading", "Round_Trips", "N/A", fmt.Sprintf("%d", m.RoundTrips), "N/A"},
		{"Trading", "Win_Rate_Pct", "N/A", pctString(m.WinRate), "N/A"},
		{"Trading", "Profit_Factor", "N/A", naOr(m.ProfitFactor), "N/A"},
		{"Comparison", "Alpha", "N/A", naOr(m.Alpha), "N/A"},
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
