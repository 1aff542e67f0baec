package runner

import (
	"fmt"
	"path/filepath"

	"github.com/ridopark/quantback/internal/analysis"
	"github.com/ridopark/quantback/internal/engine"
	"github.com/ridopark/quantback/internal/tradelog"
	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/feed"
	"github.com/shopspring/decimal"
)

// writeOutputs emits the trade log, portfolio-daily and summary CSVs of
// spec.md §6 into outputDir/tradesDir, named with runTag.
func writeOutputs(provider feed.HistoricalDataProvider, outputDir, tradesDir, runTag string, req Request, run engine.Run, metrics analysis.Metrics, tl *tradelog.Logger) error {
	tradesPath := filepath.Join(tradesDir, runTag+"_trades.csv")
	if err := analysis.WriteTradeLog(tradesPath, tl.Trades(), metrics); err != nil {
		return err
	}

	dailyRows := buildPortfolioDailyRows(run)
	dailyRows, initialBaselineValue, err := attachBaseline(provider, req, dailyRows)
	if err != nil {
		return err
	}

	dailyPath := filepath.Join(outputDir, runTag+".csv")
	if err := analysis.WritePortfolioDaily(dailyPath, dailyRows, req.InitialCapital, initialBaselineValue, req.BaselineSymbol, req.Symbols); err != nil {
		return err
	}

	summaryPath := filepath.Join(outputDir, runTag+"_summary.csv")
	return analysis.WriteSummary(summaryPath, metrics)
}

// buildPortfolioDailyRows turns each tick snapshot into a bare
// PortfolioDailyRow, before any baseline join.
func buildPortfolioDailyRows(run engine.Run) []analysis.PortfolioDailyRow {
	rows := make([]analysis.PortfolioDailyRow, 0, len(run.Snapshots))
	for _, snap := range run.Snapshots {
		rows = append(rows, analysis.PortfolioDailyRow{
			Timestamp:    snap.Timestamp,
			TotalValue:   snap.TotalValue,
			Cash:         snap.Cash,
			Positions:    snap.Positions,
			LatestPrices: snap.LatestPrices,
		})
	}
	return rows
}

// attachBaseline fetches the baseline symbol's own bar series and joins
// its close onto each row by exact date match, leaving HasBaseline false
// on any row the baseline has no bar for. Called by writeOutputs whenever
// a baseline symbol is set, independently of the first/last close lookup
// Run uses for the baseline metrics.
func attachBaseline(provider feed.HistoricalDataProvider, req Request, rows []analysis.PortfolioDailyRow) ([]analysis.PortfolioDailyRow, decimal.Decimal, error) {
	if req.BaselineSymbol == "" || len(rows) == 0 {
		return rows, decimal.Zero, nil
	}

	bars, err := provider.Bars(req.BaselineSymbol, req.Timeframe, req.Start, req.End)
	if err != nil {
		return rows, decimal.Zero, fmt.Errorf("fetching baseline bars for %s: %w", req.BaselineSymbol, err)
	}
	if len(bars) == 0 {
		return rows, decimal.Zero, nil
	}

	closeByDate := make(map[string]decimal.Decimal, len(bars))
	for _, b := range bars {
		closeByDate[dateKey(b)] = b.Close
	}

	initial := bars[0].Close
	for i := range rows {
		if c, ok := closeByDate[rows[i].Timestamp.Format("2006-01-02")]; ok {
			rows[i].BaselineValue = c
			rows[i].HasBaseline = true
		}
	}
	return rows, initial, nil
}

func dateKey(b types.Bar) string {
	return b.Timestamp.Format("2006-01-02")
}
