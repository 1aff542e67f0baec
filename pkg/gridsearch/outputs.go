package gridsearch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
)

func decimalString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func pctString(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(4)
}

// writeRunConfig emits one row per run listing its symbol set and the
// parameter values it was instantiated with (spec.md §4.8).
func writeRunConfig(gridDir string, outcomes []RunOutcome) error {
	f, err := os.Create(filepath.Join(gridDir, "run_config.csv"))
	if err != nil {
		return fmt.Errorf("creating run_config.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	paramNames := unionParameterNames(outcomes)
	header := append([]string{"Run_ID", "Symbol_Set"}, paramNames...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, o := range outcomes {
		row := []string{o.Spec.ID, o.Spec.SymbolSet.Name}
		for _, name := range paramNames {
			row = append(row, fmt.Sprintf("%v", o.Spec.Parameters[name]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func unionParameterNames(outcomes []RunOutcome) []string {
	seen := map[string]bool{}
	for _, o := range outcomes {
		for k := range o.Spec.Parameters {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// writeSummaryComparison emits one row per run with its return, drawdown,
// Sharpe, round-trip, win-rate, profit-factor and Alpha metrics (average
// win/loss, Sortino, Calmar and tail-risk metrics are not included), an
// Error column for runs that failed (failure isolation
// means they still get a row, not a missing one), and an optional row
// "000" carrying the grid's shared baseline with an Alpha column on
// every strategy row (spec.md §4.8).
func writeSummaryComparison(gridDir string, summary Summary) error {
	f, err := os.Create(filepath.Join(gridDir, "summary_comparison.csv"))
	if err != nil {
		return fmt.Errorf("creating summary_comparison.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"Run_ID", "Engine_Run_ID", "Symbol_Set", "Total_Return_Pct", "Annualized_Return_Pct",
		"Max_Drawdown_Pct", "Sharpe_Ratio", "Round_Trips", "Win_Rate_Pct",
		"Profit_Factor", "Alpha", "Error",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	if summary.Baseline != nil {
		row := []string{
			"000", "", "baseline",
			pctString(summary.Baseline.TotalReturn),
			pctString(summary.Baseline.AnnualizedReturn),
			"N/A", "N/A", "0", "N/A", "N/A", "N/A", "",
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, o := range summary.Outcomes {
		if o.Err != nil {
			row := []string{
				o.Spec.ID, "", o.Spec.SymbolSet.Name,
				"N/A", "N/A", "N/A", "N/A", "0", "N/A", "N/A", "N/A",
				o.Err.Error(),
			}
			if err := w.Write(row); err != nil {
				return err
			}
			continue
		}

		m := o.Result.Metrics
		row := []string{
			o.Spec.ID, o.Result.Run.RunID, o.Spec.SymbolSet.Name,
			pctString(m.TotalReturn),
			pctString(m.AnnualizedReturn),
			pctString(m.MaxDrawdown),
			naOr(m.Sharpe),
			fmt.Sprintf("%d", m.RoundTrips),
			pctString(m.WinRate),
			naOr(m.ProfitFactor),
			naOr(m.Alpha),
			"",
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func naOr(r interface{ String() string }) string {
	return r.String()
}

// writeReadme emits a short plain-text run summary alongside the CSVs.
func writeReadme(gridDir string, cfg Config, summary Summary) error {
	f, err := os.Create(filepath.Join(gridDir, "README.txt"))
	if err != nil {
		return fmt.Errorf("creating README.txt: %w", err)
	}
	defer f.Close()

	succeeded, failed := 0, 0
	for _, o := range summary.Outcomes {
		if o.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	_, err = fmt.Fprintf(f,
		"Grid search: %s\nSymbol sets: %d\nRuns completed: %d\nRuns failed: %d\nBaseline symbol: %s\n\nSee run_config.csv for per-run parameters and summary_comparison.csv for metrics.\n",
		cfg.Strategy, len(cfg.SymbolSets), succeeded, failed, cfg.BaseConfig.BaselineSymbol,
	)
	return err
}
