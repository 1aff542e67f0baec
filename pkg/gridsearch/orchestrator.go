package gridsearch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ridopark/quantback/internal/analysis"
	"github.com/ridopark/quantback/pkg/feed"
	"github.com/ridopark/quantback/pkg/logging"
	"github.com/ridopark/quantback/pkg/runner"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// gridTimestampFormat names the grid's own root directory, distinct from
// a single run's per-run timestamp.
const gridTimestampFormat = "20060102_150405"

// RunOutcome is one combination's result: either a completed Result or
// an error, never both. A run that errors does not abort the grid
// (spec.md §4.8: "failure isolation").
type RunOutcome struct {
	Spec   RunSpec
	Result *runner.Result
	Err    error
}

// Summary is the grid's aggregate result.
type Summary struct {
	OutputDir string
	Baseline  *analysis.BaselineMetrics
	Outcomes  []RunOutcome
}

// Run expands cfg into its full set of combinations and drives a
// Backtest Runner over each in turn, honoring checkpointing and failure
// isolation. confirmed is forwarded to Expand's max_combinations gate.
func Run(ctx context.Context, provider feed.HistoricalDataProvider, cfg Config, outputRoot string, confirmed bool) (Summary, error) {
	specs, err := Expand(cfg, confirmed)
	if err != nil {
		return Summary{}, err
	}

	start, err := cfg.BaseConfig.Start()
	if err != nil {
		return Summary{}, err
	}
	end, err := cfg.BaseConfig.End()
	if err != nil {
		return Summary{}, err
	}

	gridDir, err := makeGridDir(outputRoot, cfg.Strategy)
	if err != nil {
		return Summary{}, err
	}

	logger := logging.GetLogger("gridsearch")
	logger.Info().Str("strategy", cfg.Strategy).Int("combinations", len(specs)).Str("dir", gridDir).Msg("starting grid search")

	baseline := computeBaseline(provider, cfg, start, end, logger)

	checkpoint, err := loadCheckpoint(gridDir)
	if err != nil {
		return Summary{}, err
	}

	outcomes := make([]RunOutcome, 0, len(specs))
	sinceCheckpoint := 0

	for _, spec := range specs {
		select {
		case <-ctx.Done():
			logger.Warn().Msg("grid search cancelled between runs")
			return finish(gridDir, baseline, outcomes), ctx.Err()
		default:
		}

		if checkpoint.has(spec.ID) {
			logger.Info().Str("run_id", spec.ID).Msg("skipping already-completed run")
			continue
		}

		result, runErr := runOne(ctx, provider, cfg, spec, gridDir, start, end)
		if runErr != nil {
			logger.Warn().Str("run_id", spec.ID).Err(runErr).Msg("run failed, continuing grid")
			outcomes = append(outcomes, RunOutcome{Spec: spec, Err: runErr})
		} else {
			outcomes = append(outcomes, RunOutcome{Spec: spec, Result: &result})
		}

		checkpoint.CompletedRunIDs = append(checkpoint.CompletedRunIDs, spec.ID)
		sinceCheckpoint++
		if sinceCheckpoint >= cfg.CheckpointInterval {
			if err := saveCheckpoint(gridDir, checkpoint); err != nil {
				logger.Warn().Err(err).Msg("failed to persist checkpoint")
			}
			sinceCheckpoint = 0
		}
	}
	if sinceCheckpoint > 0 {
		if err := saveCheckpoint(gridDir, checkpoint); err != nil {
			logger.Warn().Err(err).Msg("failed to persist final checkpoint")
		}
	}

	summary := finish(gridDir, baseline, outcomes)
	if err := writeRunConfig(gridDir, outcomes); err != nil {
		return summary, err
	}
	if err := writeSummaryComparison(gridDir, summary); err != nil {
		return summary, err
	}
	if err := writeReadme(gridDir, cfg, summary); err != nil {
		return summary, err
	}

	logger.Info().Int("completed", len(outcomes)).Msg("grid search finished")
	return summary, nil
}

func finish(gridDir string, baseline *analysis.BaselineMetrics, outcomes []RunOutcome) Summary {
	return Summary{OutputDir: gridDir, Baseline: baseline, Outcomes: outcomes}
}

func runOne(ctx context.Context, provider feed.HistoricalDataProvider, cfg Config, spec RunSpec, gridDir string, start, end time.Time) (result runner.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run %s panicked: %v", spec.ID, r)
		}
	}()

	req := runner.Request{
		StrategyName:       cfg.Strategy,
		Parameters:         spec.Parameters,
		Symbols:            spec.SymbolSet.symbols(),
		Timeframe:          cfg.BaseConfig.Timeframe,
		Start:              start,
		End:                end,
		InitialCapital:     cfg.BaseConfig.initialCapitalDecimal(),
		CommissionPerShare: cfg.BaseConfig.commissionDecimal(),
		BaselineSymbol:     cfg.BaseConfig.BaselineSymbol,
		OutputRoot:         gridDir,
		RunTag:             "run_" + spec.ID,
	}
	return runner.Run(ctx, provider, req)
}

// computeBaseline resolves the grid's baseline once, up front, for the
// "000" row of summary_comparison (spec.md §4.8: "if a baseline can be
// computed, emit a row 000"). Each run's Alpha column comes from that
// run's own baseline lookup inside runner.Run.
func computeBaseline(provider feed.HistoricalDataProvider, cfg Config, start, end time.Time, logger zerolog.Logger) *analysis.BaselineMetrics {
	if cfg.BaseConfig.BaselineSymbol == "" {
		return nil
	}
	first, last, ok, err := provider.FirstAndLastClose(cfg.BaseConfig.BaselineSymbol, start, end)
	if err != nil || !ok {
		if err != nil {
			logger.Warn().Err(err).Str("symbol", cfg.BaseConfig.BaselineSymbol).Msg("baseline lookup failed for grid row 000")
		}
		return nil
	}
	if first.IsZero() {
		return nil
	}
	totalReturn := last.Div(first).Sub(decimal.NewFromInt(1))
	days := end.Sub(start).Hours() / 24
	annualized := analysis.AnnualizeReturn(totalReturn, days)
	return &analysis.BaselineMetrics{
		Symbol:           cfg.BaseConfig.BaselineSymbol,
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualized,
	}
}

func makeGridDir(outputRoot, strategyName string) (string, error) {
	tag := fmt.Sprintf("grid_search_%s_%s", strategyName, nowFunc().Format(gridTimestampFormat))
	dir := filepath.Join(outputRoot, tag)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating grid output directory %s: %w", dir, err)
	}
	return dir, nil
}

// nowFunc is a seam for deterministic tests; production always uses
// time.Now (grid directory naming carries no determinism requirement of
// its own — spec.md §4.8's determinism clause is about run IDs and
// artifacts, not the wall-clock directory name).
var nowFunc = time.Now
