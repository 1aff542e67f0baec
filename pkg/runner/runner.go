// Package runner is the kernel's Backtest Runner (spec.md §4.7): one-shot
// glue that wires a data feed, a strategy, a portfolio, a trade logger
// and the event loop together, then hands the result to the Performance
// Analyzer and writes its three CSVs to an output directory.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ridopark/quantback/internal/analysis"
	"github.com/ridopark/quantback/internal/engine"
	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/ridopark/quantback/internal/portfolio"
	"github.com/ridopark/quantback/internal/tradelog"
	"github.com/ridopark/quantback/pkg/feed"
	"github.com/ridopark/quantback/pkg/logging"
	"github.com/ridopark/quantback/pkg/strategy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultPeriodsPerYear is the Sharpe annualization constant assumed for
// daily bars; spec.md §9 requires it be overridable, not hard-coded, for
// other timeframes.
const DefaultPeriodsPerYear = 252

// Request is everything one backtest invocation needs.
type Request struct {
	StrategyName       string
	Parameters         map[string]interface{}
	Symbols            []string
	Timeframe          string
	Start, End         time.Time
	InitialCapital     decimal.Decimal
	CommissionPerShare decimal.Decimal

	// BaselineSymbol is the buy-and-hold reference (spec.md §4.6 default
	// QQQ); empty disables the baseline and Alpha columns entirely.
	BaselineSymbol string

	// PeriodsPerYear overrides DefaultPeriodsPerYear for non-daily timeframes.
	PeriodsPerYear int

	// OutputRoot is the parent directory runs are written under;
	// defaults to "output".
	OutputRoot string

	// RunTag, when set, names the run's output directory directly
	// instead of the default "{strategy}_{timestamp}" — used by
	// pkg/gridsearch to place each combination under its own
	// "run_NNN" directory inside one grid_search_{strategy}_{ts}/ root.
	RunTag string
}

// Result is one run's terminal state plus its computed metrics and the
// directory its CSVs were written to.
type Result struct {
	Run       engine.Run
	Metrics   analysis.Metrics
	OutputDir string
}

// Run executes one backtest end to end. provider is the
// HistoricalDataProvider the feed and baseline lookup both read from.
func Run(ctx context.Context, provider feed.HistoricalDataProvider, req Request) (Result, error) {
	req = applyDefaults(req)

	if len(req.Symbols) == 0 {
		return Result{}, fmt.Errorf("%w: at least one symbol is required", kernelerr.ErrInputValidation)
	}

	strat, ok := strategy.New(req.StrategyName)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown strategy %q", kernelerr.ErrConfiguration, req.StrategyName)
	}
	if err := strat.Init(req.Parameters); err != nil {
		return Result{}, fmt.Errorf("%w: initializing strategy %s: %v", kernelerr.ErrConfiguration, req.StrategyName, err)
	}

	outputDir, runTag, err := makeOutputDir(req.OutputRoot, req.StrategyName, req.RunTag)
	if err != nil {
		return Result{}, err
	}
	tradesDir := filepath.Join(outputDir, "trades")
	if err := os.MkdirAll(tradesDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating trades directory: %w", err)
	}

	logging.Initialize(logging.ConfigForRun(outputDir, logging.LevelInfo))
	logger := logging.GetLogger("runner")
	logger.Info().Str("strategy", req.StrategyName).Strs("symbols", req.Symbols).Msg("starting backtest run")

	mergedFeed := feed.NewMergedFeed(provider, req.Symbols, req.Timeframe, req.Start, req.End)
	commission := portfolio.NewCommissionSchedule(req.CommissionPerShare)
	tl := tradelog.New(req.InitialCapital)
	port := portfolio.New(req.InitialCapital, commission, tl)

	eng := engine.New(mergedFeed, strat, port, tl)
	run := eng.Run(ctx)

	baselineFirst, baselineLast := lookupBaseline(provider, req, logger)

	metrics := analysis.Compute(req.InitialCapital, run.EquityCurve, run.Fills, req.PeriodsPerYear, req.BaselineSymbol, baselineFirst, baselineLast)
	if metrics.DrawdownClampedWarn {
		logger.Warn().Msg("equity curve touched zero or went negative; max drawdown clamped to its floor")
	}

	if err := writeOutputs(provider, outputDir, tradesDir, runTag, req, run, metrics, tl); err != nil {
		return Result{}, fmt.Errorf("writing run outputs: %w", err)
	}

	logger.Info().Str("status", string(run.Status)).Str("output_dir", outputDir).Msg("backtest run finished")
	return Result{Run: run, Metrics: metrics, OutputDir: outputDir}, nil
}

func applyDefaults(req Request) Request {
	if req.PeriodsPerYear == 0 {
		req.PeriodsPerYear = DefaultPeriodsPerYear
	}
	if req.OutputRoot == "" {
		req.OutputRoot = "output"
	}
	if req.Timeframe == "" {
		req.Timeframe = "1D"
	}
	return req
}

// lookupBaseline resolves the buy-and-hold reference's first/last close
// over the run's window. A lookup failure or an "insufficient bars"
// result disables the baseline rather than failing the run — spec.md
// §4.6: "If insufficient baseline bars (<2), baseline is absent."
func lookupBaseline(provider feed.HistoricalDataProvider, req Request, logger zerolog.Logger) (*decimal.Decimal, *decimal.Decimal) {
	if req.BaselineSymbol == "" {
		return nil, nil
	}
	first, last, ok, err := provider.FirstAndLastClose(req.BaselineSymbol, req.Start, req.End)
	if err != nil {
		logger.Warn().Err(err).Str("symbol", req.BaselineSymbol).Msg("baseline lookup failed, omitting baseline/Alpha")
		return nil, nil
	}
	if !ok {
		logger.Warn().Str("symbol", req.BaselineSymbol).Msg("fewer than two baseline bars observed, omitting baseline/Alpha")
		return nil, nil
	}
	return &first, &last
}
