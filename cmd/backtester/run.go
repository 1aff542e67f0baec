package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ridopark/quantback/internal/config"
	"github.com/ridopark/quantback/internal/data"
	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/ridopark/quantback/pkg/runner"
	_ "github.com/ridopark/quantback/pkg/strategy/examples" // strategy registry side effects
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var (
		symbol         string
		strategyName   string
		startDate      string
		endDate        string
		timeframe      string
		initialCapital float64
		commission     float64
		baselineSymbol string
		outputRoot     string
		envFile        string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single backtest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(envFile); err != nil {
				return err
			}
			cfg := config.Load()

			start, err := time.Parse("2006-01-02", startDate)
			if err != nil {
				return fmt.Errorf("%w: invalid --start date %q: %v", kernelerr.ErrConfiguration, startDate, err)
			}
			end, err := time.Parse("2006-01-02", endDate)
			if err != nil {
				return fmt.Errorf("%w: invalid --end date %q: %v", kernelerr.ErrConfiguration, endDate, err)
			}

			provider, err := data.NewTimescaleDBProvider(cfg.DatabaseDSN)
			if err != nil {
				return fmt.Errorf("%w: connecting to data provider: %v", kernelerr.ErrDataUnavailable, err)
			}
			defer provider.Close()

			capital := decimal.NewFromFloat(initialCapital)
			if initialCapital == 0 {
				capital = cfg.InitialCapitalDefault
			}

			result, err := runner.Run(context.Background(), provider, runner.Request{
				StrategyName:       strategyName,
				Parameters:         map[string]interface{}{"symbol": symbol},
				Symbols:            []string{symbol},
				Timeframe:          timeframe,
				Start:              start.UTC(),
				End:                end.UTC(),
				InitialCapital:     capital,
				CommissionPerShare: decimal.NewFromFloat(commission),
				BaselineSymbol:     baselineSymbol,
				OutputRoot:         outputRoot,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Run complete: %s (run_id=%s)\n", result.Run.Status, result.Run.RunID)
			fmt.Printf("Output directory: %s\n", result.OutputDir)
			fmt.Printf("Total return: %s%%\n", result.Metrics.TotalReturn.Mul(decimal.NewFromInt(100)).StringFixed(2))
			fmt.Printf("Sharpe ratio: %s\n", result.Metrics.Sharpe.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "symbol to backtest")
	cmd.Flags().StringVar(&strategyName, "strategy", "buy_and_hold", "registered strategy name")
	cmd.Flags().StringVar(&startDate, "start", "2024-01-01", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "2024-12-31", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1D", "bar timeframe")
	cmd.Flags().Float64Var(&initialCapital, "capital", 0, "initial capital (0 uses INITIAL_CAPITAL_DEFAULT)")
	cmd.Flags().Float64Var(&commission, "commission", 0.0, "commission per share")
	cmd.Flags().StringVar(&baselineSymbol, "baseline", "QQQ", "buy-and-hold baseline symbol, empty disables it")
	cmd.Flags().StringVar(&outputRoot, "output", "output", "output directory root")
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to .env file")

	return cmd
}
