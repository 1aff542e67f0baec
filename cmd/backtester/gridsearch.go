package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ridopark/quantback/internal/config"
	"github.com/ridopark/quantback/internal/data"
	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/ridopark/quantback/pkg/gridsearch"
	_ "github.com/ridopark/quantback/pkg/strategy/examples" // strategy registry side effects
	"github.com/spf13/cobra"
)

func newGridSearchCommand() *cobra.Command {
	var (
		configPath string
		outputRoot string
		envFile    string
		yesOverMax bool
	)

	cmd := &cobra.Command{
		Use:   "gridsearch",
		Short: "Run a parameter grid search defined by a YAML config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(envFile); err != nil {
				return err
			}
			cfg := config.Load()

			gridCfg, err := gridsearch.LoadConfig(configPath)
			if err != nil {
				return err
			}

			provider, err := data.NewTimescaleDBProvider(cfg.DatabaseDSN)
			if err != nil {
				return fmt.Errorf("%w: connecting to data provider: %v", kernelerr.ErrDataUnavailable, err)
			}
			defer provider.Close()

			confirmed := yesOverMax
			if !confirmed {
				confirmed = confirmOverMaxIfNeeded(gridCfg)
			}

			summary, err := gridsearch.Run(context.Background(), provider, gridCfg, outputRoot, confirmed)
			if err != nil {
				return err
			}

			succeeded, failed := 0, 0
			for _, o := range summary.Outcomes {
				if o.Err != nil {
					failed++
				} else {
					succeeded++
				}
			}
			fmt.Printf("Grid search complete: %d succeeded, %d failed\n", succeeded, failed)
			fmt.Printf("Output directory: %s\n", summary.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to grid-search YAML config (required)")
	cmd.Flags().StringVar(&outputRoot, "output", "output", "output directory root")
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to .env file")
	cmd.Flags().BoolVar(&yesOverMax, "yes", false, "skip the confirmation prompt when the combination count exceeds max_combinations")
	cmd.MarkFlagRequired("config")

	return cmd
}

// confirmOverMaxIfNeeded re-expands the config with confirmed=true only
// to measure its size; if within bounds it returns true immediately
// (Expand's own gate is the source of truth), otherwise it prompts on
// stdin per spec.md §4.8's "require explicit confirmation or config
// override."
func confirmOverMaxIfNeeded(cfg gridsearch.Config) bool {
	specs, err := gridsearch.Expand(cfg, true)
	if err != nil {
		return false
	}
	if len(specs) <= cfg.MaxCombinations || cfg.AllowOverMax {
		return true
	}

	fmt.Printf("This grid search has %d combinations, exceeding max_combinations (%d). Continue? [y/N]: ", len(specs), cfg.MaxCombinations)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
