package gridsearch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
strategy: ma_crossover
symbol_sets:
  - name: tech
    signal_symbol: SPY
    bull_symbol: QQQ
    defense_symbol: TLT
    vix_symbol: VIX
base_config:
  start_date: 2024-01-01
  end_date: 2024-06-30
  timeframe: 1D
  initial_capital: 50000
  commission: 0.005
  slippage: 0
  baseline_symbol: QQQ
parameters:
  short_period: [5, 10]
  long_period: [30]
max_combinations: 100
checkpoint_interval: 5
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig_ParsesFullSurface(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ma_crossover", cfg.Strategy)
	require.Len(t, cfg.SymbolSets, 1)
	assert.Equal(t, "SPY", cfg.SymbolSets[0].SignalSymbol)
	assert.Equal(t, "$VIX", cfg.SymbolSets[0].VixSymbol, "bare index symbol normalized with $ prefix")
	assert.Equal(t, 100, cfg.MaxCombinations)
	assert.Equal(t, 5, cfg.CheckpointInterval)

	start, err := cfg.BaseConfig.Start()
	require.NoError(t, err)
	assert.Equal(t, 2024, start.Year())
}

func TestLoadConfig_AlreadyPrefixedIndexSymbolUnchanged(t *testing.T) {
	path := writeTempConfig(t, `
strategy: ma_crossover
symbol_sets:
  - name: tech
    signal_symbol: SPY
    vix_symbol: "$VIX"
base_config:
  start_date: 2024-01-01
  end_date: 2024-06-30
  timeframe: 1D
  initial_capital: 1000
  commission: 0
  slippage: 0
parameters: {}
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "$VIX", cfg.SymbolSets[0].VixSymbol)
}

func TestLoadConfig_MissingStrategyIsConfigurationError(t *testing.T) {
	path := writeTempConfig(t, `
symbol_sets:
  - name: tech
    signal_symbol: SPY
base_config:
  start_date: 2024-01-01
  end_date: 2024-06-30
parameters: {}
`)
	_, err := LoadConfig(path)
	require.ErrorIs(t, err, kernelerr.ErrConfiguration)
}

func TestLoadConfig_MissingBaseConfigIsConfigurationError(t *testing.T) {
	path := writeTempConfig(t, `
strategy: buy_and_hold
symbol_sets:
  - name: tech
    signal_symbol: SPY
parameters: {}
`)
	_, err := LoadConfig(path)
	require.ErrorIs(t, err, kernelerr.ErrConfiguration)
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, `
strategy: buy_and_hold
symbol_sets:
  - name: tech
    signal_symbol: SPY
base_config:
  start_date: 2024-01-01
  end_date: 2024-06-30
  timeframe: 1D
  initial_capital: 1000
  commission: 0
  slippage: 0
parameters: {}
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxCombinations, cfg.MaxCombinations)
	assert.Equal(t, defaultCheckpointInterval, cfg.CheckpointInterval)
}
