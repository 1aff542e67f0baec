package gridsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTestConfig() Config {
	return Config{
		Strategy: "buy_and_hold",
		SymbolSets: []SymbolSet{
			{Name: "tech", SignalSymbol: "SPY"},
			{Name: "growth", SignalSymbol: "QQQ"},
		},
		BaseConfig: BaseConfig{
			StartDate: "2024-01-01", EndDate: "2024-12-31", Timeframe: "1D",
			InitialCapital: 10000, Commission: 0.01,
		},
		Parameters: map[string][]interface{}{
			"short_period": {5, 10},
			"long_period":  {30},
		},
		MaxCombinations:    500,
		CheckpointInterval: 10,
	}
}

func TestExpand_CartesianProductSize(t *testing.T) {
	cfg := baseTestConfig()
	specs, err := Expand(cfg, false)
	require.NoError(t, err)
	assert.Len(t, specs, 4) // 2 symbol sets * 2 short_period values * 1 long_period value
}

func TestExpand_SequentialZeroPaddedIDs(t *testing.T) {
	cfg := baseTestConfig()
	specs, err := Expand(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, "001", specs[0].ID)
	assert.Equal(t, "004", specs[3].ID)
}

func TestExpand_Deterministic(t *testing.T) {
	cfg := baseTestConfig()
	a, err := Expand(cfg, false)
	require.NoError(t, err)
	b, err := Expand(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExpand_SymbolSetParametersMerged(t *testing.T) {
	cfg := baseTestConfig()
	specs, err := Expand(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, "SPY", specs[0].Parameters["signal_symbol"])
	assert.Equal(t, 5, specs[0].Parameters["short_period"])
}

func TestExpand_RejectsOverMaxWithoutConfirmation(t *testing.T) {
	cfg := baseTestConfig()
	cfg.MaxCombinations = 2
	_, err := Expand(cfg, false)
	require.Error(t, err)
}

func TestExpand_AllowsOverMaxWhenConfirmed(t *testing.T) {
	cfg := baseTestConfig()
	cfg.MaxCombinations = 2
	specs, err := Expand(cfg, true)
	require.NoError(t, err)
	assert.Len(t, specs, 4)
}

func TestExpand_AllowsOverMaxWhenConfigOverrideSet(t *testing.T) {
	cfg := baseTestConfig()
	cfg.MaxCombinations = 2
	cfg.AllowOverMax = true
	specs, err := Expand(cfg, false)
	require.NoError(t, err)
	assert.Len(t, specs, 4)
}
