package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultInitialCapitalWhenUnset(t *testing.T) {
	t.Setenv("INITIAL_CAPITAL_DEFAULT", "")
	cfg := Load()
	assert.True(t, cfg.InitialCapitalDefault.Equal(decimal.RequireFromString(defaultInitialCapital)))
}

func TestLoad_InitialCapitalFromEnv(t *testing.T) {
	t.Setenv("INITIAL_CAPITAL_DEFAULT", "25000.50")
	cfg := Load()
	assert.True(t, cfg.InitialCapitalDefault.Equal(decimal.RequireFromString("25000.50")))
}

func TestLoad_DSNIncludesOverriddenHost(t *testing.T) {
	t.Setenv("DB_HOST", "timescale.internal")
	cfg := Load()
	assert.Contains(t, cfg.DatabaseDSN, "host=timescale.internal")
}

func TestStrategyParamOverride_ResolvesUppercaseKey(t *testing.T) {
	t.Setenv("STRATEGY_RSI_V1_BUY_LEVEL", "25")
	v, ok := StrategyParamOverride("rsi", "v1", "buy_level")
	require.True(t, ok)
	assert.Equal(t, "25", v)
}

func TestStrategyParamOverride_MissingIsNotOK(t *testing.T) {
	_, ok := StrategyParamOverride("nonexistent", "v1", "param")
	assert.False(t, ok)
}

func TestCastParam_Int(t *testing.T) {
	v, err := CastParam("14", "int")
	require.NoError(t, err)
	assert.Equal(t, 14, v)
}

func TestCastParam_Float(t *testing.T) {
	v, err := CastParam("0.5", "float")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestCastParam_String(t *testing.T) {
	v, err := CastParam("SPY", "string")
	require.NoError(t, err)
	assert.Equal(t, "SPY", v)
}

func TestCastParam_InvalidIntIsError(t *testing.T) {
	_, err := CastParam("not-a-number", "int")
	require.Error(t, err)
}

func TestCastParam_UnknownKindIsError(t *testing.T) {
	_, err := CastParam("x", "bogus")
	require.Error(t, err)
}
