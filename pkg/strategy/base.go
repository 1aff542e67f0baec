package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BaseStrategy provides the parameter-access and required-symbol
// validation every concrete strategy embeds. It implements Name() and a
// no-op Init(); strategies override Init to capture typed parameters and
// must implement OnBar themselves.
type BaseStrategy struct {
	name       string
	parameters map[string]interface{}
	symbols    []string
}

// NewBaseStrategy creates a new base strategy.
func NewBaseStrategy(name string) *BaseStrategy {
	return &BaseStrategy{name: name}
}

// Name returns the strategy name.
func (s *BaseStrategy) Name() string {
	return s.name
}

// SetParameters stores the parameters Init received, so GetParameter*
// helpers can retrieve them later.
func (s *BaseStrategy) SetParameters(params map[string]interface{}) {
	s.parameters = params
}

// SetSymbols records the symbols this strategy declared it trades, for
// RequireSymbols validation.
func (s *BaseStrategy) SetSymbols(symbols []string) {
	s.symbols = symbols
}

// Symbols returns the symbols this strategy was configured with.
func (s *BaseStrategy) Symbols() []string {
	return s.symbols
}

// Parameter returns a raw parameter value.
func (s *BaseStrategy) Parameter(key string) interface{} {
	return s.parameters[key]
}

// ParameterDecimal returns a parameter as decimal.Decimal. Numeric
// parameters arrive from YAML as float64 or int; both convert cleanly.
func (s *BaseStrategy) ParameterDecimal(key string) (decimal.Decimal, error) {
	val, ok := s.parameters[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("parameter %q not found", key)
	}

	switch v := val.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("parameter %q is not a number", key)
	}
}

// ParameterInt returns a parameter as int.
func (s *BaseStrategy) ParameterInt(key string) (int, error) {
	val, ok := s.parameters[key]
	if !ok {
		return 0, fmt.Errorf("parameter %q not found", key)
	}

	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("parameter %q is not an integer", key)
	}
}

// ParameterString returns a parameter as string.
func (s *BaseStrategy) ParameterString(key string) (string, error) {
	val, ok := s.parameters[key]
	if !ok {
		return "", fmt.Errorf("parameter %q not found", key)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q is not a string", key)
	}
	return str, nil
}

// RequireSymbols validates that every symbol in s.symbols has appeared in
// ctx's observed bar history, once ctx has seen at least minHistory bars.
// It fails fast with a message listing missing vs available symbols,
// rather than letting a strategy silently no-op on a misconfigured symbol.
func (s *BaseStrategy) RequireSymbols(ctx Context, minHistory int) error {
	return ctx.RequireSymbols(s.symbols, minHistory)
}
