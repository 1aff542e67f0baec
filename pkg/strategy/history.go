package strategy

import (
	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
)

// History is the bar-history buffer the framework appends to before each
// OnBar call: every bar ever delivered, all symbols interleaved, plus a
// per-symbol index so Closes/Highs/Lows(lookback, symbol) run in time
// proportional to lookback rather than to total history length.
type History struct {
	bars      []types.Bar
	bySymbol  map[string][]types.Bar
	barNumber int64
}

// NewHistory returns an empty bar-history buffer.
func NewHistory() *History {
	return &History{bySymbol: make(map[string][]types.Bar)}
}

// Append records bar as the next delivered bar, in both the interleaved
// log and its symbol's index, and increments the bar counter.
func (h *History) Append(bar types.Bar) {
	h.bars = append(h.bars, bar)
	h.bySymbol[bar.Symbol] = append(h.bySymbol[bar.Symbol], bar)
	h.barNumber++
}

// BarNumber returns the number of bars appended so far.
func (h *History) BarNumber() int64 {
	return h.barNumber
}

// Symbols returns every symbol observed so far.
func (h *History) Symbols() []string {
	symbols := make([]string, 0, len(h.bySymbol))
	for symbol := range h.bySymbol {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Len returns the number of bars observed for symbol.
func (h *History) Len(symbol string) int {
	return len(h.bySymbol[symbol])
}

// Closes returns the last lookback close prices for symbol, oldest first.
// Fewer than lookback bars observed returns what is available.
func (h *History) Closes(lookback int, symbol string) []decimal.Decimal {
	return window(h.bySymbol[symbol], lookback, func(b types.Bar) decimal.Decimal { return b.Close })
}

// Highs returns the last lookback high prices for symbol, oldest first.
func (h *History) Highs(lookback int, symbol string) []decimal.Decimal {
	return window(h.bySymbol[symbol], lookback, func(b types.Bar) decimal.Decimal { return b.High })
}

// Lows returns the last lookback low prices for symbol, oldest first.
func (h *History) Lows(lookback int, symbol string) []decimal.Decimal {
	return window(h.bySymbol[symbol], lookback, func(b types.Bar) decimal.Decimal { return b.Low })
}

func window(bars []types.Bar, lookback int, field func(types.Bar) decimal.Decimal) []decimal.Decimal {
	if lookback <= 0 || len(bars) == 0 {
		return nil
	}
	start := len(bars) - lookback
	if start < 0 {
		start = 0
	}
	out := make([]decimal.Decimal, 0, len(bars)-start)
	for _, b := range bars[start:] {
		out = append(out, field(b))
	}
	return out
}
