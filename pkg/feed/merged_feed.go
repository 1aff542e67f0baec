package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/logging"
	"github.com/rs/zerolog"
)

// MergedFeed merges one or more per-symbol ordered bar sequences into a
// single chronologically ordered stream. It does no symbol rewriting —
// index symbols such as "$VIX" pass through unchanged.
type MergedFeed struct {
	provider  HistoricalDataProvider
	symbols   []string
	timeframe string
	startDate time.Time
	endDate   time.Time
	logger    zerolog.Logger

	perSymbol   map[string][]types.Bar
	cursor      map[string]int
	initialized bool
}

// NewMergedFeed creates a feed over the given symbols for [start, end].
func NewMergedFeed(provider HistoricalDataProvider, symbols []string, timeframe string, start, end time.Time) *MergedFeed {
	return &MergedFeed{
		provider:  provider,
		symbols:   symbols,
		timeframe: timeframe,
		startDate: start,
		endDate:   end,
		logger:    logging.GetLogger("feed"),
		perSymbol: make(map[string][]types.Bar, len(symbols)),
		cursor:    make(map[string]int, len(symbols)),
	}
}

// Initialize loads each symbol's bars from the provider. A symbol with
// zero bars in the requested range fails the feed with ErrDataUnavailable.
func (f *MergedFeed) Initialize() error {
	if f.initialized {
		return nil
	}

	for _, symbol := range f.symbols {
		bars, err := f.provider.Bars(symbol, f.timeframe, f.startDate, f.endDate)
		if err != nil {
			return fmt.Errorf("loading bars for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			return fmt.Errorf("%w: no bars for symbol %s in [%s, %s]", kernelerr.ErrDataUnavailable, symbol, f.startDate, f.endDate)
		}
		for _, bar := range bars {
			if err := bar.Validate(); err != nil {
				return fmt.Errorf("%w: %v", kernelerr.ErrInputValidation, err)
			}
		}
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
		f.perSymbol[symbol] = bars
		f.cursor[symbol] = 0
	}

	f.logger.Info().Int("symbols", len(f.symbols)).Msg("merged feed initialized")
	f.initialized = true
	return nil
}

// Next returns the next bar across all symbols in non-decreasing timestamp
// order; ties are broken by ascending symbol.
func (f *MergedFeed) Next() (*types.Bar, error) {
	if !f.initialized {
		if err := f.Initialize(); err != nil {
			return nil, err
		}
	}

	bestSymbol := ""
	var bestIdx int
	for _, symbol := range f.symbols {
		idx := f.cursor[symbol]
		bars := f.perSymbol[symbol]
		if idx >= len(bars) {
			continue
		}
		if bestSymbol == "" {
			bestSymbol, bestIdx = symbol, idx
			continue
		}
		candidate := bars[idx]
		best := f.perSymbol[bestSymbol][bestIdx]
		if candidate.Timestamp.Before(best.Timestamp) {
			bestSymbol, bestIdx = symbol, idx
		} else if candidate.Timestamp.Equal(best.Timestamp) && symbol < bestSymbol {
			bestSymbol, bestIdx = symbol, idx
		}
	}

	if bestSymbol == "" {
		return nil, nil
	}

	bar := f.perSymbol[bestSymbol][bestIdx]
	f.cursor[bestSymbol]++
	return &bar, nil
}

// HasNext reports whether any symbol still has unconsumed bars.
func (f *MergedFeed) HasNext() bool {
	if !f.initialized {
		return true
	}
	for _, symbol := range f.symbols {
		if f.cursor[symbol] < len(f.perSymbol[symbol]) {
			return true
		}
	}
	return false
}

// Close is a no-op for a feed backed by preloaded bar slices.
func (f *MergedFeed) Close() error {
	return nil
}

// Symbols returns the symbols this feed was constructed over.
func (f *MergedFeed) Symbols() []string {
	return f.symbols
}
