// Package strategy defines the contract user strategies implement, the
// bar/portfolio-state feed the framework provides them, and the helpers
// (windowed history by symbol, buy/sell, decision-context logging) every
// strategy is built from.
package strategy

import (
	"time"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
)

// PortfolioView is a read-only copy of portfolio state handed to a
// strategy before OnBar is called. It is a snapshot, not a live reference —
// mutating it has no effect on the real portfolio.
type PortfolioView struct {
	Cash         decimal.Decimal
	Positions    map[string]types.Position
	LatestPrices map[string]decimal.Decimal
	TotalValue   decimal.Decimal
}

// Context is the framework-provided facade a strategy's OnBar uses to read
// history and portfolio state and to emit signals. Context never exposes
// cash or position mutation directly — buy/sell are the only path to a
// Signal, and the portfolio is the only component allowed to act on one.
type Context interface {
	// Portfolio access (snapshot, not live).
	Portfolio() PortfolioView
	Position(symbol string) types.Position
	HasPosition(symbol string) bool
	Cash() decimal.Decimal

	// Windowed history by symbol. When a strategy trades multiple
	// symbols it MUST pass symbol explicitly — the mixed-symbol history
	// is otherwise unusable for indicator math. This is a contract, not
	// a convenience.
	Closes(lookback int, symbol string) []decimal.Decimal
	Highs(lookback int, symbol string) []decimal.Decimal
	Lows(lookback int, symbol string) []decimal.Decimal

	// BarNumber is the global sequential count of bars delivered so far.
	BarNumber() int64

	// RequireSymbols fails fast if any of the named symbols have never
	// appeared in the observed bar history, once enough bars have been
	// seen to make the check meaningful (bars >= minHistory).
	RequireSymbols(symbols []string, minHistory int) error

	// Buy/Sell emit a signal onto the current tick's signal queue.
	// portfolioPercent == 0 is the universal liquidation idiom,
	// regardless of side, and is a no-op when the symbol is already flat.
	Buy(symbol string, portfolioPercent decimal.Decimal)
	Sell(symbol string, portfolioPercent decimal.Decimal)

	// BuyWithRisk/SellWithRisk attach an ATR-risk sizing override
	// (shares = allocationDollars / riskPerShare) to the emitted signal.
	BuyWithRisk(symbol string, portfolioPercent, riskPerShare decimal.Decimal)
	SellWithRisk(symbol string, portfolioPercent, riskPerShare decimal.Decimal)

	// LogStrategyContext is Phase 1 of the two-phase trade-logger
	// correlation (see internal/tradelog). symbol must be the trade
	// symbol the forthcoming signal will target, not the signal asset.
	LogStrategyContext(symbol, stateLabel, decisionReason string, indicators, thresholds map[string]decimal.Decimal)

	// Log emits a structured log line scoped to the strategy component.
	Log(level string, message string, fields map[string]interface{})

	// Now returns the timestamp of the bar currently being processed.
	Now() time.Time
}

// Strategy is the interface every user strategy implements.
type Strategy interface {
	// Init is called once before the first bar, with the strategy's
	// configured parameters.
	Init(params map[string]interface{}) error

	// OnBar is called once per bar delivered to the strategy's symbol
	// set. It may emit zero or more signals via ctx.Buy/ctx.Sell. It
	// must not perform I/O.
	OnBar(ctx Context, bar types.Bar) error

	// Name returns the strategy's display name (e.g. "BuyAndHold"). Output
	// directories are named after the registry name, not after Name.
	Name() string
}

// ParameterDescriptor documents one strategy parameter in the registry:
// name, expected kind, and default. The registry stores descriptors and
// returns them from Parameters; it does not check parameter maps against
// them.
type ParameterDescriptor struct {
	Name    string
	Kind    string // "float", "int", "string"
	Default interface{}
}

// Factory constructs a new Strategy instance. Strategies are registered by
// name to a factory closure carrying a typed parameter descriptor — this
// replaces dynamic-string-name strategy discovery plus constructor
// introspection with an explicit registry.
type Factory func() Strategy

var registry = map[string]registryEntry{}

type registryEntry struct {
	factory    Factory
	parameters []ParameterDescriptor
}

// Register adds a strategy factory to the registry under name, along with
// its parameter descriptors, which Parameters returns. Nothing checks a
// parameters map against them before construction.
func Register(name string, factory Factory, parameters []ParameterDescriptor) {
	registry[name] = registryEntry{factory: factory, parameters: parameters}
}

// New constructs a registered strategy by name.
func New(name string) (Strategy, bool) {
	entry, ok := registry[name]
	if !ok {
		return nil, false
	}
	return entry.factory(), true
}

// Parameters returns the parameter descriptors registered for name.
func Parameters(name string) ([]ParameterDescriptor, bool) {
	entry, ok := registry[name]
	if !ok {
		return nil, false
	}
	return entry.parameters, true
}

// Names returns every registered strategy name.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
