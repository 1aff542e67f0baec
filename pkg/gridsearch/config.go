// Package gridsearch is the kernel's Grid-Search Orchestrator (spec.md
// §4.8): it expands a YAML config into the Cartesian product of symbol
// sets and parameter combinations, drives a Backtest Runner over every
// combination, and aggregates the results.
package gridsearch

import (
	"fmt"
	"os"
	"time"

	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SymbolSet is a named tuple of symbols a strategy can be bound to —
// preventing invalid symbol combinations (spec.md §4.8) by keeping the
// signal/bull/defense/vix roles named rather than a bare symbol list.
// VixSymbol is optional; required only when the chosen strategy reads
// a volatility filter parameter.
type SymbolSet struct {
	Name          string `yaml:"name"`
	SignalSymbol  string `yaml:"signal_symbol"`
	BullSymbol    string `yaml:"bull_symbol"`
	DefenseSymbol string `yaml:"defense_symbol"`
	VixSymbol     string `yaml:"vix_symbol"`
}

// symbols returns every non-empty symbol this set names, in a stable order.
func (s SymbolSet) symbols() []string {
	var out []string
	for _, sym := range []string{s.SignalSymbol, s.BullSymbol, s.DefenseSymbol, s.VixSymbol} {
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

// parameters renders the symbol set as a strategy parameter fragment;
// only non-empty roles are set, so a strategy that never reads
// "vix_symbol" is unaffected by a symbol set that doesn't name one.
func (s SymbolSet) parameters() map[string]interface{} {
	p := map[string]interface{}{}
	if s.SignalSymbol != "" {
		p["signal_symbol"] = s.SignalSymbol
		// "symbol" is the conventional single-symbol parameter name
		// (buy_and_hold, rsi); strategies that instead read
		// "signal_symbol"/"trade_symbol" simply ignore this extra key.
		p["symbol"] = s.SignalSymbol
	}
	if s.BullSymbol != "" {
		p["bull_symbol"] = s.BullSymbol
	}
	if s.DefenseSymbol != "" {
		p["defense_symbol"] = s.DefenseSymbol
	}
	if s.VixSymbol != "" {
		p["vix_symbol"] = s.VixSymbol
	}
	return p
}

// BaseConfig is the run-wide configuration shared by every combination.
// Dates are strings in the YAML surface and parsed here, before reaching
// the kernel (spec.md §6: "Dates in YAML are strings and must be parsed
// before reaching the kernel").
type BaseConfig struct {
	StartDate       string  `yaml:"start_date"`
	EndDate         string  `yaml:"end_date"`
	Timeframe       string  `yaml:"timeframe"`
	InitialCapital  float64 `yaml:"initial_capital"`
	Commission      float64 `yaml:"commission"`
	Slippage        float64 `yaml:"slippage"`
	BaselineSymbol  string  `yaml:"baseline_symbol"`
}

// Start parses StartDate as a UTC calendar day.
func (b BaseConfig) Start() (time.Time, error) {
	return parseYAMLDate(b.StartDate)
}

// End parses EndDate as a UTC calendar day.
func (b BaseConfig) End() (time.Time, error) {
	return parseYAMLDate(b.EndDate)
}

func parseYAMLDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q: %v", kernelerr.ErrConfiguration, s, err)
	}
	return t.UTC(), nil
}

// Config is the grid-search YAML surface of spec.md §6.
type Config struct {
	Strategy            string                   `yaml:"strategy"`
	SymbolSets          []SymbolSet              `yaml:"symbol_sets"`
	BaseConfig          BaseConfig               `yaml:"base_config"`
	Parameters          map[string][]interface{} `yaml:"parameters"`
	MaxCombinations     int                      `yaml:"max_combinations"`
	CheckpointInterval   int                      `yaml:"checkpoint_interval"`
	AllowOverMax         bool                     `yaml:"allow_over_max_combinations"`
}

const (
	defaultMaxCombinations   = 500
	defaultCheckpointInterval = 10
)

// LoadConfig reads and validates a grid-search YAML file, normalizing
// index-symbol ($-prefix) forms at the ingress boundary (spec.md §6:
// "user input without the prefix is normalized to prefixed form").
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading grid config %s: %v", kernelerr.ErrConfiguration, path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing grid config %s: %v", kernelerr.ErrConfiguration, path, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	cfg.normalizeIndexSymbols()
	if cfg.MaxCombinations == 0 {
		cfg.MaxCombinations = defaultMaxCombinations
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = defaultCheckpointInterval
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Strategy == "" {
		return fmt.Errorf("%w: missing strategy", kernelerr.ErrConfiguration)
	}
	if len(c.SymbolSets) == 0 {
		return fmt.Errorf("%w: missing symbol_sets", kernelerr.ErrConfiguration)
	}
	if c.BaseConfig.StartDate == "" || c.BaseConfig.EndDate == "" {
		return fmt.Errorf("%w: missing base_config", kernelerr.ErrConfiguration)
	}
	for _, s := range c.SymbolSets {
		if s.Name == "" {
			return fmt.Errorf("%w: symbol set missing name", kernelerr.ErrConfiguration)
		}
		if s.SignalSymbol == "" {
			return fmt.Errorf("%w: symbol set %q missing signal_symbol", kernelerr.ErrConfiguration, s.Name)
		}
	}
	return nil
}

// indexSymbolPrefix marks a volatility-index symbol in storage; user
// config without the prefix is normalized here (spec.md §6).
const indexSymbolPrefix = "$"

// knownIndexSymbols is the small set of volatility-index tickers the
// ingress boundary recognizes and prefixes if bare. Strategies beyond
// this set that intend an index symbol must supply the prefix themselves.
var knownIndexSymbols = map[string]bool{
	"VIX": true, "VIX9D": true, "VVIX": true, "VXN": true,
}

func normalizeIndexSymbol(sym string) string {
	if sym == "" || sym[0:1] == indexSymbolPrefix {
		return sym
	}
	if knownIndexSymbols[sym] {
		return indexSymbolPrefix + sym
	}
	return sym
}

func (c *Config) normalizeIndexSymbols() {
	for i := range c.SymbolSets {
		c.SymbolSets[i].VixSymbol = normalizeIndexSymbol(c.SymbolSets[i].VixSymbol)
	}
	if c.BaseConfig.BaselineSymbol != "" {
		c.BaseConfig.BaselineSymbol = normalizeIndexSymbol(c.BaseConfig.BaselineSymbol)
	}
}

// initialCapitalDecimal and commissionDecimal convert the YAML's plain
// float64 config fields to decimal at the ingress boundary, before any
// of it reaches the kernel.
func (b BaseConfig) initialCapitalDecimal() decimal.Decimal {
	return decimal.NewFromFloat(b.InitialCapital)
}

func (b BaseConfig) commissionDecimal() decimal.Decimal {
	return decimal.NewFromFloat(b.Commission)
}
