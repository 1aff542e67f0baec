// Package kernelerr declares the small set of sentinel error kinds the
// kernel distinguishes, per the error taxonomy in the spec: anything
// local to a single signal is recoverable, anything corrupting an
// invariant is fatal. Constraint rejections are deliberately NOT part of
// this taxonomy — they are an expected, logged, non-error outcome of
// execute_signal (see the (fill, ok) result of
// portfolio.Portfolio.ExecuteSignal).
package kernelerr

import "errors"

// ErrInputValidation marks a fatal input problem: a naive timestamp, a
// violated OHLC invariant, a portfolio_percent outside [0,1], or a
// strategy-required symbol absent from the observed bar history.
var ErrInputValidation = errors.New("input validation failed")

// ErrDataUnavailable marks an empty bar range for a requested symbol or
// period. The primary run fails if the strategy requires those bars; a
// baseline computation instead degrades to "absent."
var ErrDataUnavailable = errors.New("data unavailable")

// ErrConfiguration marks a grid-search configuration problem discovered
// before any run starts: a missing base_config, an invalid symbol set
// for the chosen strategy, or a combinatorial explosion past the
// configured maximum.
var ErrConfiguration = errors.New("invalid configuration")

// ErrStrategy wraps a panic or error raised from inside a strategy's
// OnBar, annotated by the caller with the offending bar's timestamp and
// symbol before propagation.
var ErrStrategy = errors.New("strategy error")
