package strategy

import (
	"github.com/ridopark/quantback/internal/types"
)

// SignalQueue collects the signals a strategy emits during a single bar's
// OnBar call, preserving emission order. The event loop drains it in FIFO
// order after OnBar returns — signal sizing and cash/margin allocation are
// the portfolio's job (internal/portfolio), not the strategy's; this queue
// only orders the hand-off.
type SignalQueue struct {
	signals []types.Signal
}

// NewSignalQueue returns an empty queue.
func NewSignalQueue() *SignalQueue {
	return &SignalQueue{}
}

// Push appends a signal to the queue.
func (q *SignalQueue) Push(s types.Signal) {
	q.signals = append(q.signals, s)
}

// Drain returns the queued signals in FIFO order and empties the queue.
func (q *SignalQueue) Drain() []types.Signal {
	out := q.signals
	q.signals = nil
	return out
}

// Len reports the number of signals currently queued.
func (q *SignalQueue) Len() int {
	return len(q.signals)
}
