// Package model provides the model lifecycle types shared across loangate.
package model

import "sync/atomic"

// Holder publishes a trained, read-only value to concurrent readers.
// Training builds a fresh value and calls Publish once it is complete;
// readers call Load without locking. A retrain swaps in a new value and
// never mutates the old one.
type Holder[T any] struct {
	ptr atomic.Pointer[T]
}

// Publish makes v visible to subsequent Load calls.
func (h *Holder[T]) Publish(v *T) {
	h.ptr.Store(v)
}

// Load returns the published value, or nil before the first Publish.
func (h *Holder[T]) Load() *T {
	return h.ptr.Load()
}

// Ready reports whether a value has been published.
func (h *Holder[T]) Ready() bool {
	return h.ptr.Load() != nil
}
