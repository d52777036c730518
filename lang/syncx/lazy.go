package syncx

import (
	"sync"
	"sync/atomic"
)

// Lazy is a once-initialized value container.
//
// The value is created by the init function on first Get and shared by all
// subsequent callers. Concurrent first touch is safe: exactly one caller runs
// the initializer, the rest block until it completes.
type Lazy[T any] struct {
	once        sync.Once
	init        func() T
	value       T
	initialized atomic.Bool
}

// NewLazy creates a lazy container around init.
func NewLazy[T any](init func() T) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the value, running the initializer if it has not run yet.
func (l *Lazy[T]) Get() T {
	l.once.Do(func() {
		if l.init != nil {
			l.value = l.init()
		}
		l.initialized.Store(true)
	})
	return l.value
}

// IsInitialized reports whether the initializer has completed.
// It never triggers initialization.
func (l *Lazy[T]) IsInitialized() bool {
	return l.initialized.Load()
}
