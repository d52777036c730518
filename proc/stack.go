package proc

import "github.com/google/uuid"

// Stack is the supervision stack attached to a process.
//
// It carries the process identity and optional callbacks invoked on the
// worker around the user function.
type Stack struct {
	// ID identifies the process in logs and supervision trees.
	ID string

	// Before runs on the worker just before the user function.
	Before func()

	// After runs on the worker after the user function returned or
	// panicked. It runs even when the function panicked.
	After func()
}

// NewStack creates a stack with a fresh process id.
func NewStack() Stack {
	return Stack{ID: uuid.New().String()}
}

// WithID returns a copy of the stack with the given process id.
func (s Stack) WithID(id string) Stack {
	s.ID = id
	return s
}

// WithBefore returns a copy of the stack with the given pre-run callback.
func (s Stack) WithBefore(fn func()) Stack {
	s.Before = fn
	return s
}

// WithAfter returns a copy of the stack with the given post-run callback.
func (s Stack) WithAfter(fn func()) Stack {
	s.After = fn
	return s
}
