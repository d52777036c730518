// Package proc implements lightweight recoverable processes.
//
// A process packages a user function with a supervision Stack and a typed
// completion Handle. The process runs exactly once on some executor worker;
// a panic inside the function is absorbed by the process and surfaces only
// through the handle.
//
// Usage:
//
//	p, h := proc.Recoverable(func() int {
//	    return compute()
//	}, proc.NewStack())
//
//	pool.Schedule(p)
//	result, err := h.Get()
package proc
