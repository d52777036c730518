// Package syncx provides small synchronization containers on top of sync.
//
// Lazy[T] is a once-initialized value holder used for process-wide
// singletons that must be created on first touch:
//
//	var pool = syncx.NewLazy(func() *Pool {
//	    return newPool()
//	})
//
//	func Get() *Pool { return pool.Get() }
//
// All types are safe for concurrent use.
package syncx
