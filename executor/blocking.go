package executor

import (
	"github.com/everyday-items/bastion/lang/syncx"
	"github.com/everyday-items/bastion/proc"
)

// blockingPool is the process-wide blocking pool, created on first touch.
// It shares nothing with the async pool: separate channel, workers and
// load state.
var blockingPool = syncx.NewLazy(func() *Pool {
	cfg := defaultPoolConfig(lowWatermark(envBlockingThreads))
	return newPool("blocking", cfg, func(p *Pool) Runner {
		return &BlockingRunner{pool: p}
	})
})

// SpawnBlocking submits fn to the thread pool dedicated to blocking tasks
// and returns its handle. The task may monopolize its worker; the manager
// compensates by scaling out.
func SpawnBlocking[T any](fn func() T, stack proc.Stack) *proc.Handle[T] {
	t, h := proc.Recoverable(fn, stack)
	blockingPool.Get().Schedule(t)
	return h
}
