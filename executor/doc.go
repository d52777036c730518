// Package executor provides a dual thread-pool executor for lightweight
// processes.
//
// Two sibling pools live in the process: an async pool for non-blocking
// tasks and a blocking pool for CPU- or I/O-bound tasks that may monopolize
// a worker. Each pool feeds an unbounded task channel into a population of
// workers sized by a dynamic pool manager: a fixed set of static workers
// plus temporary dynamic workers that are spawned to absorb bursts and die
// back down after an idle deadline. The manager tracks recent submission
// frequency and provisions for the upper tail of the load, not the mean.
//
// Spawning:
//
//	h := executor.Spawn(func() int {
//	    return compute()
//	}, proc.NewStack())
//	result, err := h.Get()
//
// Blocking work goes to the sibling pool:
//
//	h := executor.SpawnBlocking(func() []byte {
//	    return readAll(f)
//	}, proc.NewStack())
//
// Pools are created lazily on first use and live for the process lifetime.
// The minimum worker count is read once from BASTION_BLOCKING_THREADS
// (default 2); the async pool uses BASTION_ASYNC_THREADS instead when that
// is set.
package executor
