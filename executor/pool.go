package executor

import (
	"time"

	"github.com/everyday-items/bastion/lang/syncx"
	"github.com/everyday-items/bastion/proc"
	"github.com/everyday-items/bastion/util/env"
	"github.com/everyday-items/bastion/util/logger"
)

const (
	// defaultLowWatermark is the scaler heuristic baseline when no thread
	// count is configured.
	defaultLowWatermark = 2

	// threadRecvTimeout bounds a static worker's blocking receive.
	threadRecvTimeout = 100 * time.Millisecond

	// tickInterval is the sampler and scaler cadence.
	tickInterval = 200 * time.Millisecond

	// windowTicks is the sampler history length (~12s at 200ms ticks).
	windowTicks = 61

	// softCapMultiplier bounds dynamic workers at this multiple of the
	// low watermark.
	softCapMultiplier = 10

	// envBlockingThreads configures the low watermark of both pools.
	// Read exactly once, at pool initialization.
	envBlockingThreads = "BASTION_BLOCKING_THREADS"

	// envAsyncThreads, when set, overrides the low watermark for the
	// async pool only.
	envAsyncThreads = "BASTION_ASYNC_THREADS"
)

// Pool is the interface between the scheduler and one worker population.
type Pool struct {
	name      string
	queue     *taskQueue
	manager   *dynamicPoolManager
	completed shardedCounter
	log       *logger.Logger
}

// Stats is a point-in-time snapshot of a pool.
type Stats struct {
	StaticWorkers      int
	DynamicWorkers     int
	ParkedDynamic      int
	RecommendedWorkers int
	QueueDepth         int
	TasksScheduled     int64
	TasksCompleted     int64
}

// newPool builds and starts a pool. Returns once the static workers are
// spawned and the tick loop is running, so the first Schedule observes a
// fully initialized pool.
func newPool(name string, cfg poolConfig, makeRunner func(*Pool) Runner) *Pool {
	p := &Pool{
		name:  name,
		queue: newTaskQueue(),
		log:   logger.Default().With("pool", name),
	}
	p.manager = newDynamicPoolManager(p, makeRunner(p), cfg)
	p.manager.initialize()
	return p
}

// Schedule enqueues t for execution on some worker of this pool. The task
// runs exactly once; ordering is FIFO per submitting goroutine. Never
// fails: a non-blocking send that cannot complete falls back to a
// blocking send of the same task.
func (p *Pool) Schedule(t Task) {
	if !p.queue.Send(t) {
		p.queue.SendBlocking(t)
	}
	p.manager.incrementFrequency()
	p.manager.wakeOne()
}

// Spawn submits fn with its supervision stack to this pool.
func (p *Pool) Spawn(fn func(), stack proc.Stack) *proc.Handle[struct{}] {
	t, h := proc.Recoverable(func() struct{} {
		fn()
		return struct{}{}
	}, stack)
	p.Schedule(t)
	return h
}

// Stats snapshots the pool's population and throughput counters.
func (p *Pool) Stats() Stats {
	m := p.manager
	return Stats{
		StaticWorkers:      m.cfg.lowWatermark,
		DynamicWorkers:     int(m.dynamicCount.Load()),
		ParkedDynamic:      m.registry.size(),
		RecommendedWorkers: m.sampler.RecommendedWorkers(m.cfg.softCap),
		QueueDepth:         p.queue.Len(),
		TasksScheduled:     m.scheduled.Load(),
		TasksCompleted:     p.completed.Load(),
	}
}

// asyncPool is the process-wide async pool, created on first touch.
var asyncPool = syncx.NewLazy(func() *Pool {
	cfg := defaultPoolConfig(lowWatermark(envAsyncThreads))
	return newPool("async", cfg, func(p *Pool) Runner {
		return &AsyncRunner{pool: p}
	})
})

// Get returns the async pool.
func Get() *Pool {
	return asyncPool.Get()
}

// Spawn submits fn to the async pool and returns its handle. fn must not
// block the worker; blocking work belongs on SpawnBlocking.
func Spawn[T any](fn func() T, stack proc.Stack) *proc.Handle[T] {
	t, h := proc.Recoverable(fn, stack)
	Get().Schedule(t)
	return h
}

// lowWatermark reads the minimum worker count: the pool-specific override
// when set, BASTION_BLOCKING_THREADS otherwise. A set-but-unparseable
// value panics; misconfiguration is a programming error.
func lowWatermark(overrideKey string) int {
	if v, ok := env.Lookup(overrideKey); ok && v != "" {
		return env.MustGetIntDefault(overrideKey, defaultLowWatermark)
	}
	return env.MustGetIntDefault(envBlockingThreads, defaultLowWatermark)
}
