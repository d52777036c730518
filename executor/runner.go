package executor

import (
	"runtime"
	"time"
)

// ============================================================================
// Runner - polymorphic worker behavior
// ============================================================================

// Runner is the injected worker body. The manager spawns every worker
// through one of these entry points; the async and blocking pools differ
// only in their Runner.
type Runner interface {
	// RunStatic is the body of a static worker. Never returns. Parks with
	// a bounded timeout so a lost wake still allows a periodic drain.
	RunStatic(parkTimeout time.Duration)

	// RunDynamic is the body of a dynamic worker. The parker blocks the
	// worker between drains; when it reports idle-deadline expiry the
	// worker exits and RunDynamic returns.
	RunDynamic(parker Parker)

	// RunStandalone performs a single drain pass then returns. Used to
	// absorb a burst without leaving a persistent worker behind.
	RunStandalone()
}

// Bootstrap wraps a worker loop. The async pool uses it to enter a host
// runtime on each worker before driving the loop; the default is a direct
// call.
type Bootstrap func(loop func())

// AsyncRunner drives the async pool's workers. An optional Bootstrap lets
// tasks rely on a per-worker host runtime.
type AsyncRunner struct {
	pool      *Pool
	bootstrap Bootstrap
}

func (r *AsyncRunner) enter(loop func()) {
	if r.bootstrap != nil {
		r.bootstrap(loop)
		return
	}
	loop()
}

// RunStatic implements Runner.
func (r *AsyncRunner) RunStatic(parkTimeout time.Duration) {
	r.enter(func() { r.pool.staticLoop(parkTimeout) })
}

// RunDynamic implements Runner.
func (r *AsyncRunner) RunDynamic(parker Parker) {
	r.enter(func() { r.pool.dynamicLoop(parker) })
}

// RunStandalone implements Runner.
func (r *AsyncRunner) RunStandalone() {
	r.enter(func() { r.pool.drain() })
}

// BlockingRunner drives the blocking pool's workers. Workers are pinned to
// their OS thread, since a blocking task may monopolize it.
type BlockingRunner struct {
	pool *Pool
}

// RunStatic implements Runner.
func (r *BlockingRunner) RunStatic(parkTimeout time.Duration) {
	runtime.LockOSThread()
	r.pool.staticLoop(parkTimeout)
}

// RunDynamic implements Runner.
func (r *BlockingRunner) RunDynamic(parker Parker) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	r.pool.dynamicLoop(parker)
}

// RunStandalone implements Runner.
func (r *BlockingRunner) RunStandalone() {
	r.pool.drain()
}

// ============================================================================
// Worker loops - shared by both runners
// ============================================================================

// staticLoop drains with a bounded recv timeout, then parks with a bounded
// timeout. The recv timeout keeps the worker re-checking for wake signals;
// the park timeout guarantees a wake even when an unpark was lost to a
// race with submission. Never returns.
func (p *Pool) staticLoop(parkTimeout time.Duration) {
	for {
		for {
			t, ok := p.queue.Recv(threadRecvTimeout)
			if !ok {
				break
			}
			p.runTask(t)
		}
		p.log.Debug("static worker: empty queue, parking with timeout")
		p.queue.waitSignal(parkTimeout)
	}
}

// dynamicLoop drains without blocking, then parks via the injected parker.
// On idle-deadline expiry the queue is drained one final time: finding
// work cancels the exit, otherwise the worker dies. The final drain closes
// the window where the manager unparks a worker that already decided to
// exit.
func (p *Pool) dynamicLoop(parker Parker) {
	for {
		p.drain()
		if parker() {
			continue
		}
		if t, ok := p.queue.TryRecv(); ok {
			p.runTask(t)
			continue
		}
		p.log.Debug("dynamic worker: idle deadline expired, exiting")
		return
	}
}

// drain runs tasks until the queue is empty, without blocking.
func (p *Pool) drain() {
	for {
		t, ok := p.queue.TryRecv()
		if !ok {
			return
		}
		p.runTask(t)
	}
}

func (p *Pool) runTask(t Task) {
	t.Run()
	p.completed.Inc()
	tasksCompletedTotal.WithLabelValues(p.name).Inc()
}
