package executor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/everyday-items/bastion/proc"
	"github.com/everyday-items/bastion/util/logger"
)

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "text"})
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// testPoolConfig shrinks the controller intervals so scaling behavior is
// observable in unit-test time.
func testPoolConfig(lowWatermark int) poolConfig {
	return poolConfig{
		lowWatermark: lowWatermark,
		tickInterval: 20 * time.Millisecond,
		windowTicks:  5,
		idleDeadline: 100 * time.Millisecond,
		parkTimeout:  80 * time.Millisecond,
		softCap:      softCapMultiplier * lowWatermark,
	}
}

func newTestPool(name string, lowWatermark int, blocking bool) *Pool {
	cfg := testPoolConfig(lowWatermark)
	if blocking {
		return newPool(name, cfg, func(p *Pool) Runner {
			return &BlockingRunner{pool: p}
		})
	}
	return newPool(name, cfg, func(p *Pool) Runner {
		return &AsyncRunner{pool: p}
	})
}

// ============================================================================
// Scenario tests
// ============================================================================

// Cold start: a single task runs promptly on a static worker; no dynamic
// worker is spawned for it.
func TestPool_ColdStartSingleTask(t *testing.T) {
	p := newTestPool("cold-start", 2, false)

	done := make(chan struct{})
	p.Schedule(funcTask(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("task did not run within 200ms of submission")
	}

	// Give the scaler a few ticks to (wrongly) react.
	time.Sleep(100 * time.Millisecond)
	if got := p.Stats().DynamicWorkers; got != 0 {
		t.Errorf("single task must not create dynamic workers, got %d", got)
	}
}

// Burst: sustained submissions scale the dynamic population out; idleness
// reclaims it down to zero.
func TestPool_BurstScalesOutThenReclaims(t *testing.T) {
	p := newTestPool("burst", 2, false)

	const n = 400
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		p.Schedule(funcTask(func() {
			time.Sleep(10 * time.Millisecond)
			wg.Done()
		}))
		if i%50 == 49 {
			time.Sleep(10 * time.Millisecond)
		}
	}

	waitUntil(t, 2*time.Second, func() bool {
		return p.Stats().DynamicWorkers > 0
	})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("burst did not complete")
	}
	// The completed counter is bumped after Run returns, so it can trail wg.Done.
	for settle := time.Now().Add(time.Second); p.Stats().TasksCompleted < n && time.Now().Before(settle); {
		time.Sleep(time.Millisecond)
	}
	if got := p.Stats().TasksCompleted; got != n {
		t.Errorf("expected %d completed, got %d", n, got)
	}

	// Window (5 ticks x 20ms) plus idle deadline plus slack.
	waitUntil(t, 3*time.Second, func() bool {
		return p.Stats().DynamicWorkers == 0
	})
}

// A panicking task neither kills its worker nor poisons the pool.
func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	p := newTestPool("panic", 1, false)

	h1 := p.Spawn(func() { panic("boom") }, proc.NewStack())
	if _, err := h1.GetWithTimeout(2 * time.Second); err == nil {
		t.Error("panicking task should resolve its handle with an error")
	}

	h2 := p.Spawn(func() {}, proc.NewStack())
	if _, err := h2.GetWithTimeout(2 * time.Second); err != nil {
		t.Errorf("follow-up task failed: %v", err)
	}
}

// The blocking pool's low watermark comes from the environment, read at
// initialization.
func TestPool_EnvConfiguredLowWatermark(t *testing.T) {
	t.Setenv(envBlockingThreads, "8")

	cfg := defaultPoolConfig(lowWatermark(envBlockingThreads))
	p := newPool("env-blocking", cfg, func(p *Pool) Runner {
		return &BlockingRunner{pool: p}
	})

	if got := p.Stats().StaticWorkers; got != 8 {
		t.Errorf("expected 8 static workers, got %d", got)
	}
	if got := p.manager.cfg.softCap; got != 80 {
		t.Errorf("expected soft cap 80, got %d", got)
	}
}

func TestLowWatermark_Default(t *testing.T) {
	if got := lowWatermark(envAsyncThreads); got != defaultLowWatermark {
		t.Errorf("expected default %d, got %d", defaultLowWatermark, got)
	}
}

func TestLowWatermark_AsyncOverride(t *testing.T) {
	t.Setenv(envBlockingThreads, "4")
	t.Setenv(envAsyncThreads, "6")

	if got := lowWatermark(envAsyncThreads); got != 6 {
		t.Errorf("expected override 6, got %d", got)
	}
	if got := lowWatermark(envBlockingThreads); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func TestLowWatermark_PanicsOnGarbage(t *testing.T) {
	t.Setenv(envBlockingThreads, "many")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on unparseable thread count")
		}
	}()
	lowWatermark(envBlockingThreads)
}

// Saturating the blocking pool must not delay the async pool: the pools
// share no channel, workers or load state.
func TestPools_Independent(t *testing.T) {
	blocking := newTestPool("indep-blocking", 2, true)
	async := newTestPool("indep-async", 2, false)

	var g errgroup.Group
	g.Go(func() error {
		var wg sync.WaitGroup
		wg.Add(50)
		for i := 0; i < 50; i++ {
			blocking.Schedule(funcTask(func() {
				time.Sleep(200 * time.Millisecond)
				wg.Done()
			}))
		}
		wg.Wait()
		return nil
	})

	asyncDone := make(chan struct{})
	g.Go(func() error {
		var wg sync.WaitGroup
		wg.Add(100)
		for i := 0; i < 100; i++ {
			async.Schedule(funcTask(func() {
				time.Sleep(time.Millisecond)
				wg.Done()
			}))
		}
		wg.Wait()
		close(asyncDone)
		return nil
	})

	select {
	case <-asyncDone:
	case <-time.After(3 * time.Second):
		t.Fatal("async tasks starved by blocking load")
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// Every scheduled task runs exactly once, whichever worker picks it up.
func TestPool_EveryTaskRunsOnce(t *testing.T) {
	p := newTestPool("exactly-once", 1, false)

	const n = 100
	var mu sync.Mutex
	runs := make(map[int]int)
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		i := i
		p.Schedule(funcTask(func() {
			mu.Lock()
			runs[i]++
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(runs) != n {
		t.Fatalf("expected %d tasks, got %d", n, len(runs))
	}
	for i, c := range runs {
		if c != 1 {
			t.Fatalf("task %d ran %d times", i, c)
		}
	}
}

// ============================================================================
// Facade tests
// ============================================================================

func TestGet_ReturnsSameInstance(t *testing.T) {
	if Get() != Get() {
		t.Error("Get must return the process-wide pool")
	}
}

func TestSpawn_ResolvesHandle(t *testing.T) {
	h := Spawn(func() int { return 41 + 1 }, proc.NewStack())

	got, err := h.GetWithTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestSpawnBlocking_ResolvesHandle(t *testing.T) {
	h := SpawnBlocking(func() string {
		time.Sleep(10 * time.Millisecond)
		return "done"
	}, proc.NewStack())

	got, err := h.GetWithTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "done" {
		t.Errorf("expected done, got %q", got)
	}
}

func TestPoolSpawn_CountsAgainstStats(t *testing.T) {
	p := newTestPool("stats", 2, false)

	var ran atomic.Bool
	h := p.Spawn(func() { ran.Store(true) }, proc.NewStack())
	if _, err := h.GetWithTimeout(2 * time.Second); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ran.Load() {
		t.Fatal("task did not run")
	}

	s := p.Stats()
	if s.TasksScheduled != 1 {
		t.Errorf("expected 1 scheduled, got %d", s.TasksScheduled)
	}
	waitUntil(t, time.Second, func() bool {
		return p.Stats().TasksCompleted == 1
	})
}
