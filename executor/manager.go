package executor

import (
	"sync/atomic"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
)

// ============================================================================
// Dynamic Pool Manager - the thread-population controller
// ============================================================================

// poolConfig carries the controller tunables. Production pools use
// defaultPoolConfig; tests shrink the intervals.
type poolConfig struct {
	lowWatermark int
	tickInterval time.Duration
	windowTicks  int
	idleDeadline time.Duration
	parkTimeout  time.Duration
	softCap      int
}

func defaultPoolConfig(lowWatermark int) poolConfig {
	return poolConfig{
		lowWatermark: lowWatermark,
		tickInterval: tickInterval,
		windowTicks:  windowTicks,
		idleDeadline: 5 * tickInterval,
		parkTimeout:  4 * tickInterval,
		softCap:      softCapMultiplier * lowWatermark,
	}
}

// dynamicPoolManager decides how many workers exist at any instant. It
// owns the load sampler and the parked-worker registry; every tick it
// records a load sample and closes the gap between the sampler's
// recommendation and the workers currently alive (static plus dynamic).
// Shrinkage is
// implicit: idle dynamic workers time out in their parker and exit.
type dynamicPoolManager struct {
	pool     *Pool
	runner   Runner
	cfg      poolConfig
	sampler  *loadSampler
	registry *parkerRegistry

	scheduled shardedCounter

	// dynamicCount is a best-effort estimate of dynamic workers alive.
	dynamicCount atomic.Int64

	// spawn starts a worker thread. A non-nil error means the OS refused;
	// the manager logs and carries on with the workers it has.
	spawn func(fn func()) error
}

func newDynamicPoolManager(pool *Pool, runner Runner, cfg poolConfig) *dynamicPoolManager {
	return &dynamicPoolManager{
		pool:     pool,
		runner:   runner,
		cfg:      cfg,
		sampler:  newLoadSampler(cfg.windowTicks),
		registry: newParkerRegistry(),
		spawn: func(fn func()) error {
			go fn()
			return nil
		},
	}
}

// initialize spawns the static worker set and starts the tick loop. Must
// complete before the pool accepts its first task.
func (m *dynamicPoolManager) initialize() {
	for i := 0; i < m.cfg.lowWatermark; i++ {
		if err := m.spawn(func() { m.runner.RunStatic(m.cfg.parkTimeout) }); err != nil {
			m.pool.log.Warn("static worker spawn failed", "error", err)
			continue
		}
		staticWorkersGauge.WithLabelValues(m.pool.name).Inc()
	}
	go m.tickLoop()
}

// incrementFrequency accounts one submission. Wait-free on the
// submitter's side.
func (m *dynamicPoolManager) incrementFrequency() {
	m.sampler.IncrementFrequency()
	m.scheduled.Inc()
	tasksScheduledTotal.WithLabelValues(m.pool.name).Inc()
}

// wakeOne unparks at most one parked dynamic worker. Called from the
// submit path to cut tail latency for the single-task-after-idle case;
// the tick loop remains the authoritative scaler.
func (m *dynamicPoolManager) wakeOne() bool {
	p := m.registry.popOne()
	if p == nil {
		return false
	}
	p.unpark()
	dynamicUnparksTotal.WithLabelValues(m.pool.name).Inc()
	return true
}

func (m *dynamicPoolManager) tickLoop() {
	ticker := time.NewTicker(m.cfg.tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		m.sampler.record()
		m.scale()
	}
}

// scale closes the deficit between the recommendation and the workers
// alive, preferring unpark over spawn to keep thread churn low.
// Over-shoot needs no action: surplus workers reclaim themselves through
// the idle deadline.
func (m *dynamicPoolManager) scale() {
	recommended := m.sampler.RecommendedWorkers(m.cfg.softCap)
	recommendedWorkersGauge.WithLabelValues(m.pool.name).Set(float64(recommended))

	desired := max(m.cfg.lowWatermark, recommended)

	// Static workers count toward existing capacity: an idle pool with its
	// full static set has no deficit, and dynamic workers only exist while
	// the recommendation exceeds the low watermark.
	current := m.cfg.lowWatermark + int(m.dynamicCount.Load())

	deficit := desired - current
	for i := 0; i < deficit; i++ {
		if m.wakeOne() {
			continue
		}
		if int(m.dynamicCount.Load()) >= m.cfg.softCap {
			break
		}
		m.spawnDynamic()
	}

	// A backlog deeper than the target means demand outran the window;
	// absorb the spike with a one-shot drain pass instead of more
	// persistent threads.
	if deficit > 0 && m.pool.queue.Len() > desired {
		gopool.Go(m.runner.RunStandalone)
		standaloneLaunchesTotal.WithLabelValues(m.pool.name).Inc()
	}
}

func (m *dynamicPoolManager) spawnDynamic() {
	m.dynamicCount.Add(1)
	dynamicWorkersGauge.WithLabelValues(m.pool.name).Inc()

	parker := m.makeParker()
	err := m.spawn(func() {
		defer func() {
			m.dynamicCount.Add(-1)
			dynamicWorkersGauge.WithLabelValues(m.pool.name).Dec()
		}()
		m.runner.RunDynamic(parker)
	})
	if err != nil {
		m.dynamicCount.Add(-1)
		dynamicWorkersGauge.WithLabelValues(m.pool.name).Dec()
		m.pool.log.Warn("dynamic worker spawn failed", "error", err)
		return
	}
	dynamicSpawnsTotal.WithLabelValues(m.pool.name).Inc()
}

// makeParker builds the parker closure handed to one dynamic worker. The
// closure registers the worker's park handle so the manager can wake it,
// and enforces the idle deadline. On expiry the handle is deregistered
// before the closure returns; the worker still drains once more before
// exiting, so an unpark racing the expiry is not lost with work pending.
func (m *dynamicPoolManager) makeParker() Parker {
	p := m.registry.newHandle()
	return func() bool {
		m.registry.register(p)
		if p.park(m.cfg.idleDeadline) {
			return true
		}
		m.registry.deregister(p.id)
		return false
	}
}
