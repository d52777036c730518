package executor

import (
	"sync"
	"sync/atomic"
	"time"
)

// ============================================================================
// Parker - suspension handles for dynamic workers
// ============================================================================

// Parker blocks a dynamic worker until it is unparked or its idle deadline
// elapses. Returns true when unparked, false on deadline expiry; expiry
// tells the caller to exit.
type Parker func() bool

// parkHandle is one dynamic worker's wake channel. The capacity-1 buffer
// makes unpark non-blocking and coalesces redundant wakes.
type parkHandle struct {
	id   uint64
	wake chan struct{}
}

func (p *parkHandle) park(deadline time.Duration) bool {
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case <-p.wake:
		return true
	case <-timer.C:
		return false
	}
}

func (p *parkHandle) unpark() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// parkerRegistry tracks currently-parked dynamic workers so the manager
// can wake one in preference to spawning a fresh thread.
type parkerRegistry struct {
	mu     sync.Mutex
	parked map[uint64]*parkHandle
	lastID atomic.Uint64
}

func newParkerRegistry() *parkerRegistry {
	return &parkerRegistry{parked: make(map[uint64]*parkHandle)}
}

func (r *parkerRegistry) newHandle() *parkHandle {
	return &parkHandle{
		id:   r.lastID.Add(1),
		wake: make(chan struct{}, 1),
	}
}

func (r *parkerRegistry) register(p *parkHandle) {
	r.mu.Lock()
	r.parked[p.id] = p
	r.mu.Unlock()
}

func (r *parkerRegistry) deregister(id uint64) {
	r.mu.Lock()
	delete(r.parked, id)
	r.mu.Unlock()
}

// popOne removes and returns any parked handle, or nil when none is parked.
func (r *parkerRegistry) popOne() *parkHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.parked {
		delete(r.parked, id)
		return p
	}
	return nil
}

func (r *parkerRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.parked)
}
