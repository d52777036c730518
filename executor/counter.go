package executor

import (
	"sync/atomic"
	"unsafe"
)

// ============================================================================
// Sharded Counter - submission accounting off the hot path
// ============================================================================

const (
	// numShards should be a power of 2 for cheap masking.
	numShards = 32
	shardMask = numShards - 1
)

// cacheLinePad prevents false sharing between shards.
// Most modern CPUs have 64-byte cache lines.
type cacheLinePad struct {
	_ [64]byte
}

// counterShard is a single padded slot.
type counterShard struct {
	_     cacheLinePad
	value atomic.Int64
	_     cacheLinePad
}

// shardedCounter distributes increments across padded shards so that many
// submitters bumping the submissions counter do not contend on one cache
// line. Each increment is a single wait-free fetch-add on one shard.
type shardedCounter struct {
	shards [numShards]counterShard
}

// getShard picks a shard from bits of the caller's stack address, which is
// cheaper than resolving the goroutine id and spreads well in practice.
func (c *shardedCounter) getShard() *counterShard {
	var x [1]byte
	idx := (uintptr(unsafe.Pointer(&x[0])) >> 12) & shardMask
	return &c.shards[idx]
}

// Inc increments the counter by 1.
func (c *shardedCounter) Inc() {
	c.getShard().value.Add(1)
}

// Load returns the total across all shards. Not atomic with respect to
// concurrent increments.
func (c *shardedCounter) Load() int64 {
	var total int64
	for i := range c.shards {
		total += c.shards[i].value.Load()
	}
	return total
}

// Swap drains every shard to zero and returns the sum. Concurrent
// increments land either in this swap or the next one, never both.
func (c *shardedCounter) Swap() int64 {
	var total int64
	for i := range c.shards {
		total += c.shards[i].value.Swap(0)
	}
	return total
}
