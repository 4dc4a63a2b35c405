package collection

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dreamware/vectorshard/internal/metrics"
)

const defaultScrollLimit = 10

// Collection coordinates reads and writes across the shards of one
// distributed vector collection. It owns the routing/reconciliation logic
// in this package (the update dispatcher and the read aggregator) and two
// locks described in the package design notes; it owns none of the
// storage, replication or consensus behind ShardHolder/ReplicaSet.
type Collection struct {
	// updatesMu is the phase barrier between ordinary writes (held
	// shared, for the duration of any write path) and administrative
	// operations such as snapshot or shard transfer (held exclusive, out
	// of this package's scope but the lock is owned here since writes
	// must be excluded from them).
	updatesMu sync.RWMutex

	// holderMu guards the holder field itself (e.g. hot-swap during an
	// admin rebalance), not anything the holder exposes — the holder is
	// immutable from this package's point of view.
	holderMu sync.RWMutex
	holder   ShardHolder

	schema PayloadSchema

	defaultLimit       uint64
	defaultWithPayload bool

	metrics metrics.Sink
	log     *zap.Logger
}

// Option configures a Collection at construction time.
type Option func(*Collection)

// WithDefaultScrollLimit overrides the limit used when a ScrollRequest
// doesn't name one. Must be positive.
func WithDefaultScrollLimit(limit uint64) Option {
	return func(c *Collection) {
		if limit > 0 {
			c.defaultLimit = limit
		}
	}
}

// WithDefaultWithPayload overrides the with_payload default used when a
// ScrollRequest doesn't name one.
func WithDefaultWithPayload(enabled bool) Option {
	return func(c *Collection) { c.defaultWithPayload = enabled }
}

// WithMetrics plugs a metrics sink. The zero value (nil) is replaced by a
// no-op sink so the hot path never needs a nil check.
func WithMetrics(sink metrics.Sink) Option {
	return func(c *Collection) {
		if sink != nil {
			c.metrics = sink
		}
	}
}

// WithLogger plugs a zap logger. The core never logs on a successful hot
// path; it logs reconciliation decisions (partial failure, uniform
// failure) and validation rejections.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collection) {
		if logger != nil {
			c.log = logger
		}
	}
}

// New constructs a Collection over the given ShardHolder and payload
// schema store.
func New(holder ShardHolder, schema PayloadSchema, opts ...Option) *Collection {
	c := &Collection{
		holder:             holder,
		schema:             schema,
		defaultLimit:       defaultScrollLimit,
		defaultWithPayload: true,
		metrics:            metrics.Noop{},
		log:                zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetShardHolder hot-swaps the shard holder under the holder lock. This is
// the core's half of a shard-transfer/rebalance admin operation; the other
// half (building the new holder) lives outside this package.
func (c *Collection) SetShardHolder(holder ShardHolder) {
	c.holderMu.Lock()
	defer c.holderMu.Unlock()
	c.holder = holder
}

func (c *Collection) shardHolder() ShardHolder {
	c.holderMu.RLock()
	defer c.holderMu.RUnlock()
	return c.holder
}

// WithAdminExclusion runs fn with the updates lock held exclusively,
// blocking until every in-flight write path (which holds the same lock
// shared) has returned, and preventing new ones from starting until fn
// returns. Administrative operations such as snapshotting or shard
// transfer should wrap their critical section in this call; it must never
// be used to protect ordinary data, only to serialize against writes.
func (c *Collection) WithAdminExclusion(fn func() error) error {
	c.updatesMu.Lock()
	defer c.updatesMu.Unlock()
	return fn()
}
