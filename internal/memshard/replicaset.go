package memshard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dreamware/vectorshard/internal/clock"
	"github.com/dreamware/vectorshard/internal/collection"
)

// ReplicaSet is a single-node collection.ReplicaSet: every write applies
// directly to its one local Store, and UpdateWithConsistency collapses to
// UpdateLocal since there is no second replica to wait on. A multi-node
// ReplicaSet would use internal/peer to fan writes out to the shard's
// other holders before acknowledging Medium or Strong ordering; this one
// exists so internal/collection's dispatcher and aggregator can be
// exercised without a real cluster.
type ReplicaSet struct {
	store *Store

	// clockMu serializes Occupy calls; VectorClock.Occupy mutates its
	// backing slice and is not safe for concurrent callers on its own.
	clockMu sync.Mutex
	clock   *clock.VectorClock

	opSeq uint64
}

// NewReplicaSet creates a replica set backed by a fresh empty store.
func NewReplicaSet() *ReplicaSet {
	return &ReplicaSet{store: NewStore(), clock: clock.New()}
}

// Store exposes the underlying record store for admin/test use (seeding
// fixtures, inspecting contents).
func (r *ReplicaSet) Store() *Store { return r.store }

func (r *ReplicaSet) occupy() *clock.ClockGuard {
	r.clockMu.Lock()
	defer r.clockMu.Unlock()
	return r.clock.Occupy()
}

func (r *ReplicaSet) apply(op collection.UpdateOperation) error {
	switch o := op.(type) {
	case *UpsertOp:
		r.store.Upsert(o.Records)
	case *DeleteOp:
		r.store.Delete(o.IDs)
	case *SetPayloadOp:
		r.store.SetPayload(o.IDs, o.Payload)
	default:
		return fmt.Errorf("memshard: unsupported operation type %T", op)
	}
	return nil
}

// UpdateLocal applies op to this replica's local store and stamps the
// result with a clock tick. It never returns a nil result; every
// ReplicaSet in this package holds a local copy of its shard by
// construction.
func (r *ReplicaSet) UpdateLocal(ctx context.Context, op collection.UpdateOperation, wait bool) (*collection.UpdateResult, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if err := r.apply(op); err != nil {
		return nil, err
	}

	guard := r.occupy()
	defer guard.Release()
	tick := guard.Tick()

	status := collection.StatusAcknowledged
	if wait {
		status = collection.StatusCompleted
	}
	return &collection.UpdateResult{
		OperationID: atomic.AddUint64(&r.opSeq, 1),
		Status:      status,
		ClockTag:    &collection.ClockTag{ClockID: uint32(guard.ID()), Tick: tick},
	}, nil
}

// UpdateWithConsistency applies op through the replica set's consistency
// path. With a single local replica, Weak/Medium/Strong all observe the
// same outcome; ordering only changes behavior once more than one
// replica is involved.
func (r *ReplicaSet) UpdateWithConsistency(ctx context.Context, op collection.UpdateOperation, wait bool, ordering collection.WriteOrdering) (collection.UpdateResult, error) {
	res, err := r.UpdateLocal(ctx, op, wait)
	if err != nil {
		return collection.UpdateResult{}, err
	}
	return *res, nil
}

// ScrollBy delegates to the local store.
func (r *ReplicaSet) ScrollBy(ctx context.Context, offset *collection.PointID, limit uint64, withPayload, withVector bool, filter any, consistency *collection.ReadConsistency, isShardID bool, orderBy *collection.OrderBy) ([]collection.Record, error) {
	return r.store.Scroll(offset, limit, withPayload, withVector, filter, orderBy), nil
}

// Retrieve delegates to the local store.
func (r *ReplicaSet) Retrieve(ctx context.Context, request collection.PointRequest, withPayload, withVector bool, consistency *collection.ReadConsistency, isShardID bool) ([]collection.Record, error) {
	return r.store.Retrieve(request.IDs, withPayload, withVector), nil
}

// Count delegates to the local store.
func (r *ReplicaSet) Count(ctx context.Context, request collection.CountRequest, consistency *collection.ReadConsistency, isShardID bool) (collection.CountResult, error) {
	return collection.CountResult{Count: r.store.Count(request.Filter)}, nil
}

var _ collection.ReplicaSet = (*ReplicaSet)(nil)
