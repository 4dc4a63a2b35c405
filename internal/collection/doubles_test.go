package collection

import (
	"context"
	"fmt"
	"sync"
)

// fakeOp is a minimal UpdateOperation double used across dispatcher and
// aggregator tests.
type fakeOp struct {
	id      string
	invalid bool
}

func (o *fakeOp) Validate() error {
	if o.invalid {
		return fmt.Errorf("fake op %s marked invalid", o.id)
	}
	return nil
}

func (o *fakeOp) Clone() UpdateOperation {
	clone := *o
	return &clone
}

// fakeReplica is a ReplicaSet double whose behavior is configured per test
// via closures; nil closures fall back to a zero-value success.
type fakeReplica struct {
	mu sync.Mutex

	updateLocalFn func(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error)
	updateConsFn  func(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error)
	scrollFn      func(ctx context.Context, offset *PointID, limit uint64, withPayload, withVector bool, filter any, consistency *ReadConsistency, isShardID bool, orderBy *OrderBy) ([]Record, error)
	retrieveFn    func(ctx context.Context, request PointRequest, withPayload, withVector bool, consistency *ReadConsistency, isShardID bool) ([]Record, error)
	countFn       func(ctx context.Context, request CountRequest, consistency *ReadConsistency, isShardID bool) (CountResult, error)

	updateConsCalls int
}

func (f *fakeReplica) UpdateLocal(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error) {
	if f.updateLocalFn != nil {
		return f.updateLocalFn(ctx, op, wait)
	}
	return &UpdateResult{Status: StatusAcknowledged}, nil
}

func (f *fakeReplica) UpdateWithConsistency(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error) {
	f.mu.Lock()
	f.updateConsCalls++
	f.mu.Unlock()
	if f.updateConsFn != nil {
		return f.updateConsFn(ctx, op, wait, ordering)
	}
	return UpdateResult{Status: StatusAcknowledged}, nil
}

func (f *fakeReplica) ScrollBy(ctx context.Context, offset *PointID, limit uint64, withPayload, withVector bool, filter any, consistency *ReadConsistency, isShardID bool, orderBy *OrderBy) ([]Record, error) {
	if f.scrollFn != nil {
		return f.scrollFn(ctx, offset, limit, withPayload, withVector, filter, consistency, isShardID, orderBy)
	}
	return nil, nil
}

func (f *fakeReplica) Retrieve(ctx context.Context, request PointRequest, withPayload, withVector bool, consistency *ReadConsistency, isShardID bool) ([]Record, error) {
	if f.retrieveFn != nil {
		return f.retrieveFn(ctx, request, withPayload, withVector, consistency, isShardID)
	}
	return nil, nil
}

func (f *fakeReplica) Count(ctx context.Context, request CountRequest, consistency *ReadConsistency, isShardID bool) (CountResult, error) {
	if f.countFn != nil {
		return f.countFn(ctx, request, consistency, isShardID)
	}
	return CountResult{}, nil
}

// fakeHolder is a ShardHolder double backed by an explicit shard list and a
// configurable split function.
type fakeHolder struct {
	shards   map[ShardID]ReplicaSet
	order    []ShardID
	splitFn  func(op UpdateOperation, selector ShardSelector) ([]ShardOpTarget, error)
	selectFn func(selector ShardSelector) ([]ShardTarget, error)
}

func newFakeHolder() *fakeHolder {
	return &fakeHolder{shards: map[ShardID]ReplicaSet{}}
}

func (h *fakeHolder) add(id ShardID, r ReplicaSet) {
	h.shards[id] = r
	h.order = append(h.order, id)
}

func (h *fakeHolder) AllShards() []ReplicaSet {
	out := make([]ReplicaSet, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.shards[id])
	}
	return out
}

func (h *fakeHolder) GetShard(id ShardID) (ReplicaSet, bool) {
	r, ok := h.shards[id]
	return r, ok
}

func (h *fakeHolder) SelectShards(selector ShardSelector) ([]ShardTarget, error) {
	if h.selectFn != nil {
		return h.selectFn(selector)
	}
	out := make([]ShardTarget, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, ShardTarget{Replica: h.shards[id]})
	}
	return out, nil
}

func (h *fakeHolder) SplitByShard(op UpdateOperation, selector ShardSelector) ([]ShardOpTarget, error) {
	if h.splitFn != nil {
		return h.splitFn(op, selector)
	}
	out := make([]ShardOpTarget, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, ShardOpTarget{Replica: h.shards[id], Operation: op.Clone()})
	}
	return out, nil
}

// fakeSchema is a PayloadSchema double with a fixed set of indexed keys.
type fakeSchema struct {
	indexed map[string]bool
}

func (s *fakeSchema) HasRangeIndex(key string) bool { return s.indexed[key] }
