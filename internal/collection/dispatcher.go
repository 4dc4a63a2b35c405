package collection

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpdateAllLocal applies op on every local shard in parallel, failing fast
// on the first error. It returns the first non-nil per-shard result, or
// nil if every shard held no local copy. Used for admin-issued operations
// meant to touch every local replica uniformly.
func (c *Collection) UpdateAllLocal(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error) {
	start := time.Now()
	c.updatesMu.RLock()
	defer c.updatesMu.RUnlock()

	shards := c.shardHolder().AllShards()

	g, gctx := errgroup.WithContext(ctx)
	results := make([]*UpdateResult, len(shards))
	for i, shard := range shards {
		i, shard := i, shard
		g.Go(func() error {
			res, err := shard.UpdateLocal(gctx, op.Clone(), wait)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	c.metrics.ObserveDispatch("update_all_local", "", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// UpdateFromPeer applies op on one named shard on behalf of a replicating
// peer. Weak ordering applies only on the local replica and fails with
// NotFound if this node holds none; Medium and Strong route unconditionally
// through the replica set's consistency path.
func (c *Collection) UpdateFromPeer(ctx context.Context, op UpdateOperation, shardID ShardID, wait bool, ordering WriteOrdering) (UpdateResult, error) {
	start := time.Now()
	c.updatesMu.RLock()
	defer c.updatesMu.RUnlock()

	shard, ok := c.shardHolder().GetShard(shardID)
	if !ok {
		err := notFound("no target shard %d found for update", shardID)
		c.metrics.ObserveDispatch("update_from_peer", ordering.String(), time.Since(start), err)
		return UpdateResult{}, err
	}

	var (
		res *UpdateResult
		err error
	)
	switch ordering {
	case OrderingWeak:
		res, err = shard.UpdateLocal(ctx, op, wait)
	default: // Medium, Strong
		var r UpdateResult
		r, err = shard.UpdateWithConsistency(ctx, op, wait, ordering)
		if err == nil {
			res = &r
		}
	}

	if err != nil {
		c.metrics.ObserveDispatch("update_from_peer", ordering.String(), time.Since(start), err)
		return UpdateResult{}, err
	}
	if res == nil {
		err = notFound("no target shard %d found for update", shardID)
		c.metrics.ObserveDispatch("update_from_peer", ordering.String(), time.Since(start), err)
		return UpdateResult{}, err
	}

	c.metrics.ObserveDispatch("update_from_peer", ordering.String(), time.Since(start), nil)
	return *res, nil
}

// UpdateFromClientSimple is UpdateFromClient with no shard-key
// restriction: the operation is split across whichever shards its own
// shard keys name.
func (c *Collection) UpdateFromClientSimple(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error) {
	return c.UpdateFromClient(ctx, op, wait, ordering, nil)
}

// UpdateFromClient applies op across every shard it touches (or, if
// shardKey is non-nil, only the shard(s) assigned to that key), awaiting
// every per-shard result before reconciling — no fail-fast, so partial
// failure can be told apart from uniform failure.
func (c *Collection) UpdateFromClient(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering, shardKey *ShardKey) (UpdateResult, error) {
	start := time.Now()
	if err := op.Validate(); err != nil {
		result := badRequest("invalid update: %v", err)
		c.metrics.ObserveDispatch("update_from_client", ordering.String(), time.Since(start), result)
		return UpdateResult{}, result
	}

	c.updatesMu.RLock()
	defer c.updatesMu.RUnlock()

	selector := AllShards()
	if shardKey != nil {
		selector = ByShardKey(*shardKey)
	}

	targets, err := c.shardHolder().SplitByShard(op, selector)
	if err != nil {
		c.metrics.ObserveDispatch("update_from_client", ordering.String(), time.Since(start), err)
		return UpdateResult{}, err
	}
	if len(targets) == 0 {
		result := badRequest("empty update")
		c.metrics.ObserveDispatch("update_from_client", ordering.String(), time.Since(start), result)
		return UpdateResult{}, result
	}

	type outcome struct {
		result UpdateResult
		err    error
	}
	outcomes := make([]outcome, len(targets))

	var wg sync.WaitGroup
	wg.Add(len(targets))
	for i, target := range targets {
		i, target := i, target
		go func() {
			defer wg.Done()
			res, err := target.Replica.UpdateWithConsistency(ctx, target.Operation, wait, ordering)
			outcomes[i] = outcome{result: res, err: err}
		}()
	}
	wg.Wait()

	total := len(outcomes)
	failed := 0
	firstErrIdx := -1
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			if firstErrIdx == -1 {
				firstErrIdx = i
			}
		}
	}
	c.metrics.ObserveFanout("update_from_client", total, failed)

	var result UpdateResult
	switch {
	case failed == 0:
		result = outcomes[total-1].result
		err = nil
	case failed < total:
		firstErr := outcomes[firstErrIdx].err
		c.log.Warn("partial shard failure on client update",
			zap.Int("shards_total", total), zap.Int("shards_failed", failed), zap.Error(firstErr))
		err = &InconsistentShardFailureError{ShardsTotal: total, ShardsFailed: failed, FirstErr: firstErr}
	default:
		err = outcomes[firstErrIdx].err
	}

	c.metrics.ObserveDispatch("update_from_client", ordering.String(), time.Since(start), err)
	if err != nil {
		return UpdateResult{}, err
	}
	return result, nil
}
