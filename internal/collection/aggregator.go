package collection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// ScrollBy fans a paginated scroll out to the shards selector resolves and
// merges the partial results. With no OrderBy, pages are ID-ordered and
// support next_page_offset pagination; with OrderBy, each shard is assumed
// to already return its slice sorted by the order key in the requested
// direction, and the shards are merged with a k-way merge instead.
func (c *Collection) ScrollBy(ctx context.Context, request ScrollRequest, consistency *ReadConsistency, selector ShardSelector) (ScrollResult, error) {
	start := time.Now()
	result, err := c.scrollBy(ctx, request, consistency, selector)
	c.metrics.ObserveAggregate("scroll_by", time.Since(start), err)
	return result, err
}

func (c *Collection) scrollBy(ctx context.Context, request ScrollRequest, consistency *ReadConsistency, selector ShardSelector) (ScrollResult, error) {
	limit := c.defaultLimit
	if request.Limit != nil {
		limit = *request.Limit
	}
	withPayload := c.defaultWithPayload
	if request.WithPayload {
		withPayload = true
	}

	orderBy := request.OrderBy

	if orderBy != nil {
		if !c.schema.HasRangeIndex(orderBy.Key) {
			return ScrollResult{}, badRequest("no range index for order_by key %q", orderBy.Key)
		}
		if request.Offset != nil {
			return ScrollResult{}, badRequest("cannot use offset with order_by")
		}
	}
	if limit == 0 {
		return ScrollResult{}, badRequest("Limit cannot be 0")
	}

	// Inflate the limit by one (unordered mode only) so the extra point
	// tells us whether this is the last page; preserve this exact
	// inflate-then-compare sequence, it's load-bearing for next-page
	// detection.
	fetchLimit := limit
	if orderBy == nil {
		fetchLimit = limit + 1
	}

	targets, err := c.shardHolder().SelectShards(selector)
	if err != nil {
		return ScrollResult{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	perShard := make([][]Record, len(targets))
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			records, err := target.Replica.ScrollBy(gctx, request.Offset, fetchLimit, withPayload, request.WithVector, request.Filter, consistency, selector.IsShardID(), orderBy)
			if err != nil {
				return err
			}
			stampShardKey(records, target.ShardKey)
			perShard[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScrollResult{}, err
	}
	c.metrics.ObserveFanout("scroll_by", len(targets), 0)

	var points []Record
	if orderBy == nil {
		points = mergeUnordered(perShard, int(fetchLimit))
	} else {
		points = mergeOrdered(perShard, orderBy, int(limit))
		if !withPayload {
			// The order value was only ever fetched to drive the merge;
			// extractOrderValue already popped it back out, so clearing
			// what's left honors a with_payload=false request.
			for i := range points {
				points[i].Payload = nil
			}
		}
	}

	var nextPageOffset *PointID
	if orderBy == nil {
		if uint64(len(points)) < fetchLimit {
			nextPageOffset = nil
		} else {
			last := points[len(points)-1]
			points = points[:len(points)-1]
			id := last.ID
			nextPageOffset = &id
		}
	}

	return ScrollResult{Points: points, NextPageOffset: nextPageOffset}, nil
}

// mergeUnordered flattens every shard's records, sorts them by point ID
// ascending (IDs are unique, so an unstable sort is fine), and takes the
// first limit.
func mergeUnordered(perShard [][]Record, limit int) []Record {
	total := 0
	for _, s := range perShard {
		total += len(s)
	}
	flat := make([]Record, 0, total)
	for _, s := range perShard {
		flat = append(flat, s...)
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].ID < flat[j].ID })
	if len(flat) > limit {
		flat = flat[:limit]
	}
	return flat
}

// mergeOrdered performs a k-way merge across shards already sorted by the
// order-by key, extracting (and removing from the payload) the order
// value as the merge key, per original_source's
// remove_order_value_from_payload step.
func mergeOrdered(perShard [][]Record, orderBy *OrderBy, limit int) []Record {
	type cursor struct {
		records []Record
		values  []any
		pos     int
	}
	cursors := make([]*cursor, 0, len(perShard))
	for _, shardRecords := range perShard {
		if len(shardRecords) == 0 {
			continue
		}
		values := make([]any, len(shardRecords))
		for i := range shardRecords {
			values[i] = extractOrderValue(&shardRecords[i], orderBy.Key)
		}
		cursors = append(cursors, &cursor{records: shardRecords, values: values})
	}

	less := func(a, b any) bool {
		if orderBy.Direction == Asc {
			return compareOrderValues(a, b) <= 0
		}
		return compareOrderValues(a, b) >= 0
	}

	out := make([]Record, 0, limit)
	for len(out) < limit {
		best := -1
		for i, cur := range cursors {
			if cur.pos >= len(cur.records) {
				continue
			}
			if best == -1 || less(cur.values[cur.pos], cursors[best].values[cursors[best].pos]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		cur := cursors[best]
		out = append(out, cur.records[cur.pos])
		cur.pos++
	}
	return out
}

// extractOrderValue pulls the order-by value out of a record's payload and
// removes it, matching the shard-side contract that copies the order
// value into the payload specifically so the aggregator can pop it back
// out as the merge key.
func extractOrderValue(record *Record, key string) any {
	if record.Payload == nil {
		return nil
	}
	value, ok := record.Payload[key]
	if !ok {
		return nil
	}
	delete(record.Payload, key)
	return value
}

// compareOrderValues compares two order-by scalars. nil sorts before any
// concrete value. Matching types compare directly; mismatched types fall
// back to a stable string comparison so the merge never panics on
// heterogeneous payload schemas.
func compareOrderValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return compareFloats(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return compareInts(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return compareStrings(av, bv)
		}
	}
	return compareStrings(toComparableString(a), toComparableString(b))
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toComparableString(v any) string {
	return fmt.Sprintf("%v", v)
}

// Retrieve fans out to every selected shard and concatenates the results;
// it promises no ordering or deduplication, unlike ScrollBy.
func (c *Collection) Retrieve(ctx context.Context, request PointRequest, consistency *ReadConsistency, selector ShardSelector) ([]Record, error) {
	start := time.Now()
	records, err := c.retrieve(ctx, request, consistency, selector)
	c.metrics.ObserveAggregate("retrieve", time.Since(start), err)
	return records, err
}

func (c *Collection) retrieve(ctx context.Context, request PointRequest, consistency *ReadConsistency, selector ShardSelector) ([]Record, error) {
	targets, err := c.shardHolder().SelectShards(selector)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	perShard := make([][]Record, len(targets))
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			records, err := target.Replica.Retrieve(gctx, request, request.WithPayload, request.WithVector, consistency, selector.IsShardID())
			if err != nil {
				return err
			}
			stampShardKey(records, target.ShardKey)
			perShard[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.metrics.ObserveFanout("retrieve", len(targets), 0)

	total := 0
	for _, s := range perShard {
		total += len(s)
	}
	out := make([]Record, 0, total)
	for _, s := range perShard {
		out = append(out, s...)
	}
	return out, nil
}

// Count fans out to every selected shard and sums the per-shard counts as
// they arrive. Shards are disjoint by construction, so no deduplication is
// needed or possible.
func (c *Collection) Count(ctx context.Context, request CountRequest, consistency *ReadConsistency, selector ShardSelector) (CountResult, error) {
	start := time.Now()
	result, err := c.count(ctx, request, consistency, selector)
	c.metrics.ObserveAggregate("count", time.Since(start), err)
	return result, err
}

func (c *Collection) count(ctx context.Context, request CountRequest, consistency *ReadConsistency, selector ShardSelector) (CountResult, error) {
	targets, err := c.shardHolder().SelectShards(selector)
	if err != nil {
		return CountResult{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		count CountResult
		err   error
	}
	results := make(chan outcome, len(targets))
	for _, target := range targets {
		target := target
		go func() {
			cr, err := target.Replica.Count(ctx, request, consistency, selector.IsShardID())
			results <- outcome{count: cr, err: err}
		}()
	}

	var total uint64
	var firstErr error
	for range targets {
		o := <-results
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
				cancel() // cooperative cancellation of remaining in-flight counts
			}
			continue
		}
		if firstErr == nil {
			total += o.count.Count
		}
	}
	if firstErr != nil {
		return CountResult{}, firstErr
	}
	c.metrics.ObserveFanout("count", len(targets), 0)
	return CountResult{Count: total}, nil
}

func stampShardKey(records []Record, key *ShardKey) {
	if key == nil {
		return
	}
	for i := range records {
		records[i].ShardKey = key
	}
}
