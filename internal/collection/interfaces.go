package collection

import "context"

// ShardTarget pairs a resolved replica set with the shard key the holder
// associates it with, if any — used to stamp records the replica set
// returns.
type ShardTarget struct {
	Replica  ReplicaSet
	ShardKey *ShardKey
}

// ShardOpTarget pairs a replica set with the sub-operation it should apply,
// produced by splitting an update across shards.
type ShardOpTarget struct {
	Replica   ReplicaSet
	Operation UpdateOperation
}

// ShardHolder is consumed, not implemented, by this package: a read-only
// registry mapping shard IDs and shard keys to replica-set handles.
// internal/memshard provides a concrete implementation for tests and the
// demo binaries; a production deployment's collection lifecycle /
// rebalancing layer provides its own.
type ShardHolder interface {
	// AllShards iterates every locally-held replica set.
	AllShards() []ReplicaSet

	// GetShard looks up a replica set by shard ID. The second return value
	// is false when the shard does not exist locally.
	GetShard(id ShardID) (ReplicaSet, bool)

	// SelectShards resolves a selector into the concrete replica sets to
	// query, annotated with the shard key to stamp onto their records.
	// Fails if the selector names an unknown shard key.
	SelectShards(selector ShardSelector) ([]ShardTarget, error)

	// SplitByShard partitions an update by shard key, returning one
	// (replica set, sub-operation) pair per affected shard. Fails on an
	// invalid operation.
	SplitByShard(op UpdateOperation, selector ShardSelector) ([]ShardOpTarget, error)
}

// ReplicaSet is consumed, not implemented, by this package: it applies an
// update locally or with a chosen consistency level, and serves reads.
type ReplicaSet interface {
	// UpdateLocal applies op on the local replica only. It returns a nil
	// result (not an error) when this node holds no local copy of the
	// shard.
	UpdateLocal(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error)

	// UpdateWithConsistency applies op through the replication layer,
	// honoring ordering.
	UpdateWithConsistency(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error)

	// ScrollBy returns up to limit records at or after offset, matching
	// filter, optionally ordered by orderBy. isShardID suppresses further
	// internal routing when the caller already named this exact shard.
	ScrollBy(ctx context.Context, offset *PointID, limit uint64, withPayload, withVector bool, filter any, consistency *ReadConsistency, isShardID bool, orderBy *OrderBy) ([]Record, error)

	// Retrieve returns the records named by request that exist on this
	// shard.
	Retrieve(ctx context.Context, request PointRequest, withPayload, withVector bool, consistency *ReadConsistency, isShardID bool) ([]Record, error)

	// Count returns the number of local records matching request.
	Count(ctx context.Context, request CountRequest, consistency *ReadConsistency, isShardID bool) (CountResult, error)
}

// PayloadSchema is the read-only payload index schema store this package
// consults to validate OrderBy.Key before running an ordered scroll.
type PayloadSchema interface {
	// HasRangeIndex reports whether key has a range-capable index.
	HasRangeIndex(key string) bool
}
