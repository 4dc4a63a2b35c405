// Package memshard is an in-memory reference implementation of
// collection.ShardHolder and collection.ReplicaSet, adapted from the
// storage engine this project's teacher used for its key-value shards.
// Where that engine stored opaque byte values under string keys, this
// one stores collection.Record values under collection.PointID keys and
// tracks a per-shard clock.VectorClock (internal/clock) so every applied
// write carries a comparable logical timestamp.
//
// It exists for tests and the demo binaries. A production deployment
// would replace it with a holder backed by the real segment engine and
// a ReplicaSet that actually talks to other nodes over internal/peer
// instead of applying everything in one process.
package memshard
