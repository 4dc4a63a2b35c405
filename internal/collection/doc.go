// Package collection implements the shard-level request coordination core
// of a distributed vector search collection: the update dispatcher, the
// scroll/retrieve/count read aggregator, and the data model and
// out-of-package interfaces (ShardHolder, ReplicaSet) they're built on.
//
// A Collection owns none of the storage, replication or consensus itself —
// those live behind ShardHolder and ReplicaSet, implemented elsewhere
// (internal/memshard backs them for tests and the demo binaries). What
// Collection owns is the routing and reconciliation logic: splitting a
// write by shard, fanning it out with a chosen write-ordering, merging
// mixed success/failure into one answer; and, for reads, fanning a scroll,
// retrieve or count out across the selected shards and merging partial
// results, including a k-way merge for order-by pagination.
//
// Concurrency model: every exported method suspends only at the points
// listed in the package's design notes — acquiring the shared updates
// lock, acquiring the shared shard-holder lock, each call into a replica
// set, and the final fan-out join. Nothing else blocks; merging is pure
// in-memory work.
package collection
