// Package coordinator tracks which physical node owns which shard.
//
// This is distinct from internal/memshard, which routes an operation to a
// ReplicaSet inside a single process. NodeShardRegistry answers a cluster-level
// question instead: given a shard ID (or a key that hashes to one), which node
// in the fleet is currently responsible for it. The coordinator binary uses it
// to keep a placement table in sync with peer registration and to support
// rebalancing when nodes join or leave.
package coordinator
