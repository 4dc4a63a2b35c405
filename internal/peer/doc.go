// Package peer provides the wire-level plumbing used to reach other nodes
// holding replicas of a shard: peer metadata, JSON request helpers, and a
// request-ID header propagated on every outgoing call so a write or read
// that fans out across replicas can be traced end to end in logs.
//
// This package does not implement replica-set consensus or membership
// management; it is the thin HTTP layer the demo binaries use for
// registration and broadcast. internal/memshard's ReplicaSet does not use
// it. Cluster membership, shard assignment, and health monitoring live in
// the coordinator binary, internal/coordinator and internal/health.
package peer
