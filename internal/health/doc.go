// Package health performs periodic liveness checks on the peers holding
// replicas of a collection's shards, tracking per-peer consecutive
// failures and invoking a callback when a peer crosses the unhealthy
// threshold. The coordinator binary runs it against its registered peers;
// nothing in internal/collection or internal/memshard reads its results.
package health
