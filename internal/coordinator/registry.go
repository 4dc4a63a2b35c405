package coordinator

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/dreamware/vectorshard/internal/collection"
)

// NodeAssignment records which node currently owns a shard, and whether that
// ownership is primary (serves writes and strong reads) or replica (serves
// weak reads only). Assignments are immutable once handed out; callers get a
// copy, never a pointer into the registry's internal state.
type NodeAssignment struct {
	NodeID    string
	ShardID   collection.ShardID
	IsPrimary bool
}

// NodeShardRegistry is the coordinator's placement table: shard ID to owning
// node. It does not perform any I/O or routing itself — cmd/coordinator reads
// it to answer "where does shard N live" and rebalances it on every peer
// registration.
type NodeShardRegistry struct {
	mu          sync.RWMutex
	assignments map[collection.ShardID]NodeAssignment
	numShards   int
}

// NewNodeShardRegistry builds a registry for a fixed shard count. numShards
// must match the shard count every node in the cluster was started with.
func NewNodeShardRegistry(numShards int) *NodeShardRegistry {
	return &NodeShardRegistry{
		assignments: make(map[collection.ShardID]NodeAssignment, numShards),
		numShards:   numShards,
	}
}

// Assign records that nodeID owns shardID, overwriting any prior assignment.
func (r *NodeShardRegistry) Assign(shardID collection.ShardID, nodeID string, isPrimary bool) error {
	if int(shardID) >= r.numShards {
		return fmt.Errorf("coordinator: shard %d out of range [0,%d)", shardID, r.numShards)
	}
	if nodeID == "" {
		return errors.New("coordinator: node ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[shardID] = NodeAssignment{ShardID: shardID, NodeID: nodeID, IsPrimary: isPrimary}
	return nil
}

// Unassign removes a shard's placement, e.g. when its owning node is
// deregistered. It is not an error to unassign an already-unassigned shard.
func (r *NodeShardRegistry) Unassign(shardID collection.ShardID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assignments, shardID)
}

// Get returns the current assignment for a shard, and false if unassigned.
func (r *NodeShardRegistry) Get(shardID collection.ShardID) (NodeAssignment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assignments[shardID]
	return a, ok
}

// All returns every current assignment, in no particular order.
func (r *NodeShardRegistry) All() []NodeAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NodeAssignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		out = append(out, a)
	}
	return out
}

// NumShards returns the fixed shard count this registry was created with.
func (r *NodeShardRegistry) NumShards() int { return r.numShards }

// ShardForKey hashes key to a shard ID using the same FNV-1a scheme
// internal/memshard uses for its own routing, so a key always lands on the
// same shard regardless of which layer is asked.
func (r *NodeShardRegistry) ShardForKey(key string) collection.ShardID {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return collection.ShardID(int(h.Sum32()) % r.numShards)
}

// NodeForKey resolves a key straight to its owning node.
func (r *NodeShardRegistry) NodeForKey(key string) (string, error) {
	shardID := r.ShardForKey(key)
	a, ok := r.Get(shardID)
	if !ok {
		return "", fmt.Errorf("coordinator: shard %d is not assigned to any node", shardID)
	}
	return a.NodeID, nil
}

// NodeShards returns the shard IDs currently assigned to nodeID.
func (r *NodeShardRegistry) NodeShards(nodeID string) []collection.ShardID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var shards []collection.ShardID
	for shardID, a := range r.assignments {
		if a.NodeID == nodeID {
			shards = append(shards, shardID)
		}
	}
	return shards
}

// Rebalance spreads every shard across nodes round-robin and marks every
// resulting assignment primary. It overwrites the whole table, so callers
// run it on membership change rather than incrementally patching it — there
// is no replica placement or data-aware balancing here, just even spread.
func (r *NodeShardRegistry) Rebalance(nodes []string) error {
	if len(nodes) == 0 {
		return errors.New("coordinator: cannot rebalance with no nodes")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for shardID := 0; shardID < r.numShards; shardID++ {
		nodeID := nodes[shardID%len(nodes)]
		r.assignments[collection.ShardID(shardID)] = NodeAssignment{
			ShardID:   collection.ShardID(shardID),
			NodeID:    nodeID,
			IsPrimary: true,
		}
	}
	return nil
}
