package memshard

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/dreamware/vectorshard/internal/collection"
)

// Holder is a fixed-size collection.ShardHolder: every shard key or point
// ID is routed to one of numShards replica sets by FNV-1a hash, the same
// consistent-hash approach the teacher used to assign keys to shards.
// Unlike a real deployment, shard assignment here never changes shape
// (no rebalancing), which is exactly the scope this package exists for.
type Holder struct {
	shards []*ReplicaSet
}

// NewHolder creates a holder with numShards empty, locally-backed replica
// sets numbered 0..numShards-1.
func NewHolder(numShards int) *Holder {
	if numShards <= 0 {
		numShards = 1
	}
	h := &Holder{shards: make([]*ReplicaSet, numShards)}
	for i := range h.shards {
		h.shards[i] = NewReplicaSet()
	}
	return h
}

func (h *Holder) shardFor(key string) collection.ShardID {
	hasher := fnv.New32a()
	hasher.Write([]byte(key))
	return collection.ShardID(hasher.Sum32() % uint32(len(h.shards)))
}

func (h *Holder) shardKeyRoute(key collection.ShardKey) collection.ShardID {
	return h.shardFor(key.String())
}

func (h *Holder) pointRoute(id collection.PointID) collection.ShardID {
	return h.shardFor(fmt.Sprintf("%d", id))
}

// AllShards returns every replica set this holder manages.
func (h *Holder) AllShards() []collection.ReplicaSet {
	out := make([]collection.ReplicaSet, len(h.shards))
	for i, s := range h.shards {
		out[i] = s
	}
	return out
}

// GetShard returns the replica set for id.
func (h *Holder) GetShard(id collection.ShardID) (collection.ReplicaSet, bool) {
	if int(id) < 0 || int(id) >= len(h.shards) {
		return nil, false
	}
	return h.shards[id], true
}

// SelectShards resolves selector into concrete replica-set targets.
func (h *Holder) SelectShards(selector collection.ShardSelector) ([]collection.ShardTarget, error) {
	switch {
	case selector.IsShardID():
		id := selector.ShardIDValue()
		r, ok := h.GetShard(id)
		if !ok {
			return nil, fmt.Errorf("memshard: unknown shard id %d", id)
		}
		return []collection.ShardTarget{{Replica: r}}, nil

	case len(selector.ShardKeysValue()) > 0:
		seen := map[collection.ShardID]bool{}
		var out []collection.ShardTarget
		for _, key := range selector.ShardKeysValue() {
			id := h.shardKeyRoute(key)
			if seen[id] {
				continue
			}
			seen[id] = true
			key := key
			out = append(out, collection.ShardTarget{Replica: h.shards[id], ShardKey: &key})
		}
		return out, nil

	case hasShardKeyValue(selector):
		key := selector.ShardKeyValue()
		id := h.shardKeyRoute(key)
		return []collection.ShardTarget{{Replica: h.shards[id], ShardKey: &key}}, nil

	default:
		out := make([]collection.ShardTarget, len(h.shards))
		for i, s := range h.shards {
			out[i] = collection.ShardTarget{Replica: s}
		}
		return out, nil
	}
}

// hasShardKeyValue reports whether selector carries a ByShardKey value.
// ShardSelector's zero key is documented as "not a real key", so a
// selector whose ShardKeyValue differs from the zero value must have
// been built with ByShardKey.
func hasShardKeyValue(selector collection.ShardSelector) bool {
	return selector.ShardKeyValue() != (collection.ShardKey{})
}

// SplitByShard partitions op across the shards selector resolves.
// UpsertOp splits its records individually (each may carry its own shard
// key); DeleteOp and SetPayloadOp split their point IDs by hash, since a
// delete-or-set-payload-by-ID alone carries no shard key to route by.
func (h *Holder) SplitByShard(op collection.UpdateOperation, selector collection.ShardSelector) ([]collection.ShardOpTarget, error) {
	if selector.IsShardID() || len(selector.ShardKeysValue()) > 0 || hasShardKeyValue(selector) {
		targets, err := h.SelectShards(selector)
		if err != nil {
			return nil, err
		}
		out := make([]collection.ShardOpTarget, 0, len(targets))
		for _, t := range targets {
			out = append(out, collection.ShardOpTarget{Replica: t.Replica, Operation: op.Clone()})
		}
		return out, nil
	}

	switch o := op.(type) {
	case *UpsertOp:
		grouped := make(map[collection.ShardID][]collection.Record)
		for _, r := range o.Records {
			var id collection.ShardID
			if r.ShardKey != nil {
				id = h.shardKeyRoute(*r.ShardKey)
			} else {
				id = h.pointRoute(r.ID)
			}
			grouped[id] = append(grouped[id], r)
		}
		return h.buildTargets(grouped, func(records []collection.Record) collection.UpdateOperation {
			return &UpsertOp{Records: records}
		}), nil

	case *DeleteOp:
		grouped := make(map[collection.ShardID][]collection.PointID)
		for _, id := range o.IDs {
			shard := h.pointRoute(id)
			grouped[shard] = append(grouped[shard], id)
		}
		return h.buildIDTargets(grouped, func(ids []collection.PointID) collection.UpdateOperation {
			return &DeleteOp{IDs: ids}
		}), nil

	case *SetPayloadOp:
		grouped := make(map[collection.ShardID][]collection.PointID)
		for _, id := range o.IDs {
			shard := h.pointRoute(id)
			grouped[shard] = append(grouped[shard], id)
		}
		return h.buildIDTargets(grouped, func(ids []collection.PointID) collection.UpdateOperation {
			return &SetPayloadOp{IDs: ids, Payload: o.Payload}
		}), nil

	default:
		return nil, fmt.Errorf("memshard: unsupported operation type %T", op)
	}
}

func (h *Holder) buildTargets(grouped map[collection.ShardID][]collection.Record, build func([]collection.Record) collection.UpdateOperation) []collection.ShardOpTarget {
	ids := sortedShardIDs(grouped)
	out := make([]collection.ShardOpTarget, 0, len(ids))
	for _, id := range ids {
		out = append(out, collection.ShardOpTarget{Replica: h.shards[id], Operation: build(grouped[id])})
	}
	return out
}

func (h *Holder) buildIDTargets(grouped map[collection.ShardID][]collection.PointID, build func([]collection.PointID) collection.UpdateOperation) []collection.ShardOpTarget {
	ids := make([]collection.ShardID, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]collection.ShardOpTarget, 0, len(ids))
	for _, id := range ids {
		out = append(out, collection.ShardOpTarget{Replica: h.shards[id], Operation: build(grouped[id])})
	}
	return out
}

func sortedShardIDs(grouped map[collection.ShardID][]collection.Record) []collection.ShardID {
	ids := make([]collection.ShardID, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var _ collection.ShardHolder = (*Holder)(nil)
