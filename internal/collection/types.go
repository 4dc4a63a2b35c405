package collection

import "fmt"

// ShardID identifies one shard within a collection. It is opaque to
// clients of this package beyond equality and use as a map key.
type ShardID uint32

// ShardKey is an optional user-supplied partition label: either a string
// or an integer, never both. The zero value is the "no key" value and
// should not be used as a real key; compare against ShardKey{} to tell
// whether a value carries one.
type ShardKey struct {
	str   string
	num   int64
	isNum bool
}

// StringShardKey builds a string-valued shard key.
func StringShardKey(s string) ShardKey { return ShardKey{str: s} }

// IntShardKey builds an integer-valued shard key.
func IntShardKey(n int64) ShardKey { return ShardKey{num: n, isNum: true} }

// String renders the key for logs and error messages.
func (k ShardKey) String() string {
	if k.isNum {
		return fmt.Sprintf("%d", k.num)
	}
	return k.str
}

// PointID identifies one record within a shard. Ascending PointID order is
// the tie-breaker used by unordered scroll pagination.
type PointID uint64

// WriteOrdering selects the replication consistency level a write goes
// through. The levels are ordered weakest to strongest; Weak bypasses
// replica-set consensus entirely and applies only on the local replica.
type WriteOrdering int

const (
	OrderingWeak WriteOrdering = iota
	OrderingMedium
	OrderingStrong
)

func (o WriteOrdering) String() string {
	switch o {
	case OrderingWeak:
		return "weak"
	case OrderingMedium:
		return "medium"
	case OrderingStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// selectorKind discriminates the ShardSelector variant.
type selectorKind int

const (
	selectAll selectorKind = iota
	selectShardID
	selectShardKey
	selectShardKeys
)

// ShardSelector names the shards a read or write should address: every
// shard, one shard by ID, one shard key, or a set of shard keys.
type ShardSelector struct {
	kind      selectorKind
	shardID   ShardID
	shardKey  ShardKey
	shardKeys []ShardKey
}

// AllShards selects every shard in the collection.
func AllShards() ShardSelector { return ShardSelector{kind: selectAll} }

// ByShardID selects exactly the named shard.
func ByShardID(id ShardID) ShardSelector {
	return ShardSelector{kind: selectShardID, shardID: id}
}

// ByShardKey selects every shard assigned to the given shard key.
func ByShardKey(key ShardKey) ShardSelector {
	return ShardSelector{kind: selectShardKey, shardKey: key}
}

// ByShardKeys selects every shard assigned to any of the given shard keys.
func ByShardKeys(keys ...ShardKey) ShardSelector {
	return ShardSelector{kind: selectShardKeys, shardKeys: keys}
}

// IsShardID reports whether this selector names one specific shard ID,
// which replica sets use to suppress further internal routing.
func (s ShardSelector) IsShardID() bool { return s.kind == selectShardID }

// ShardIDValue returns the selected shard ID; only meaningful when
// IsShardID reports true.
func (s ShardSelector) ShardIDValue() ShardID { return s.shardID }

// ShardKeyValue returns the selected shard key; only meaningful when the
// selector was built with ByShardKey.
func (s ShardSelector) ShardKeyValue() ShardKey { return s.shardKey }

// ShardKeysValue returns the selected shard keys; only meaningful when the
// selector was built with ByShardKeys.
func (s ShardSelector) ShardKeysValue() []ShardKey { return s.shardKeys }

// UpdateStatus reports how far a write has progressed when UpdateResult
// was produced.
type UpdateStatus int

const (
	StatusAcknowledged UpdateStatus = iota
	StatusCompleted
)

func (s UpdateStatus) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "acknowledged"
}

// ClockTag stamps an UpdateResult with the logical clock ID and tick the
// applying replica used, so peers can compare divergent histories.
type ClockTag struct {
	ClockID uint32
	Tick    uint64
}

// UpdateResult is the outcome of one write, whether it touched one shard
// or was reconciled from several.
type UpdateResult struct {
	OperationID uint64
	Status      UpdateStatus
	ClockTag    *ClockTag
}

// UpdateOperation is an opaque, validatable write payload (upsert, delete,
// payload-set, ...). Implementations must be safe to Clone and to route
// through ShardHolder.SplitByShard.
type UpdateOperation interface {
	// Validate rejects structurally invalid operations before any shard is
	// touched.
	Validate() error
	// Clone returns a deep-enough copy that concurrent per-shard
	// application of the clones cannot observe each other's mutations.
	Clone() UpdateOperation
}

// Record is one retrieved point. ShardKey is populated by the read
// aggregator from the ShardHolder's selector resolution, not by the shard
// itself.
type Record struct {
	ID       PointID
	Payload  map[string]any
	Vector   []float32
	ShardKey *ShardKey
}

// Direction orders an OrderBy pagination.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderBy requests payload-value-ordered pagination instead of the default
// ID order. Key must have a range-capable index in the payload schema.
type OrderBy struct {
	Key       string
	Direction Direction
	StartFrom any
}

// ScrollRequest describes one page of a scroll/iterate call.
type ScrollRequest struct {
	Offset      *PointID
	Limit       *uint64
	WithPayload bool
	WithVector  bool
	Filter      any
	OrderBy     *OrderBy
}

// ScrollResult is one page of scroll results plus the offset to request
// next, if any.
type ScrollResult struct {
	Points         []Record
	NextPageOffset *PointID
}

// PointRequest asks for specific points by ID.
type PointRequest struct {
	IDs         []PointID
	WithPayload bool
	WithVector  bool
}

// CountRequest asks for the number of points matching Filter.
type CountRequest struct {
	Filter any
	Exact  bool
}

// CountResult is the merged point count across the selected shards.
type CountResult struct {
	Count uint64
}

// ReadConsistency tunes how many replicas a read must agree with before
// the replica set answers; its exact semantics belong to the replica-set
// implementation, the core only threads it through unchanged.
type ReadConsistency struct {
	Factor int
}
