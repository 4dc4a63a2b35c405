package memshard

import (
	"fmt"

	"github.com/dreamware/vectorshard/internal/collection"
)

// UpsertOp inserts or overwrites a batch of records. Each record may
// carry its own shard key; a holder splits the batch across shards by
// grouping records that hash to the same shard.
type UpsertOp struct {
	Records []collection.Record
}

func (o *UpsertOp) Validate() error {
	if len(o.Records) == 0 {
		return fmt.Errorf("upsert: no records")
	}
	for _, r := range o.Records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("upsert: point %d has an empty vector", r.ID)
		}
	}
	return nil
}

func (o *UpsertOp) Clone() collection.UpdateOperation {
	records := make([]collection.Record, len(o.Records))
	for i, r := range o.Records {
		records[i] = cloneRecord(r)
	}
	return &UpsertOp{Records: records}
}

func cloneRecord(r collection.Record) collection.Record {
	clone := r
	if r.Payload != nil {
		clone.Payload = make(map[string]any, len(r.Payload))
		for k, v := range r.Payload {
			clone.Payload[k] = v
		}
	}
	if r.Vector != nil {
		clone.Vector = append([]float32(nil), r.Vector...)
	}
	return clone
}

// DeleteOp removes a batch of points by ID.
type DeleteOp struct {
	IDs []collection.PointID
}

func (o *DeleteOp) Validate() error {
	if len(o.IDs) == 0 {
		return fmt.Errorf("delete: no point ids")
	}
	return nil
}

func (o *DeleteOp) Clone() collection.UpdateOperation {
	ids := append([]collection.PointID(nil), o.IDs...)
	return &DeleteOp{IDs: ids}
}

// SetPayloadOp merges Payload into the existing payload of every named
// point; a point missing from the local shard is silently skipped,
// mirroring upsert-only-if-present semantics for payload edits.
type SetPayloadOp struct {
	IDs     []collection.PointID
	Payload map[string]any
}

func (o *SetPayloadOp) Validate() error {
	if len(o.IDs) == 0 {
		return fmt.Errorf("set payload: no point ids")
	}
	if len(o.Payload) == 0 {
		return fmt.Errorf("set payload: empty payload")
	}
	return nil
}

func (o *SetPayloadOp) Clone() collection.UpdateOperation {
	ids := append([]collection.PointID(nil), o.IDs...)
	payload := make(map[string]any, len(o.Payload))
	for k, v := range o.Payload {
		payload[k] = v
	}
	return &SetPayloadOp{IDs: ids, Payload: payload}
}
