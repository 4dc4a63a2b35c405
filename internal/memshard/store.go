package memshard

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dreamware/vectorshard/internal/collection"
)

// FilterFunc is the concrete predicate type this in-memory store accepts
// as a collection.ScrollRequest/CountRequest Filter. A nil filter, or any
// value that isn't a FilterFunc, matches everything — filter-language
// parsing belongs to the (out of scope) payload index schema store, not
// to this reference shard.
type FilterFunc func(payload map[string]any) bool

func matches(filter any, payload map[string]any) bool {
	f, ok := filter.(FilterFunc)
	if !ok {
		return true
	}
	return f(payload)
}

// Stats summarizes a store's contents for admin/metrics consumption.
type Stats struct {
	Records int
}

// Store is one shard's point data: a goroutine-safe map keyed by point
// ID. It tracks operation counters atomically, the way the teacher's
// Shard tracked get/put/delete counts.
type Store struct {
	mu      sync.RWMutex
	records map[collection.PointID]collection.Record

	upserts uint64
	deletes uint64
}

// NewStore creates an empty record store.
func NewStore() *Store {
	return &Store{records: make(map[collection.PointID]collection.Record)}
}

// Upsert inserts or overwrites records.
func (s *Store) Upsert(records []collection.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
	}
	atomic.AddUint64(&s.upserts, uint64(len(records)))
}

// Delete removes points by ID; deleting an absent point is not an error.
func (s *Store) Delete(ids []collection.PointID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.records, id)
	}
	atomic.AddUint64(&s.deletes, uint64(len(ids)))
}

// SetPayload merges payload into every named point present locally.
func (s *Store) SetPayload(ids []collection.PointID, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		r, ok := s.records[id]
		if !ok {
			continue
		}
		if r.Payload == nil {
			r.Payload = make(map[string]any, len(payload))
		}
		for k, v := range payload {
			r.Payload[k] = v
		}
		s.records[id] = r
	}
}

// Scroll returns up to limit records at or after offset (by ascending
// point ID), optionally ordered by orderBy instead. Records come back as
// deep-ish copies; withPayload/withVector strip fields the caller didn't
// ask for, except that an orderBy key is always included in the payload
// so the aggregator's k-way merge has something to compare.
func (s *Store) Scroll(offset *collection.PointID, limit uint64, withPayload, withVector bool, filter any, orderBy *collection.OrderBy) []collection.Record {
	s.mu.RLock()
	all := make([]collection.Record, 0, len(s.records))
	for _, r := range s.records {
		if !matches(filter, r.Payload) {
			continue
		}
		all = append(all, cloneRecord(r))
	}
	s.mu.RUnlock()

	if orderBy != nil {
		sort.Slice(all, func(i, j int) bool {
			a := orderValue(all[i].Payload, orderBy.Key)
			b := orderValue(all[j].Payload, orderBy.Key)
			if orderBy.Direction == collection.Desc {
				return less(b, a)
			}
			return less(a, b)
		})
	} else {
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		if offset != nil {
			start := 0
			for start < len(all) && all[start].ID < *offset {
				start++
			}
			all = all[start:]
		}
	}

	if uint64(len(all)) > limit {
		all = all[:limit]
	}

	for i := range all {
		strip(&all[i], withPayload, withVector, orderBy)
	}
	return all
}

// Retrieve returns every named point present locally, in no particular
// order.
func (s *Store) Retrieve(ids []collection.PointID, withPayload, withVector bool) []collection.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]collection.Record, 0, len(ids))
	for _, id := range ids {
		r, ok := s.records[id]
		if !ok {
			continue
		}
		clone := cloneRecord(r)
		strip(&clone, withPayload, withVector, nil)
		out = append(out, clone)
	}
	return out
}

// Count returns the number of local points matching filter.
func (s *Store) Count(filter any) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n uint64
	for _, r := range s.records {
		if matches(filter, r.Payload) {
			n++
		}
	}
	return n
}

// Stats reports the current record count.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Records: len(s.records)}
}

func strip(r *collection.Record, withPayload, withVector bool, orderBy *collection.OrderBy) {
	if !withVector {
		r.Vector = nil
	}
	if !withPayload {
		if orderBy == nil {
			r.Payload = nil
			return
		}
		// Keep only the order key; the aggregator extracts it during
		// the merge and strips whatever's left.
		if v, ok := r.Payload[orderBy.Key]; ok {
			r.Payload = map[string]any{orderBy.Key: v}
		} else {
			r.Payload = nil
		}
	}
}

func orderValue(payload map[string]any, key string) any {
	if payload == nil {
		return nil
	}
	return payload[key]
}

// less agrees with the ordering collection's aggregator uses to merge
// shards for nil (sorts first) and for pairs of float64, int64 or string
// values. Two non-nil values of different types are unordered here, while
// the aggregator compares their string forms.
func less(a, b any) bool {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	}
	if a == nil {
		return b != nil
	}
	return false
}
