package memshard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/vectorshard/internal/collection"
)

func TestSplitByShardGroupsUpsertByPointHash(t *testing.T) {
	h := NewHolder(4)
	op := &UpsertOp{Records: []collection.Record{
		{ID: 1, Vector: []float32{1}},
		{ID: 2, Vector: []float32{1}},
		{ID: 3, Vector: []float32{1}},
	}}

	targets, err := h.SplitByShard(op, collection.AllShards())
	require.NoError(t, err)
	require.NotEmpty(t, targets)

	total := 0
	for _, target := range targets {
		up, ok := target.Operation.(*UpsertOp)
		require.True(t, ok)
		total += len(up.Records)
	}
	assert.Equal(t, 3, total)
}

func TestSplitByShardRoutesExplicitShardKeyToOneShard(t *testing.T) {
	h := NewHolder(4)
	key := collection.StringShardKey("tenant-a")
	op := &UpsertOp{Records: []collection.Record{{ID: 1, Vector: []float32{1}}}}

	targets, err := h.SplitByShard(op, collection.ByShardKey(key))
	require.NoError(t, err)
	require.Len(t, targets, 1)
}

func TestSelectShardsByShardIDReturnsExactlyOne(t *testing.T) {
	h := NewHolder(3)
	targets, err := h.SelectShards(collection.ByShardID(1))
	require.NoError(t, err)
	require.Len(t, targets, 1)
}

func TestSelectShardsUnknownIDErrors(t *testing.T) {
	h := NewHolder(3)
	_, err := h.SelectShards(collection.ByShardID(99))
	require.Error(t, err)
}

func TestSelectShardsAllReturnsEveryShard(t *testing.T) {
	h := NewHolder(5)
	targets, err := h.SelectShards(collection.AllShards())
	require.NoError(t, err)
	assert.Len(t, targets, 5)
}

func TestGetShardRoundTrip(t *testing.T) {
	h := NewHolder(2)
	r, ok := h.GetShard(0)
	require.True(t, ok)
	assert.NotNil(t, r)

	_, ok = h.GetShard(2)
	assert.False(t, ok)
}

func TestUpsertThenScrollRoundTrip(t *testing.T) {
	h := NewHolder(2)
	op := &UpsertOp{Records: []collection.Record{
		{ID: 10, Vector: []float32{0.1}, Payload: map[string]any{"tag": "x"}},
	}}
	targets, err := h.SplitByShard(op, collection.AllShards())
	require.NoError(t, err)

	for _, target := range targets {
		_, err := target.Replica.UpdateLocal(context.Background(), target.Operation, true)
		require.NoError(t, err)
	}

	var found bool
	for _, r := range h.AllShards() {
		records, err := r.ScrollBy(context.Background(), nil, 10, true, true, nil, nil, false, nil)
		require.NoError(t, err)
		for _, rec := range records {
			if rec.ID == 10 {
				found = true
				assert.Equal(t, "x", rec.Payload["tag"])
			}
		}
	}
	assert.True(t, found)
}
