package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAllLocalReturnsFirstNonNilResult(t *testing.T) {
	holder := newFakeHolder()
	holder.add(0, &fakeReplica{
		updateLocalFn: func(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error) {
			return nil, nil
		},
	})
	holder.add(1, &fakeReplica{
		updateLocalFn: func(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error) {
			return &UpdateResult{Status: StatusCompleted}, nil
		},
	})

	c := New(holder, &fakeSchema{})
	res, err := c.UpdateAllLocal(context.Background(), &fakeOp{id: "a"}, true)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StatusCompleted, res.Status)
}

func TestUpdateAllLocalFailsFast(t *testing.T) {
	wantErr := errors.New("shard boom")
	holder := newFakeHolder()
	holder.add(0, &fakeReplica{
		updateLocalFn: func(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error) {
			return nil, wantErr
		},
	})
	holder.add(1, &fakeReplica{})

	c := New(holder, &fakeSchema{})
	_, err := c.UpdateAllLocal(context.Background(), &fakeOp{id: "a"}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestUpdateFromPeerWeakNotFoundWhenNoLocalCopy(t *testing.T) {
	holder := newFakeHolder()
	holder.add(5, &fakeReplica{
		updateLocalFn: func(ctx context.Context, op UpdateOperation, wait bool) (*UpdateResult, error) {
			return nil, nil
		},
	})

	c := New(holder, &fakeSchema{})
	_, err := c.UpdateFromPeer(context.Background(), &fakeOp{id: "a"}, 5, true, OrderingWeak)
	require.Error(t, err)
	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestUpdateFromPeerUnknownShardNotFound(t *testing.T) {
	holder := newFakeHolder()
	c := New(holder, &fakeSchema{})

	_, err := c.UpdateFromPeer(context.Background(), &fakeOp{id: "a"}, 42, true, OrderingWeak)
	require.Error(t, err)
	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestUpdateFromPeerMediumRoutesThroughConsistency(t *testing.T) {
	replica := &fakeReplica{
		updateConsFn: func(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error) {
			return UpdateResult{Status: StatusCompleted}, nil
		},
	}
	holder := newFakeHolder()
	holder.add(1, replica)
	c := New(holder, &fakeSchema{})

	res, err := c.UpdateFromPeer(context.Background(), &fakeOp{id: "a"}, 1, true, OrderingMedium)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 1, replica.updateConsCalls)
}

func TestUpdateFromClientRejectsInvalidOperation(t *testing.T) {
	holder := newFakeHolder()
	c := New(holder, &fakeSchema{})

	_, err := c.UpdateFromClient(context.Background(), &fakeOp{id: "a", invalid: true}, true, OrderingStrong, nil)
	require.Error(t, err)
	var badReq *BadRequestError
	assert.ErrorAs(t, err, &badReq)
}

func TestUpdateFromClientRejectsEmptySplit(t *testing.T) {
	holder := newFakeHolder()
	holder.splitFn = func(op UpdateOperation, selector ShardSelector) ([]ShardOpTarget, error) {
		return nil, nil
	}
	c := New(holder, &fakeSchema{})

	_, err := c.UpdateFromClient(context.Background(), &fakeOp{id: "a"}, true, OrderingStrong, nil)
	require.Error(t, err)
	var badReq *BadRequestError
	assert.ErrorAs(t, err, &badReq)
}

func TestUpdateFromClientAllSucceedReturnsResult(t *testing.T) {
	holder := newFakeHolder()
	holder.add(0, &fakeReplica{})
	holder.add(1, &fakeReplica{})

	c := New(holder, &fakeSchema{})
	res, err := c.UpdateFromClient(context.Background(), &fakeOp{id: "a"}, true, OrderingStrong, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, res.Status)
}

func TestUpdateFromClientPartialFailureIsInconsistentShardFailure(t *testing.T) {
	wantErr := errors.New("one shard down")
	holder := newFakeHolder()
	holder.add(0, &fakeReplica{
		updateConsFn: func(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error) {
			return UpdateResult{}, wantErr
		},
	})
	holder.add(1, &fakeReplica{})
	holder.add(2, &fakeReplica{})

	c := New(holder, &fakeSchema{})
	_, err := c.UpdateFromClient(context.Background(), &fakeOp{id: "a"}, true, OrderingStrong, nil)
	require.Error(t, err)

	var partial *InconsistentShardFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 3, partial.ShardsTotal)
	assert.Equal(t, 1, partial.ShardsFailed)
	assert.ErrorIs(t, partial.FirstErr, wantErr)
}

func TestUpdateFromClientUniformFailureReturnsFirstErrVerbatim(t *testing.T) {
	wantErr := errors.New("all shards down")
	holder := newFakeHolder()
	holder.add(0, &fakeReplica{
		updateConsFn: func(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error) {
			return UpdateResult{}, wantErr
		},
	})
	holder.add(1, &fakeReplica{
		updateConsFn: func(ctx context.Context, op UpdateOperation, wait bool, ordering WriteOrdering) (UpdateResult, error) {
			return UpdateResult{}, wantErr
		},
	})

	c := New(holder, &fakeSchema{})
	_, err := c.UpdateFromClient(context.Background(), &fakeOp{id: "a"}, true, OrderingStrong, nil)
	require.Error(t, err)

	var partial *InconsistentShardFailureError
	assert.False(t, errors.As(err, &partial), "uniform failure must not be wrapped as InconsistentShardFailureError")
	assert.ErrorIs(t, err, wantErr)
}

func TestUpdateFromClientSimpleForwardsToAllShards(t *testing.T) {
	holder := newFakeHolder()
	holder.add(0, &fakeReplica{})
	holder.add(1, &fakeReplica{})

	c := New(holder, &fakeSchema{})
	res, err := c.UpdateFromClientSimple(context.Background(), &fakeOp{id: "a"}, true, OrderingWeak)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, res.Status)
}
