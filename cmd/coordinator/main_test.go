package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamware/vectorshard/internal/coordinator"
	"github.com/dreamware/vectorshard/internal/peer"
)

func TestHandleRegisterAddsAndUpdatesPeer(t *testing.T) {
	srv := newServer(zap.NewNop(), 4)

	body, _ := json.Marshal(peer.RegisterRequest{Node: peer.Info{ID: "node-1", Addr: "http://localhost:18081"}})
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleRegister(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, srv.peerSnapshot(), 1)

	// re-registering the same ID updates in place rather than duplicating
	body2, _ := json.Marshal(peer.RegisterRequest{Node: peer.Info{ID: "node-1", Addr: "http://localhost:19999"}})
	req2 := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body2))
	w2 := httptest.NewRecorder()
	srv.handleRegister(w2, req2)

	peers := srv.peerSnapshot()
	require.Len(t, peers, 1)
	assert.Equal(t, "http://localhost:19999", peers[0].Addr)

	// registration triggers a rebalance, so every shard now has an owner
	assert.Len(t, srv.shards.All(), 4)
}

func TestHandleListShardsReturnsAssignments(t *testing.T) {
	srv := newServer(zap.NewNop(), 2)
	require.NoError(t, srv.shards.Rebalance([]string{"node-1", "node-2"}))

	req := httptest.NewRequest(http.MethodGet, "/shards", nil)
	w := httptest.NewRecorder()
	srv.handleListShards(w, req)

	var got []coordinator.NodeAssignment
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestHandleRegisterRejectsNonPost(t *testing.T) {
	srv := newServer(zap.NewNop(), 4)
	req := httptest.NewRequest(http.MethodGet, "/register", nil)
	w := httptest.NewRecorder()
	srv.handleRegister(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleListPeersReturnsSnapshot(t *testing.T) {
	srv := newServer(zap.NewNop(), 4)
	srv.peers = []peer.Info{{ID: "node-1", Addr: "http://localhost:18081"}}

	req := httptest.NewRequest(http.MethodGet, "/peers", nil)
	w := httptest.NewRecorder()
	srv.handleListPeers(w, req)

	var got []peer.Info
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "node-1", got[0].ID)
}

func TestHandleBroadcastAcceptsAndFansOut(t *testing.T) {
	received := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	srv := newServer(zap.NewNop(), 4)
	srv.peers = []peer.Info{{ID: "node-1", Addr: upstream.URL}}

	body, _ := json.Marshal(peer.BroadcastRequest{Path: "/reload", Payload: json.RawMessage(`{}`)})
	req := httptest.NewRequest(http.MethodPost, "/broadcast", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleBroadcast(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	select {
	case path := <-received:
		assert.Equal(t, "/reload", path)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never reached upstream")
	}
}

func TestGetenvFallsBackToDefault(t *testing.T) {
	t.Setenv("COORDINATOR_ADDR", "")
	assert.Equal(t, ":8080", getenv("COORDINATOR_ADDR", ":8080"))
}
