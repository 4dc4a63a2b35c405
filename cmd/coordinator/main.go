// Package main implements the coordinator process: it tracks registered
// peers, runs the health monitor against them, keeps a shard-to-node
// placement table, and exposes admin/broadcast endpoints. Request dispatch
// and aggregation across shards live in internal/collection and are
// consumed, not reimplemented, here.
//
// Configuration:
//   - COORDINATOR_ADDR: listen address (default ":8080")
//   - COORDINATOR_SHARDS: shard count for the placement table (default 4)
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dreamware/vectorshard/internal/coordinator"
	"github.com/dreamware/vectorshard/internal/health"
	"github.com/dreamware/vectorshard/internal/peer"
)

type server struct {
	mu            sync.RWMutex
	peers         []peer.Info
	healthMonitor *health.Monitor
	shards        *coordinator.NodeShardRegistry
	log           *zap.Logger
}

func newServer(log *zap.Logger, numShards int) *server {
	return &server{
		healthMonitor: health.NewMonitor(5*time.Second, log),
		shards:        coordinator.NewNodeShardRegistry(numShards),
		log:           log,
	}
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req peer.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	idx := slices.IndexFunc(s.peers, func(p peer.Info) bool { return p.ID == req.Node.ID })
	if idx >= 0 {
		s.peers[idx] = req.Node
	} else {
		s.peers = append(s.peers, req.Node)
	}
	nodeIDs := make([]string, len(s.peers))
	for i, p := range s.peers {
		nodeIDs[i] = p.ID
	}
	s.mu.Unlock()

	if err := s.shards.Rebalance(nodeIDs); err != nil {
		s.log.Warn("rebalance after registration failed", zap.Error(err))
	}

	s.log.Info("peer registered", zap.String("peer_id", req.Node.ID), zap.String("addr", req.Node.Addr))
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(req.Node)
}

func (s *server) handleListShards(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.shards.All())
}

func (s *server) handleListPeers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	peers := append([]peer.Info(nil), s.peers...)
	s.mu.RUnlock()
	_ = json.NewEncoder(w).Encode(peers)
}

func (s *server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req peer.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	targets := append([]peer.Info(nil), s.peers...)
	s.mu.RUnlock()

	ctx := peer.WithRequestID(r.Context(), peer.NewRequestID())
	for _, p := range targets {
		go func(p peer.Info) {
			if err := peer.PostJSON(ctx, p.Addr+req.Path, req.Payload, nil); err != nil {
				s.log.Warn("broadcast to peer failed", zap.String("peer_id", p.ID), zap.Error(err))
			}
		}(p)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) peerSnapshot() []peer.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]peer.Info(nil), s.peers...)
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	addr := getenv("COORDINATOR_ADDR", ":8080")
	numShards := getenvInt("COORDINATOR_SHARDS", 4)

	srv := newServer(log, numShards)
	go srv.healthMonitor.Start(context.Background(), srv.peerSnapshot)

	registry := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("/register", srv.handleRegister)
	mux.HandleFunc("/peers", srv.handleListPeers)
	mux.HandleFunc("/shards", srv.handleListShards)
	mux.HandleFunc("/broadcast", srv.handleBroadcast)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("coordinator listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	srv.healthMonitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
