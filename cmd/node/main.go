// Package main implements a node process: it hosts a Collection over a
// fixed number of locally-backed shards, registers itself with the
// coordinator, and serves health checks and metrics.
//
// Configuration:
//   - NODE_ID: unique node identifier (required)
//   - NODE_LISTEN: listen address (default ":8081")
//   - NODE_ADDR: public address advertised to the coordinator (default "http://127.0.0.1:8081")
//   - COORDINATOR_ADDR: coordinator base URL (required)
//   - NODE_SHARDS: number of local shards to host (default 4)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dreamware/vectorshard/internal/collection"
	"github.com/dreamware/vectorshard/internal/memshard"
	vmetrics "github.com/dreamware/vectorshard/internal/metrics"
	"github.com/dreamware/vectorshard/internal/peer"
)

type server struct {
	collection *collection.Collection
	holder     *memshard.Holder
	log        *zap.Logger
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	nodeID := os.Getenv("NODE_ID")
	if nodeID == "" {
		log.Fatal("NODE_ID is required")
	}
	listen := getenv("NODE_LISTEN", ":8081")
	addr := getenv("NODE_ADDR", "http://127.0.0.1:8081")
	coordinatorAddr := os.Getenv("COORDINATOR_ADDR")
	if coordinatorAddr == "" {
		log.Fatal("COORDINATOR_ADDR is required")
	}
	numShards := getenvInt("NODE_SHARDS", 4)

	registry := prometheus.NewRegistry()
	sink := vmetrics.NewProm(registry)

	holder := memshard.NewHolder(numShards)
	coll := collection.New(holder, noRangeIndexSchema{}, collection.WithMetrics(sink), collection.WithLogger(log))

	srv := &server{collection: coll, holder: holder, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/control", srv.handleControl)

	httpSrv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("node listening", zap.String("addr", listen))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := registerWithCoordinator(ctx, coordinatorAddr, nodeID, addr); err != nil {
		log.Warn("registration with coordinator failed", zap.Error(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// handleControl accepts admin-issued control messages; real command
// parsing (rebalance, snapshot, shard transfer) lives outside this
// package's scope, this stub just demonstrates the exclusion lock.
func (s *server) handleControl(w http.ResponseWriter, r *http.Request) {
	err := s.collection.WithAdminExclusion(func() error { return nil })
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func registerWithCoordinator(ctx context.Context, coordinatorAddr, nodeID, addr string) error {
	req := peer.RegisterRequest{Node: peer.Info{ID: nodeID, Addr: addr, Status: "healthy"}}
	return peer.PostJSON(ctx, coordinatorAddr+"/register", req, nil)
}

// noRangeIndexSchema is a PayloadSchema stub: no keys are range-indexed,
// so order_by requests fail validation until a real payload index
// schema store (out of this package's scope) is wired in.
type noRangeIndexSchema struct{}

func (noRangeIndexSchema) HasRangeIndex(string) bool { return false }

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
