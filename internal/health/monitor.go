package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/vectorshard/internal/peer"
)

// PeerHealth tracks the health status of a single peer. Protected by
// Monitor's mutex when accessed.
type PeerHealth struct {
	LastCheck        time.Time
	LastHealthy      time.Time
	PeerID           string
	Status           string
	ConsecutiveFails int
}

// Monitor performs periodic health checks against every peer the provider
// passed to Start returns, tracking each one's status and calling the
// SetOnUnhealthy callback, if any, when a peer crosses the unhealthy
// threshold.
type Monitor struct {
	peers       map[string]*PeerHealth
	httpClient  *http.Client
	checkFunc   func(addr string) error
	onUnhealthy func(peerID string)
	ctx         context.Context
	cancel      context.CancelFunc
	interval    time.Duration
	timeout     time.Duration
	mu          sync.RWMutex
	wg          sync.WaitGroup
	maxFailures int
	log         *zap.Logger
}

// NewMonitor creates a health monitor that checks each peer's /health
// endpoint every interval, marking a peer unhealthy after 3 consecutive
// failures.
func NewMonitor(interval time.Duration, log *zap.Logger) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		interval:    interval,
		timeout:     2 * time.Second,
		maxFailures: 3,
		peers:       make(map[string]*PeerHealth),
		httpClient:  &http.Client{Timeout: 2 * time.Second},
		ctx:         ctx,
		cancel:      cancel,
		log:         log,
	}
}

// SetOnUnhealthy sets the callback invoked with a peer's ID the moment it
// crosses the unhealthy threshold.
func (m *Monitor) SetOnUnhealthy(callback func(peerID string)) {
	m.onUnhealthy = callback
}

// SetCheckFunction overrides the default HTTP health check, mainly for
// tests.
func (m *Monitor) SetCheckFunction(checkFunc func(addr string) error) {
	m.checkFunc = checkFunc
}

// Start runs the monitoring loop until ctx or the monitor's own Stop is
// called. It blocks, so callers run it in its own goroutine.
func (m *Monitor) Start(ctx context.Context, peerProvider func() []peer.Info) {
	m.wg.Add(1)
	defer m.wg.Done()

	if ctx == nil {
		ctx = m.ctx
	}
	if m.checkFunc == nil {
		m.checkFunc = m.defaultHealthCheck
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("health monitor started", zap.Duration("interval", m.interval))
	m.checkAll(peerProvider())

	for {
		select {
		case <-ticker.C:
			m.checkAll(peerProvider())
		case <-ctx.Done():
			m.log.Info("health monitor stopping", zap.String("reason", "context canceled"))
			return
		case <-m.ctx.Done():
			m.log.Info("health monitor stopping", zap.String("reason", "stopped"))
			return
		}
	}
}

// Stop cancels the monitoring loop and waits for it to return.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) checkAll(peers []peer.Info) {
	current := make(map[string]bool, len(peers))
	for _, p := range peers {
		current[p.ID] = true
		m.checkOne(p)
	}

	m.mu.Lock()
	for id := range m.peers {
		if !current[id] {
			delete(m.peers, id)
		}
	}
	m.mu.Unlock()
}

func (m *Monitor) checkOne(p peer.Info) {
	m.mu.Lock()
	health, exists := m.peers[p.ID]
	if !exists {
		health = &PeerHealth{PeerID: p.ID, Status: "unknown", LastCheck: time.Now(), LastHealthy: time.Now()}
		m.peers[p.ID] = health
	}
	m.mu.Unlock()

	err := m.checkFunc(p.Addr)

	m.mu.Lock()
	defer m.mu.Unlock()

	health.LastCheck = time.Now()

	if err != nil {
		health.ConsecutiveFails++
		m.log.Warn("peer health check failed",
			zap.String("peer_id", p.ID), zap.Int("attempt", health.ConsecutiveFails),
			zap.Int("max_failures", m.maxFailures), zap.Error(err))

		if health.ConsecutiveFails >= m.maxFailures {
			previous := health.Status
			health.Status = "unhealthy"
			if previous != "unhealthy" && m.onUnhealthy != nil {
				m.log.Warn("peer marked unhealthy", zap.String("peer_id", p.ID), zap.Int("consecutive_fails", health.ConsecutiveFails))
				go m.onUnhealthy(p.ID)
			}
		}
		return
	}

	if health.Status == "unhealthy" {
		m.log.Info("peer recovered", zap.String("peer_id", p.ID))
	}
	health.Status = "healthy"
	health.ConsecutiveFails = 0
	health.LastHealthy = time.Now()
}

func (m *Monitor) defaultHealthCheck(addr string) error {
	url := addr
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		url = fmt.Sprintf("http://%s", addr)
	}
	if !strings.HasSuffix(url, "/health") {
		url = strings.TrimRight(url, "/") + "/health"
	}

	resp, err := m.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// Get returns a copy of a peer's current health record, or nil if it
// isn't being monitored.
func (m *Monitor) Get(peerID string) *PeerHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health, exists := m.peers[peerID]
	if !exists {
		return nil
	}
	copied := *health
	return &copied
}

// All returns a copy of every monitored peer's health record.
func (m *Monitor) All() map[string]*PeerHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*PeerHealth, len(m.peers))
	for id, health := range m.peers {
		copied := *health
		result[id] = &copied
	}
	return result
}

// IsHealthy reports whether peerID is currently healthy. Unknown peers
// report false.
func (m *Monitor) IsHealthy(peerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health, exists := m.peers[peerID]
	return exists && health.Status == "healthy"
}
