package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink abstracts the concrete metrics backend (Prometheus vs. no-op) away
// from the dispatcher and aggregator, which only know about these methods.
type Sink interface {
	// ObserveDispatch records one completed write path (update_all_local,
	// update_from_peer, update_from_client) with its write ordering and
	// outcome.
	ObserveDispatch(op string, ordering string, dur time.Duration, err error)

	// ObserveFanout records, for a single write or read fan-out, how many
	// shards were addressed and how many of those failed.
	ObserveFanout(op string, shardsTotal, shardsFailed int)

	// ObserveAggregate records one completed read path (scroll_by,
	// retrieve, count) and its outcome.
	ObserveAggregate(op string, dur time.Duration, err error)
}

// Noop discards every observation. It is the default Sink so that callers
// who don't opt into Prometheus pay only the cost of an interface call.
type Noop struct{}

func (Noop) ObserveDispatch(string, string, time.Duration, error) {}
func (Noop) ObserveFanout(string, int, int)                       {}
func (Noop) ObserveAggregate(string, time.Duration, error)        {}

// Prom is a Sink backed by Prometheus counters and histograms, registered
// eagerly on construction.
type Prom struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	fanoutShards     *prometheus.CounterVec
	fanoutFailed     *prometheus.CounterVec
	aggregateTotal   *prometheus.CounterVec
	aggregateDur     *prometheus.HistogramVec
}

// NewProm builds a Prom sink and registers its collectors with reg. Passing
// a nil registry is a programmer error; callers should use Noop instead.
func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardcoord",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Completed write-dispatch requests by operation, ordering and status.",
		}, []string{"op", "ordering", "status"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shardcoord",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Write-dispatch latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		fanoutShards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardcoord",
			Subsystem: "fanout",
			Name:      "shards_total",
			Help:      "Shards addressed per fan-out call, by operation.",
		}, []string{"op"}),
		fanoutFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardcoord",
			Subsystem: "fanout",
			Name:      "shards_failed_total",
			Help:      "Shards that failed per fan-out call, by operation.",
		}, []string{"op"}),
		aggregateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardcoord",
			Subsystem: "aggregate",
			Name:      "requests_total",
			Help:      "Completed read-aggregation requests by operation and status.",
		}, []string{"op", "status"}),
		aggregateDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shardcoord",
			Subsystem: "aggregate",
			Name:      "duration_seconds",
			Help:      "Read-aggregation latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(
		p.dispatchTotal, p.dispatchDuration,
		p.fanoutShards, p.fanoutFailed,
		p.aggregateTotal, p.aggregateDur,
	)
	return p
}

func (p *Prom) ObserveDispatch(op, ordering string, dur time.Duration, err error) {
	p.dispatchTotal.WithLabelValues(op, ordering, status(err)).Inc()
	p.dispatchDuration.WithLabelValues(op).Observe(dur.Seconds())
}

func (p *Prom) ObserveFanout(op string, shardsTotal, shardsFailed int) {
	p.fanoutShards.WithLabelValues(op).Add(float64(shardsTotal))
	if shardsFailed > 0 {
		p.fanoutFailed.WithLabelValues(op).Add(float64(shardsFailed))
	}
}

func (p *Prom) ObserveAggregate(op string, dur time.Duration, err error) {
	p.aggregateTotal.WithLabelValues(op, status(err)).Inc()
	p.aggregateDur.WithLabelValues(op).Observe(dur.Seconds())
}

func status(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

var _ Sink = Noop{}
var _ Sink = (*Prom)(nil)
