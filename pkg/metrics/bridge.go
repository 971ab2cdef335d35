package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "crawler",
		Name:      "calls_active",
		Help:      "Entrypoint calls currently blocking their caller",
	}, []string{"feed"})
	CallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "calls_total",
		Help:      "Finished entrypoint calls, partitioned by result code",
	}, []string{"feed", "code"})
	CallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crawler",
		Name:      "call_duration_seconds",
		Help:      "Wall time of one entrypoint call",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms -> ~43min
	}, []string{"feed"})

	DeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "delivered_total",
		Help:      "Records handed to the host callback",
	}, []string{"feed"})
	DiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "discarded_total",
		Help:      "Queued messages discarded after a callback fault",
	}, []string{"feed"})
	CallbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crawler",
		Name:      "callback_duration_seconds",
		Help:      "Time spent inside one host callback",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12), // 10us -> ~42s
	})
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "crawler",
		Name:      "queue_depth",
		Help:      "Messages emitted by the engine and not yet delivered",
	}, []string{"feed"})

	EngineFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "engine_faults_total",
		Help:      "Panics recovered from engine calls",
	}, []string{"call"})
	EnvelopesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "envelopes_total",
		Help:      "Upstream envelopes seen by the relay engine, partitioned by outcome",
	}, []string{"transport", "outcome"}) // emitted/filtered/throttled/invalid
	ReconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crawler",
		Name:      "reconnects_total",
		Help:      "Transport reconnect attempts",
	}, []string{"transport"})
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "crawler",
		Name:      "breaker_state",
		Help:      "Transport circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"transport"})
)

// ObserveCall records the end of one entrypoint call.
func ObserveCall(feed string, code int, dur time.Duration) {
	CallsTotal.WithLabelValues(feed, strconv.Itoa(code)).Inc()
	CallDuration.WithLabelValues(feed).Observe(dur.Seconds())
}
