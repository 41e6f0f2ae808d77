package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	requestDecisionCounter *prometheus.CounterVec
	pendingQueueGauge      *prometheus.GaugeVec
	holdImbalanceCounter   prometheus.Counter
	notifyFailureCounter   *prometheus.CounterVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		requestDecisionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "request_decisions_total",
			Help: "Staff decisions on client requests",
		}, []string{"kind", "decision"})

		pendingQueueGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pending_requests",
			Help: "Current number of pending requests per kind",
		}, []string{"kind"})

		holdImbalanceCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hold_imbalance_total",
			Help: "Number of times on-hold totals diverged from pending withdrawals",
		})

		notifyFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Failed best-effort notification deliveries",
		}, []string{"sink"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			requestDecisionCounter,
			pendingQueueGauge,
			holdImbalanceCounter,
			notifyFailureCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementRequestDecision(kind, decision string) {
	if requestDecisionCounter == nil {
		return
	}
	requestDecisionCounter.WithLabelValues(kind, decision).Inc()
}

func SetPendingQueueSize(kind string, size int) {
	if pendingQueueGauge == nil {
		return
	}
	pendingQueueGauge.WithLabelValues(kind).Set(float64(size))
}

func IncrementHoldImbalance() {
	if holdImbalanceCounter == nil {
		return
	}
	holdImbalanceCounter.Inc()
}

func IncrementNotifyFailure(sink string) {
	if notifyFailureCounter == nil {
		return
	}
	notifyFailureCounter.WithLabelValues(sink).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
