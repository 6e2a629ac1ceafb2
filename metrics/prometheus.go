package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all lending metrics
type Collector struct {
	// Operation metrics
	OperationsTotal  *prometheus.CounterVec
	OperationErrors  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec

	// Pool metrics
	BankTotalDeposits *prometheus.GaugeVec
	BankTotalBorrowed *prometheus.GaugeVec
	BankUtilization   *prometheus.GaugeVec

	// Position metrics
	PositionsTracked prometheus.Gauge

	// Oracle metrics
	OraclePrice    *prometheus.GaugeVec
	OracleQuoteAge *prometheus.GaugeVec
	StaleQuotes    *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

func newCollector() *Collector {
	c := &Collector{}

	c.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: "ops",
			Name:      "total",
			Help:      "Total lending operations processed",
		},
		[]string{"operation", "denom"},
	)

	c.OperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: "ops",
			Name:      "errors_total",
			Help:      "Total lending operations rejected, by error kind",
		},
		[]string{"operation", "denom", "error"},
	)

	c.OperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lending",
			Subsystem: "ops",
			Name:      "latency_ms",
			Help:      "Lending operation latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"operation"},
	)

	c.BankTotalDeposits = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "bank",
			Name:      "total_deposits",
			Help:      "Pool deposits in scaled ledger units",
		},
		[]string{"denom"},
	)

	c.BankTotalBorrowed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "bank",
			Name:      "total_borrowed",
			Help:      "Pool borrows in scaled ledger units",
		},
		[]string{"denom"},
	)

	c.BankUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "bank",
			Name:      "utilization",
			Help:      "Borrowed over deposited (0-1)",
		},
		[]string{"denom"},
	)

	c.PositionsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "positions",
			Name:      "tracked",
			Help:      "Number of user positions on file",
		},
	)

	c.OraclePrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "oracle",
			Name:      "price",
			Help:      "Latest unit price per feed",
		},
		[]string{"feed_id"},
	)

	c.OracleQuoteAge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: "oracle",
			Name:      "quote_age_seconds",
			Help:      "Age of the latest quote per feed",
		},
		[]string{"feed_id"},
	)

	c.StaleQuotes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: "oracle",
			Name:      "stale_total",
			Help:      "Operations rejected for stale or missing quotes",
		},
		[]string{"feed_id"},
	)

	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lending",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	c.registerAll()

	return c
}

func (c *Collector) registerAll() {
	prometheus.MustRegister(c.OperationsTotal)
	prometheus.MustRegister(c.OperationErrors)
	prometheus.MustRegister(c.OperationLatency)

	prometheus.MustRegister(c.BankTotalDeposits)
	prometheus.MustRegister(c.BankTotalBorrowed)
	prometheus.MustRegister(c.BankUtilization)

	prometheus.MustRegister(c.PositionsTracked)

	prometheus.MustRegister(c.OraclePrice)
	prometheus.MustRegister(c.OracleQuoteAge)
	prometheus.MustRegister(c.StaleQuotes)

	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.RateLimitHits)
}

// ============ Recording Helpers ============

// RecordOperation records a completed lending operation
func (c *Collector) RecordOperation(operation, denom string, latencyMs float64) {
	c.OperationsTotal.WithLabelValues(operation, denom).Inc()
	c.OperationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordOperationError records a rejected lending operation
func (c *Collector) RecordOperationError(operation, denom, errKind string) {
	c.OperationErrors.WithLabelValues(operation, denom, errKind).Inc()
}

// RecordBankState records per-pool gauges after an operation
func (c *Collector) RecordBankState(denom string, deposits, borrowed float64) {
	c.BankTotalDeposits.WithLabelValues(denom).Set(deposits)
	c.BankTotalBorrowed.WithLabelValues(denom).Set(borrowed)
	if deposits > 0 {
		c.BankUtilization.WithLabelValues(denom).Set(borrowed / deposits)
	}
}

// RecordQuote records the latest oracle quote for a feed
func (c *Collector) RecordQuote(feedID string, unitPrice float64, ageSeconds float64) {
	c.OraclePrice.WithLabelValues(feedID).Set(unitPrice)
	c.OracleQuoteAge.WithLabelValues(feedID).Set(ageSeconds)
}

// RecordStaleQuote records an operation rejected for quote staleness
func (c *Collector) RecordStaleQuote(feedID string) {
	c.StaleQuotes.WithLabelValues(feedID).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
