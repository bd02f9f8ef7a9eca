package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Scan metrics
	ScanRunsTotal     *prometheus.CounterVec
	ScanDuration      *prometheus.HistogramVec
	TickersScanned    *prometheus.CounterVec
	TickerScanErrors  *prometheus.CounterVec
	SignalsFired      *prometheus.CounterVec
	CombinedScores    *prometheus.HistogramVec
	ScanResultActions *prometheus.CounterVec

	// Trade lifecycle metrics
	TradesCreated   *prometheus.CounterVec
	TradesOpened    prometheus.Counter
	TradesClosed    *prometheus.CounterVec
	TradeRMultiples prometheus.Histogram
	ActiveTrades    *prometheus.GaugeVec

	// Monitor metrics
	MonitorCycleDuration prometheus.Histogram
	MonitorCycleErrors   prometheus.Counter
	RiskBreakerTripped   prometheus.Gauge
	DailyRealizedR       prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// scoreBuckets are histogram buckets for combined scores (0 to 10)
var scoreBuckets = []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// rBuckets are histogram buckets for trade R-multiples
var rBuckets = []float64{-3, -2, -1.5, -1, -0.5, 0, 0.5, 1, 1.5, 2, 3}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		ScanRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "scan",
				Name:      "runs_total",
				Help:      "Total number of market scan runs",
			},
			[]string{"universe", "status"},
		),
		ScanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signal_scout",
				Subsystem: "scan",
				Name:      "duration_seconds",
				Help:      "Duration of full market scans in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"universe"},
		),
		TickersScanned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "scan",
				Name:      "tickers_total",
				Help:      "Total number of tickers scanned",
			},
			[]string{"status"},
		),
		TickerScanErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "scan",
				Name:      "ticker_errors_total",
				Help:      "Total number of per-ticker scan failures",
			},
			[]string{"error_type"},
		),
		SignalsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "signals",
				Name:      "fired_total",
				Help:      "Total number of signal flags evaluated true",
			},
			[]string{"signal"},
		),
		CombinedScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signal_scout",
				Subsystem: "scan",
				Name:      "combined_score",
				Help:      "Distribution of combined scores",
				Buckets:   scoreBuckets,
			},
			[]string{"trend"},
		),
		ScanResultActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "scan",
				Name:      "actions_total",
				Help:      "Total number of scan results by resolved action",
			},
			[]string{"action"},
		),
		TradesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "trades",
				Name:      "created_total",
				Help:      "Total number of trade creation attempts by outcome",
			},
			[]string{"outcome"},
		),
		TradesOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "trades",
				Name:      "opened_total",
				Help:      "Total number of trades that entered",
			},
		),
		TradesClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "trades",
				Name:      "closed_total",
				Help:      "Total number of trades closed by exit reason",
			},
			[]string{"exit_reason"},
		),
		TradeRMultiples: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "signal_scout",
				Subsystem: "trades",
				Name:      "r_multiple",
				Help:      "Distribution of realized R-multiples",
				Buckets:   rBuckets,
			},
		),
		ActiveTrades: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "signal_scout",
				Subsystem: "trades",
				Name:      "active",
				Help:      "Current number of active trades by status",
			},
			[]string{"status"},
		),
		MonitorCycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "signal_scout",
				Subsystem: "monitor",
				Name:      "cycle_duration_seconds",
				Help:      "Duration of trade monitor cycles in seconds",
				Buckets:   defaultBuckets,
			},
		),
		MonitorCycleErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "monitor",
				Name:      "cycle_errors_total",
				Help:      "Total number of monitor cycles that hit an error",
			},
		),
		RiskBreakerTripped: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "signal_scout",
				Subsystem: "monitor",
				Name:      "risk_breaker_tripped",
				Help:      "Whether the daily loss breaker is tripped (0 or 1)",
			},
		),
		DailyRealizedR: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "signal_scout",
				Subsystem: "monitor",
				Name:      "daily_realized_r",
				Help:      "Sum of R-multiples realized today",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signal_scout",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signal_scout",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signal_scout",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "signal_scout",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signal_scout",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// SetMetrics overrides the global metrics instance (useful for testing)
func SetMetrics(m *Metrics) {
	globalMetrics = m
}

// RecordScanRun records a completed or failed scan run
func (m *Metrics) RecordScanRun(universe, status string) {
	m.ScanRunsTotal.WithLabelValues(universe, status).Inc()
}

// RecordTickerScan records the outcome of a single ticker scan
func (m *Metrics) RecordTickerScan(status string) {
	m.TickersScanned.WithLabelValues(status).Inc()
}

// RecordTickerScanError records a per-ticker failure by category
func (m *Metrics) RecordTickerScanError(errorType string) {
	m.TickerScanErrors.WithLabelValues(errorType).Inc()
}

// RecordSignal records a signal flag that evaluated true
func (m *Metrics) RecordSignal(signal string) {
	m.SignalsFired.WithLabelValues(signal).Inc()
}

// RecordScanResult records the score and action of one scan result
func (m *Metrics) RecordScanResult(trend string, combinedScore int, action string) {
	m.CombinedScores.WithLabelValues(trend).Observe(float64(combinedScore))
	m.ScanResultActions.WithLabelValues(action).Inc()
}

// RecordTradeCreated records a trade creation attempt outcome
func (m *Metrics) RecordTradeCreated(outcome string) {
	m.TradesCreated.WithLabelValues(outcome).Inc()
}

// RecordTradeOpened records a PENDING trade transitioning to OPEN
func (m *Metrics) RecordTradeOpened() {
	m.TradesOpened.Inc()
}

// RecordTradeClosed records a closed trade with its realized R-multiple
func (m *Metrics) RecordTradeClosed(exitReason string, rMultiple float64) {
	m.TradesClosed.WithLabelValues(exitReason).Inc()
	m.TradeRMultiples.Observe(rMultiple)
}

// SetActiveTrades sets the current count of trades in the given status
func (m *Metrics) SetActiveTrades(status string, count int) {
	m.ActiveTrades.WithLabelValues(status).Set(float64(count))
}

// RecordMonitorCycle records one monitor cycle
func (m *Metrics) RecordMonitorCycle(duration time.Duration, failed bool) {
	m.MonitorCycleDuration.Observe(duration.Seconds())
	if failed {
		m.MonitorCycleErrors.Inc()
	}
}

// SetRiskBreaker publishes the daily loss breaker state and realized R
func (m *Metrics) SetRiskBreaker(tripped bool, dailyR float64) {
	if tripped {
		m.RiskBreakerTripped.Set(1)
	} else {
		m.RiskBreakerTripped.Set(0)
	}
	m.DailyRealizedR.Set(dailyR)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveScan records the scan duration for a universe
func (t *Timer) ObserveScan(universe string) {
	t.metrics.ScanDuration.WithLabelValues(universe).Observe(time.Since(t.start).Seconds())
}

// ObserveMonitorCycle records the monitor cycle duration
func (t *Timer) ObserveMonitorCycle(failed bool) {
	t.metrics.RecordMonitorCycle(time.Since(t.start), failed)
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
