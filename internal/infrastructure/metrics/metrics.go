// Package metrics exposes Prometheus metrics for HTTP traffic, stock ledger
// events and supplier payments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"billing/internal/domain/payment"
	"billing/internal/domain/stock"
	"billing/internal/infrastructure/storage/postgres"
)

// Metrics holds the billing API collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	StockEventsTotal   *prometheus.CounterVec
	StockRejectedTotal *prometheus.CounterVec

	PaymentsRecordedTotal prometheus.Counter
	PaymentsAmountTotal   prometheus.Counter
	PaymentsRejectedTotal *prometheus.CounterVec
	PaymentResyncsTotal   prometheus.Counter
}

var (
	_ stock.Observer   = (*Metrics)(nil)
	_ payment.Observer = (*Metrics)(nil)
)

// New creates the collectors under namespace and registers them.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	m.StockEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_events_total",
			Help:      "Stock ledger events applied, by kind",
		},
		[]string{"kind"},
	)
	m.StockRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_events_rejected_total",
			Help:      "Stock ledger events rejected, by kind and error code",
		},
		[]string{"kind", "code"},
	)

	m.PaymentsRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Supplier payments recorded",
		},
	)
	m.PaymentsAmountTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_amount_total",
			Help:      "Sum of recorded supplier payment amounts",
		},
	)
	m.PaymentsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_rejected_total",
			Help:      "Supplier payments rejected, by error code",
		},
		[]string{"code"},
	)
	m.PaymentResyncsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_total_resyncs_total",
			Help:      "Stored batch totals corrected from a freshly computed total",
		},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.StockEventsTotal,
		m.StockRejectedTotal,
		m.PaymentsRecordedTotal,
		m.PaymentsAmountTotal,
		m.PaymentsRejectedTotal,
		m.PaymentResyncsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterPool exports connection pool gauges read at scrape time.
func (m *Metrics) RegisterPool(namespace string, pool *postgres.Pool) {
	gauge := func(name, help string, read func(postgres.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "db_pool", Name: name, Help: help},
			func() float64 { return read(pool.Stats()) },
		)
	}
	m.registry.MustRegister(
		gauge("total_conns", "Open connections", func(s postgres.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("acquired_conns", "Connections in use", func(s postgres.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("idle_conns", "Idle connections", func(s postgres.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("max_conns", "Configured maximum connections", func(s postgres.PoolStats) float64 { return float64(s.MaxConns) }),
	)
}

// RecordHTTPRequest records one finished request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) LedgerApplied(kind stock.Kind) {
	m.StockEventsTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) LedgerRejected(kind stock.Kind, code string) {
	m.StockRejectedTotal.WithLabelValues(string(kind), code).Inc()
}

func (m *Metrics) PaymentRecorded(amount float64) {
	m.PaymentsRecordedTotal.Inc()
	m.PaymentsAmountTotal.Add(amount)
}

func (m *Metrics) PaymentRejected(code string) {
	m.PaymentsRejectedTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) TotalResynced() {
	m.PaymentResyncsTotal.Inc()
}
