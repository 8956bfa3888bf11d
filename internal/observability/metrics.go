package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	documentsIssued *prometheus.CounterVec
	workflowRuns    *prometheus.CounterVec
	stockMovements  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	paymentsDecided *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry, metrik HTTP dan metrik domain.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hairline_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hairline_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hairline_documents_issued_total",
		Help: "Document numbers issued per document class.",
	}, []string{"class"})
	workflow := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hairline_workflow_runs_total",
		Help: "Workflow operations by outcome.",
	}, []string{"operation", "outcome"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hairline_stock_movements_total",
		Help: "Inventory movements posted per movement type.",
	}, []string{"type"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hairline_cache_lookups_total",
		Help: "Report cache lookups by cache and result.",
	}, []string{"cache", "result"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hairline_payments_decided_total",
		Help: "Payment verifications by decision.",
	}, []string{"decision"})
	registry.MustRegister(requests, duration, documents, workflow, movements, cache, payments)
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		documentsIssued: documents,
		workflowRuns:    workflow,
		stockMovements:  movements,
		cacheLookups:    cache,
		paymentsDecided: payments,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// DocumentIssued counts a freshly minted document number.
func (m *Metrics) DocumentIssued(class string) {
	if m == nil {
		return
	}
	m.documentsIssued.WithLabelValues(class).Inc()
}

// WorkflowRun records the outcome of a workflow operation and returns err untouched.
func (m *Metrics) WorkflowRun(operation string, err error) error {
	if m == nil {
		return err
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.workflowRuns.WithLabelValues(operation, outcome).Inc()
	return err
}

// StockMovement counts a posted inventory movement.
func (m *Metrics) StockMovement(movementType string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType).Inc()
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// PaymentDecided counts an approved or rejected payment.
func (m *Metrics) PaymentDecided(decision string) {
	if m == nil {
		return
	}
	m.paymentsDecided.WithLabelValues(decision).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
