package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	callsRecorded   prometheus.Counter
	randomizerDraws prometheus.Counter
	importRows      *prometheus.CounterVec
	exportsTotal    *prometheus.CounterVec
}

// NewMetricsService registers the service's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	callsRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coldcall_calls_recorded_total",
		Help: "Cold-call outcomes persisted",
	})

	randomizerDraws := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coldcall_randomizer_draws_total",
		Help: "Randomizer selections served",
	})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coldcall_import_rows_total",
		Help: "Imported rows by kind and outcome",
	}, []string{"kind", "outcome"})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coldcall_exports_total",
		Help: "Export downloads by format",
	}, []string{"format"})

	registry.MustRegister(requestDuration, requestTotal, callsRecorded, randomizerDraws, importRows, exportsTotal)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		callsRecorded:   callsRecorded,
		randomizerDraws: randomizerDraws,
		importRows:      importRows,
		exportsTotal:    exportsTotal,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCallPersisted counts one cold-call outcome write.
func (s *MetricsService) RecordCallPersisted() {
	if s != nil {
		s.callsRecorded.Inc()
	}
}

// RecordRandomizerDraw counts one randomizer selection.
func (s *MetricsService) RecordRandomizerDraw() {
	if s != nil {
		s.randomizerDraws.Inc()
	}
}

// RecordImportRows counts rows of one import batch.
func (s *MetricsService) RecordImportRows(kind, outcome string, n int) {
	if s != nil && n > 0 {
		s.importRows.WithLabelValues(kind, outcome).Add(float64(n))
	}
}

// RecordExport counts one export download.
func (s *MetricsService) RecordExport(format string) {
	if s != nil {
		s.exportsTotal.WithLabelValues(format).Inc()
	}
}
