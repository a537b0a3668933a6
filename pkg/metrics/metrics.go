package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics prometheus metrics untuk run shortest path dan request http.
type Metrics struct {
	runCount           *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	relaxations        *prometheus.CounterVec
	pulls              prometheus.Counter
	httpDuration       *prometheus.HistogramVec
	durationSummary    prometheus.Summary
	responseStatusCode *prometheus.CounterVec
	totalRequests      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bmssp",
			Name:      "sssp_run_count",
			Help:      "The total number of single source shortest path runs",
		}, []string{"algorithm", "result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bmssp",
			Name:      "sssp_run_duration_seconds",
			Help:      "The duration of single source shortest path runs",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"algorithm"}),
		relaxations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bmssp",
			Name:      "sssp_edge_relaxations_total",
			Help:      "The total number of edge relaxations",
		}, []string{"algorithm"}),
		pulls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bmssp",
			Name:      "bmssp_pulls_total",
			Help:      "The total number of block pulls done by bmssp",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bmssp",
			Name:      "request_duration_seconds",
			Help:      "The duration of request",
			Buckets:   []float64{0.05, 0.1, 0.15, 0.2, 0.25, 0.3}, // 0.001 = 1ms
		}, []string{"method", "path"}),
		durationSummary: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  "bmssp",
			Name:       "request_duration_summary_seconds",
			Help:       "The duration of request",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		responseStatusCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bmssp",
				Name:      "response_status_code",
				Help:      "The status code of http response",
			}, []string{"status", "method", "path"},
		),
		totalRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bmssp",
				Name:      "total_requests",
				Help:      "The total number of requests",
			}, []string{"path", "method", "status"},
		),
	}
	reg.MustRegister(m.runCount, m.runDuration, m.relaxations, m.pulls,
		m.httpDuration, m.durationSummary, m.responseStatusCode, m.totalRequests)
	return m
}

// ObserveRun implements routingalgorithm.RunObserver. aman dipanggil dari banyak goroutine.
func (m *Metrics) ObserveRun(alg routingalgorithm.Algorithm, stats routingalgorithm.Stats, err error) {
	m.runCount.WithLabelValues(string(alg), resultLabel(err)).Inc()
	m.runDuration.WithLabelValues(string(alg)).Observe(stats.Duration.Seconds())
	m.relaxations.WithLabelValues(string(alg)).Add(float64(stats.Relaxations))
	m.pulls.Add(float64(stats.Pulls))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, server.ErrCancelled):
		return "cancelled"
	case errors.Is(err, server.ErrAlgorithmInvariantViolation):
		return "invariant_violation"
	default:
		return "invalid_input"
	}
}

// Handler endpoint /metrics untuk registry yang sama.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func PromeHttpMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			rw := NewResponseWriter(w)
			timer := prometheus.NewTimer(m.httpDuration.With(prometheus.Labels{"method": r.Method, "path": path}))
			now := time.Now()

			next.ServeHTTP(rw, r)

			statusCode := rw.statusCode

			m.responseStatusCode.With(prometheus.Labels{"status": strconv.Itoa(statusCode), "method": r.Method, "path": path}).Inc()
			m.totalRequests.With(prometheus.Labels{"path": path, "method": r.Method, "status": strconv.Itoa(statusCode)}).Inc()
			timer.ObserveDuration()
			m.durationSummary.Observe(time.Since(now).Seconds())
		})
	}
}

// Relaxations counter relaksasi edge untuk satu algoritma.
func (m *Metrics) Relaxations(alg routingalgorithm.Algorithm) prometheus.Counter {
	return m.relaxations.WithLabelValues(string(alg))
}
