package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests, labeled by method and status code.",
		},
		[]string{"method", "status"},
	)

	httpRequestDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"method"},
	)

	jobsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_created_total",
			Help: "Total number of jobs created.",
		},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_callbacks_total",
			Help: "Total workflow callbacks processed, labeled by result.",
		},
		[]string{"result"}, // 'applied', 'duplicate', 'rejected'
	)

	leadsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_inserted_total",
			Help: "Total number of lead rows written by callbacks.",
		},
	)

	triggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_triggers_total",
			Help: "Total outbound workflow triggers, labeled by success.",
		},
		[]string{"success"},
	)
)

// MustRegister registers all collectors with the default registry exactly once.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDurationMs,
			jobsCreatedTotal,
			callbacksTotal,
			leadsInsertedTotal,
			triggersTotal,
		)
	})
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncJobCreated() { jobsCreatedTotal.Inc() }

func IncCallback(result string) { callbacksTotal.WithLabelValues(result).Inc() }

func AddLeadsInserted(n int) { leadsInsertedTotal.Add(float64(n)) }

func IncTrigger(success bool) {
	triggersTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency for every route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDurationMs.WithLabelValues(r.Method).
			Observe(float64(time.Since(start).Milliseconds()))
	})
}
