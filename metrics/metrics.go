// Package metrics exposes Prometheus counters for document processing and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "analyzer"

// Recorder owns a private registry so tests and multiple servers never collide on the
// global one.
type Recorder struct {
	registry     *prometheus.Registry
	files        *prometheus.CounterVec
	transactions prometheus.Counter
	batch        prometheus.Histogram
	requests     *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Documents processed, by result.",
		}, []string{"result"}),
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_parsed_total",
			Help:      "Transactions extracted from processed documents.",
		}),
		batch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent processing a batch of documents.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
	}
	r.registry.MustRegister(r.files, r.transactions, r.batch, r.requests)
	return r
}

// ObserveBatch records a committed batch. It matches analyzer.WithBatchObserver.
func (r *Recorder) ObserveBatch(res analyzer.BatchResult) {
	r.files.WithLabelValues("ok").Add(float64(len(res.Statements) - res.Failed))
	r.files.WithLabelValues("failed").Add(float64(res.Failed))
	if res.Skipped > 0 {
		r.files.WithLabelValues("skipped").Add(float64(res.Skipped))
	}
	r.transactions.Add(float64(res.Transactions))
	r.batch.Observe(res.Duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Instrument counts requests handled by next under the given route label.
func (r *Recorder) Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, req)
		r.requests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
