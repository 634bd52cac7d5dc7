package kit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelMethod = "method"
	labelPath   = "path"
	labelStatus = "status"

	defaultStatusCode = http.StatusOK
)

var latencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// HTTPMetricsOpts shapes the collectors of one service. ConstLabels carry
// what is fixed for the process, such as the service name and the store
// driver behind it.
type HTTPMetricsOpts struct {
	Namespace   string
	ConstLabels prometheus.Labels

	// SkipPaths are request paths that are served but not recorded.
	SkipPaths []string
}

type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	skip     map[string]struct{}
}

func NewHTTPMetrics(reg prometheus.Registerer, opts HTTPMetricsOpts) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   opts.Namespace,
				Name:        "http_requests_total",
				Help:        "HTTP requests by route and status.",
				ConstLabels: opts.ConstLabels,
			},
			[]string{labelMethod, labelPath, labelStatus},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   opts.Namespace,
				Name:        "http_request_duration_seconds",
				Help:        "HTTP latency by route.",
				ConstLabels: opts.ConstLabels,
				Buckets:     latencyBuckets,
			},
			[]string{labelMethod, labelPath},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Requests currently being served.",
			ConstLabels: opts.ConstLabels,
		}),
		skip: make(map[string]struct{}, len(opts.SkipPaths)),
	}
	for _, p := range opts.SkipPaths {
		m.skip[p] = struct{}{}
	}

	reg.MustRegister(m.requests, m.latency, m.inFlight)
	return m
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Middleware labels by pathLabel, which must be evaluated after routing so
// that route patterns are available.
func (m *HTTPMetrics) Middleware(pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := m.skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			m.inFlight.Inc()
			defer m.inFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: defaultStatusCode}
			start := time.Now()
			next.ServeHTTP(sw, r)

			path := pathLabel(r)
			m.latency.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			m.requests.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		})
	}
}
