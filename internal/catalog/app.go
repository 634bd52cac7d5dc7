package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

const metricsPath = "/metrics"

// operationalPaths are served on every catalog but kept out of the request
// metrics.
var operationalPaths = []string{"/healthz", "/readyz", metricsPath}

type HTTPDeps struct {
	Log     *zap.Logger
	Service string
	// StoreDriver names the Store realization behind the handler. It becomes
	// a constant label on the request metrics.
	StoreDriver string
	Registry    *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

// NewHandler wraps the catalog routes in the shared middleware stack and,
// given a registry, request metrics.
func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Mount("/", s.Routes())
	return r
}

func setupMiddleware(r chi.Router, deps HTTPDeps) {
	r.Use(
		chimw.RequestID,
		kit.Recoverer,
		kit.Logging(deps.Log),
		chimw.GetHead,
	)
}

func setupMetrics(r chi.Router, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	labels := prometheus.Labels{}
	if deps.Service != "" {
		labels["service"] = deps.Service
	}
	if deps.StoreDriver != "" {
		labels["store"] = deps.StoreDriver
	}

	m := kit.NewHTTPMetrics(deps.Registry, kit.HTTPMetricsOpts{
		Namespace:   "catalog",
		ConstLabels: labels,
		SkipPaths:   operationalPaths,
	})
	r.Use(m.Middleware(kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}
	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle(metricsPath, promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
