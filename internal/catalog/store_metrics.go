package catalog

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

type storeMetrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// InstrumentedStore records call counts and latency for every operation of
// the wrapped Store.
type InstrumentedStore struct {
	next Store
	m    storeMetrics
}

func NewInstrumentedStore(next Store, reg prometheus.Registerer) *InstrumentedStore {
	m := storeMetrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_operations_total",
				Help: "Catalog store operations by result",
			},
			[]string{"op", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "catalog_store_operation_duration_seconds",
				Help: "Catalog store operation latency",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.ops, m.latency)

	return &InstrumentedStore{next: next, m: m}
}

func (s *InstrumentedStore) observe(op string, start time.Time, found bool, err error) {
	s.m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	result := resultOK
	switch {
	case err != nil:
		result = resultError
	case !found:
		result = resultNotFound
	}
	s.m.ops.WithLabelValues(op, result).Inc()
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *InstrumentedStore) List(ctx context.Context) ([]Product, error) {
	start := time.Now()
	out, err := s.next.List(ctx)
	s.observe("list", start, true, err)
	return out, err
}

func (s *InstrumentedStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	start := time.Now()
	p, ok, err := s.next.Get(ctx, id)
	s.observe("get", start, ok, err)
	return p, ok, err
}

func (s *InstrumentedStore) Create(ctx context.Context, np NewProduct) (Product, error) {
	start := time.Now()
	p, err := s.next.Create(ctx, np)
	s.observe("create", start, true, err)
	return p, err
}

func (s *InstrumentedStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, bool, error) {
	start := time.Now()
	p, ok, err := s.next.Update(ctx, id, patch)
	s.observe("update", start, ok, err)
	return p, ok, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	ok, err := s.next.Delete(ctx, id)
	s.observe("delete", start, ok, err)
	return ok, err
}

func (s *InstrumentedStore) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	start := time.Now()
	out, err := s.next.ListByCategory(ctx, category)
	s.observe("list_by_category", start, true, err)
	return out, err
}

func (s *InstrumentedStore) ListInStock(ctx context.Context) ([]Product, error) {
	start := time.Now()
	out, err := s.next.ListInStock(ctx)
	s.observe("list_in_stock", start, true, err)
	return out, err
}

func (s *InstrumentedStore) Search(ctx context.Context, query string, f SearchFilter) ([]Product, error) {
	start := time.Now()
	out, err := s.next.Search(ctx, query, f)
	s.observe("search", start, true, err)
	return out, err
}
