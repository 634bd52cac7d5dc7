package catalog

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// WriteLimiter throttles POST, PUT and DELETE when set.
	WriteLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", s.list)
		pr.Get("/search", s.search)
		pr.Get("/{id}", s.get)

		pr.Group(func(wr chi.Router) {
			if s.WriteLimiter != nil {
				wr.Use(s.WriteLimiter.Middleware)
			}
			wr.Post("/", s.create)
			wr.Put("/{id}", s.update)
			wr.Delete("/{id}", s.delete)
		})
	})

	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// list serves the plain listing and the two single-filter shortcuts
// (?category=, ?inStock=true). Any other combination goes through Search
// with an empty query.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad query", map[string]any{"cause": err.Error()})
		return
	}

	var products []Product
	switch {
	case f.IsZero():
		products, err = s.Store.List(r.Context())
	case f.Category != nil && f.MinPrice == nil && f.MaxPrice == nil && f.InStock == nil:
		products, err = s.Store.ListByCategory(r.Context(), *f.Category)
	case f.InStock != nil && *f.InStock && f.Category == nil && f.MinPrice == nil && f.MaxPrice == nil:
		products, err = s.Store.ListInStock(r.Context())
	default:
		products, err = s.Store.Search(r.Context(), "", f)
	}
	if err != nil {
		s.writeStoreError(w, r, "list products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad query", map[string]any{"cause": err.Error()})
		return
	}

	products, err := s.Store.Search(r.Context(), r.URL.Query().Get("q"), f)
	if err != nil {
		s.writeStoreError(w, r, "search products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get product failed", err, zap.Int64("id", id))
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var np NewProduct
	if err := kit.DecodeJSON(w, r, &np); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := s.Store.Create(r.Context(), np)
	if err != nil {
		s.writeStoreError(w, r, "create product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var patch ProductPatch
	if err := kit.DecodeJSON(w, r, &patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, found, err := s.Store.Update(r.Context(), id, patch)
	if err != nil {
		s.writeStoreError(w, r, "update product failed", err, zap.Int64("id", id))
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	removed, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "delete product failed", err, zap.Int64("id", id))
		return
	}
	if !removed {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	s.logger().Error(msg, append(fields, zap.Error(err))...)

	switch {
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrBadStatus):
		kit.WriteError(w, r, http.StatusBadGateway, "upstream error", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func parseFilter(r *http.Request) (SearchFilter, error) {
	q := r.URL.Query()
	var f SearchFilter

	if q.Has("category") {
		f = f.WithCategory(q.Get("category"))
	}
	if q.Has("minPrice") {
		v, err := parsePrice(q.Get("minPrice"))
		if err != nil {
			return SearchFilter{}, errors.New("minPrice must be a finite number")
		}
		f = f.WithMinPrice(v)
	}
	if q.Has("maxPrice") {
		v, err := parsePrice(q.Get("maxPrice"))
		if err != nil {
			return SearchFilter{}, errors.New("maxPrice must be a finite number")
		}
		f = f.WithMaxPrice(v)
	}
	if q.Has("inStock") {
		v, err := strconv.ParseBool(q.Get("inStock"))
		if err != nil {
			return SearchFilter{}, errors.New("inStock must be true or false")
		}
		f = f.WithInStock(v)
	}
	return f, nil
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func parsePrice(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not finite")
	}
	return v, nil
}
