package catalog

import (
	"context"

	"go.uber.org/zap"
)

// DefaultExpensiveThreshold is the price floor ExpensiveProducts uses.
const DefaultExpensiveThreshold = 100

// Service holds the catalog use cases. It delegates to whichever Store it
// was built with and returns the store's errors as-is.
type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx)
}

func (s *Service) Product(ctx context.Context, id int64) (Product, bool, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	p, err := s.store.Create(ctx, np)
	if err != nil {
		s.log.Debug("create product failed", zap.Error(err))
		return Product{}, err
	}
	s.log.Debug("product created", zap.Int64("id", p.ID))
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, bool, error) {
	return s.store.Update(ctx, id, patch)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	return s.store.Delete(ctx, id)
}

func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.store.ListByCategory(ctx, category)
}

func (s *Service) ProductsInStock(ctx context.Context) ([]Product, error) {
	return s.store.ListInStock(ctx)
}

func (s *Service) SearchProducts(ctx context.Context, query string, f SearchFilter) ([]Product, error) {
	return s.store.Search(ctx, query, f)
}

func (s *Service) ExpensiveProducts(ctx context.Context) ([]Product, error) {
	return s.ExpensiveProductsAbove(ctx, DefaultExpensiveThreshold)
}

// ExpensiveProductsAbove filters the full listing on the client side; the
// store has no notion of "expensive".
func (s *Service) ExpensiveProductsAbove(ctx context.Context, minPrice float64) ([]Product, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterProducts(all, func(p Product) bool { return p.Price >= minPrice }), nil
}

// ProductsByPriceRange reuses Search with an empty query, which matches
// every record before the price bounds apply.
func (s *Service) ProductsByPriceRange(ctx context.Context, minPrice, maxPrice float64) ([]Product, error) {
	return s.store.Search(ctx, "", SearchFilter{}.WithMinPrice(minPrice).WithMaxPrice(maxPrice))
}
