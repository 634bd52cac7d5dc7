package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnavailable = errors.New("catalog unavailable")
	ErrBadStatus   = errors.New("catalog bad status")
)

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewProduct carries every Product field the caller controls. The store
// assigns ID and CreatedAt.
type NewProduct struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
}

// ProductPatch is a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	InStock     *bool    `json:"inStock,omitempty"`
}

func (np NewProduct) build(id int64, now time.Time) Product {
	return Product{
		ID:          id,
		Name:        np.Name,
		Price:       np.Price,
		Description: np.Description,
		Category:    np.Category,
		InStock:     np.InStock,
		CreatedAt:   now,
	}
}

func (pp ProductPatch) apply(p Product) Product {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.InStock != nil {
		p.InStock = *pp.InStock
	}
	return p
}

// Store is the catalog data-access contract. Not-found is reported through
// the boolean results and is never an error; errors mean the realization
// itself failed.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, bool, error)
	Create(ctx context.Context, np NewProduct) (Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (Product, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	ListByCategory(ctx context.Context, category string) ([]Product, error)
	ListInStock(ctx context.Context) ([]Product, error)
	Search(ctx context.Context, query string, f SearchFilter) ([]Product, error)

	Ping(ctx context.Context) error
}
