package catalog

import "strings"

// SearchFilter narrows a search. Nil fields impose no constraint; present
// fields are combined with AND.
type SearchFilter struct {
	Category *string
	MinPrice *float64
	MaxPrice *float64
	InStock  *bool
}

func (f SearchFilter) WithCategory(c string) SearchFilter {
	f.Category = &c
	return f
}

func (f SearchFilter) WithMinPrice(v float64) SearchFilter {
	f.MinPrice = &v
	return f
}

func (f SearchFilter) WithMaxPrice(v float64) SearchFilter {
	f.MaxPrice = &v
	return f
}

func (f SearchFilter) WithInStock(v bool) SearchFilter {
	f.InStock = &v
	return f
}

func (f SearchFilter) IsZero() bool {
	return f.Category == nil && f.MinPrice == nil && f.MaxPrice == nil && f.InStock == nil
}

func (f SearchFilter) Match(p Product) bool {
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	return true
}

// matchesQuery reports whether q occurs in the name or the description,
// ignoring case. An empty q matches everything.
func matchesQuery(p Product, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

func filterProducts(in []Product, keep func(Product) bool) []Product {
	out := make([]Product, 0, len(in))
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
