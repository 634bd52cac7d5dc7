package catalog

import (
	"context"
	"sync"
	"time"
)

// Latency is the simulated round-trip per MemStore operation.
type Latency struct {
	List   time.Duration
	Get    time.Duration
	Create time.Duration
	Update time.Duration
	Delete time.Duration
	Filter time.Duration
	Search time.Duration
}

var (
	DefaultLatency = Latency{
		List:   500 * time.Millisecond,
		Get:    300 * time.Millisecond,
		Create: 400 * time.Millisecond,
		Update: 400 * time.Millisecond,
		Delete: 300 * time.Millisecond,
		Filter: 300 * time.Millisecond,
		Search: 400 * time.Millisecond,
	}
	NoLatency = Latency{}
)

// MemStore keeps products in insertion order. Mutations are applied before
// the simulated latency elapses, so a caller whose context is cancelled
// during the delay still leaves its write behind.
type MemStore struct {
	mu       sync.RWMutex
	products []Product
	latency  Latency
	now      func() time.Time
}

// NewMemStore returns a store seeded with SeedProducts.
func NewMemStore(latency Latency) *MemStore {
	return NewMemStoreWith(SeedProducts(), latency)
}

// NewMemStoreWith copies seed, so later changes to the caller's slice do not
// leak into the store.
func NewMemStoreWith(seed []Product, latency Latency) *MemStore {
	products := make([]Product, len(seed))
	copy(products, seed)
	return &MemStore{
		products: products,
		latency:  latency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	out := filterProducts(s.products, func(Product) bool { return true })
	s.mu.RUnlock()

	if err := sleep(ctx, s.latency.List); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.RLock()
	p, ok := s.find(id)
	s.mu.RUnlock()

	if err := sleep(ctx, s.latency.Get); err != nil {
		return Product{}, false, err
	}
	return p, ok, nil
}

func (s *MemStore) Create(ctx context.Context, np NewProduct) (Product, error) {
	s.mu.Lock()
	p := np.build(s.nextID(), s.now())
	s.products = append(s.products, p)
	s.mu.Unlock()

	if err := sleep(ctx, s.latency.Create); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *MemStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, bool, error) {
	s.mu.Lock()
	var (
		p  Product
		ok bool
	)
	if i := s.index(id); i >= 0 {
		s.products[i] = patch.apply(s.products[i])
		p, ok = s.products[i], true
	}
	s.mu.Unlock()

	if err := sleep(ctx, s.latency.Update); err != nil {
		return Product{}, false, err
	}
	return p, ok, nil
}

func (s *MemStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	i := s.index(id)
	if i >= 0 {
		s.products = append(s.products[:i], s.products[i+1:]...)
	}
	s.mu.Unlock()

	if err := sleep(ctx, s.latency.Delete); err != nil {
		return false, err
	}
	return i >= 0, nil
}

func (s *MemStore) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.filter(ctx, s.latency.Filter, func(p Product) bool { return p.Category == category })
}

func (s *MemStore) ListInStock(ctx context.Context) ([]Product, error) {
	return s.filter(ctx, s.latency.Filter, func(p Product) bool { return p.InStock })
}

func (s *MemStore) Search(ctx context.Context, query string, f SearchFilter) ([]Product, error) {
	return s.filter(ctx, s.latency.Search, func(p Product) bool {
		return matchesQuery(p, query) && f.Match(p)
	})
}

func (s *MemStore) filter(ctx context.Context, d time.Duration, keep func(Product) bool) ([]Product, error) {
	s.mu.RLock()
	out := filterProducts(s.products, keep)
	s.mu.RUnlock()

	if err := sleep(ctx, d); err != nil {
		return nil, err
	}
	return out, nil
}

// nextID is one more than the largest id held, or 1 for an empty store.
// Caller holds s.mu.
func (s *MemStore) nextID() int64 {
	var maxID int64
	for _, p := range s.products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}

func (s *MemStore) index(id int64) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemStore) find(id int64) (Product, bool) {
	if i := s.index(id); i >= 0 {
		return s.products[i], true
	}
	return Product{}, false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
