// Package catalogview holds the presentation state of a product list: the
// products shown, whether a full load is running, and the last error.
//
// Every fetch runs on its own goroutine and the caller never blocks. Fetches
// are neither cancelled nor sequenced, so when two searches overlap the one
// that finishes last wins even if it was started first.
package catalogview

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
)

// ExpensiveThreshold is the price floor used by ShowExpensive.
const ExpensiveThreshold = 200

// Operations is the part of catalog.Service the view calls.
type Operations interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	SearchProducts(ctx context.Context, query string, f catalog.SearchFilter) ([]catalog.Product, error)
	ExpensiveProductsAbove(ctx context.Context, minPrice float64) ([]catalog.Product, error)
	ProductsInStock(ctx context.Context) ([]catalog.Product, error)
}

// State is a snapshot of what the view presents. Error is empty when there
// is nothing to report.
type State struct {
	Products []catalog.Product
	Loading  bool
	Error    string
}

func (s State) HasError() bool { return s.Error != "" }

type Option func(*View)

// WithOnChange registers fn to receive a snapshot after every state change,
// in the order the changes happened. fn runs on the goroutine that made the
// change and must not call back into the view's mutating methods
// synchronously; State is safe to call.
func WithOnChange(fn func(State)) Option {
	return func(v *View) { v.onChange = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(v *View) { v.log = log }
}

type View struct {
	ops      Operations
	log      *zap.Logger
	onChange func(State)

	// notifyMu is taken before mu and held through onChange, so snapshots
	// reach the observer in the order the state changed.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    State

	wg sync.WaitGroup
}

func New(ops Operations, opts ...Option) *View {
	v := &View{
		ops:   ops,
		log:   zap.NewNop(),
		state: State{Products: []catalog.Product{}},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Init performs the first load.
func (v *View) Init(ctx context.Context) {
	v.Load(ctx)
}

// Load fetches the full listing. It raises Loading and clears Error right
// away; on completion Loading drops and either the list is replaced or
// Error is set with the previous list left in place.
func (v *View) Load(ctx context.Context) {
	v.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	v.spawn(func() {
		products, err := v.ops.Products(ctx)
		v.update(func(s *State) {
			s.Loading = false
			if err != nil {
				s.Error = err.Error()
				return
			}
			s.Products = products
		})
	})
}

// Search reacts to user input. Blank input reloads the full listing.
// Otherwise the input is searched as typed, surrounding spaces included, and
// without a filter; unlike Load it leaves Loading untouched both at start
// and on failure.
func (v *View) Search(ctx context.Context, input string) {
	if strings.TrimSpace(input) == "" {
		v.Load(ctx)
		return
	}

	v.fetch("search", func() ([]catalog.Product, error) {
		return v.ops.SearchProducts(ctx, input, catalog.SearchFilter{})
	})
}

// ShowExpensive lists products priced at ExpensiveThreshold or more.
func (v *View) ShowExpensive(ctx context.Context) {
	v.fetch("expensive", func() ([]catalog.Product, error) {
		return v.ops.ExpensiveProductsAbove(ctx, ExpensiveThreshold)
	})
}

func (v *View) ShowInStock(ctx context.Context) {
	v.fetch("in_stock", func() ([]catalog.Product, error) {
		return v.ops.ProductsInStock(ctx)
	})
}

// State returns a copy of the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

// Wait blocks until every fetch started so far has been applied.
func (v *View) Wait() {
	v.wg.Wait()
}

// fetch runs a list-replacing call that reports errors but does not drive
// the Loading flag.
func (v *View) fetch(name string, call func() ([]catalog.Product, error)) {
	v.spawn(func() {
		products, err := call()
		if err != nil {
			v.log.Debug("view fetch failed", zap.String("fetch", name), zap.Error(err))
		}
		v.update(func(s *State) {
			if err != nil {
				s.Error = err.Error()
				return
			}
			s.Products = products
		})
	})
}

func (v *View) spawn(fn func()) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		fn()
	}()
}

func (v *View) update(fn func(*State)) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	fn(&v.state)
	snap := v.snapshot()
	v.mu.Unlock()

	if v.onChange != nil {
		v.onChange(snap)
	}
}

// snapshot copies the state. Caller holds v.mu.
func (v *View) snapshot() State {
	s := v.state
	s.Products = append([]catalog.Product(nil), v.state.Products...)
	if s.Products == nil {
		s.Products = []catalog.Product{}
	}
	return s
}
