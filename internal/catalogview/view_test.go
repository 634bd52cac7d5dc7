package catalogview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductCatalog/internal/catalog"
)

type result struct {
	products []catalog.Product
	err      error
}

// pendingCall is one blocked Operations call waiting for the test to answer.
type pendingCall struct {
	op       string
	query    string
	filter   catalog.SearchFilter
	minPrice float64
	reply    chan result
}

func (c *pendingCall) succeed(products ...catalog.Product) {
	c.reply <- result{products: products}
}

func (c *pendingCall) fail(err error) {
	c.reply <- result{err: err}
}

// gatedOps hands every call to the test through calls and blocks until the
// test replies.
type gatedOps struct {
	calls chan *pendingCall
}

func newGatedOps() *gatedOps {
	return &gatedOps{calls: make(chan *pendingCall, 16)}
}

func (g *gatedOps) wait(c *pendingCall) ([]catalog.Product, error) {
	c.reply = make(chan result, 1)
	g.calls <- c
	r := <-c.reply
	return r.products, r.err
}

func (g *gatedOps) Products(context.Context) ([]catalog.Product, error) {
	return g.wait(&pendingCall{op: "products"})
}

func (g *gatedOps) SearchProducts(_ context.Context, q string, f catalog.SearchFilter) ([]catalog.Product, error) {
	return g.wait(&pendingCall{op: "search", query: q, filter: f})
}

func (g *gatedOps) ExpensiveProductsAbove(_ context.Context, minPrice float64) ([]catalog.Product, error) {
	return g.wait(&pendingCall{op: "expensive", minPrice: minPrice})
}

func (g *gatedOps) ProductsInStock(context.Context) ([]catalog.Product, error) {
	return g.wait(&pendingCall{op: "in_stock"})
}

func (g *gatedOps) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no call reached the operations")
		return nil
	}
}

func product(id int64, name string) catalog.Product {
	return catalog.Product{ID: id, Name: name}
}

func TestView_InitialState(t *testing.T) {
	v := New(newGatedOps())

	s := v.State()
	assert.Equal(t, []catalog.Product{}, s.Products)
	assert.False(t, s.Loading)
	assert.False(t, s.HasError())
}

func TestView_LoadSuccess(t *testing.T) {
	ops := newGatedOps()
	v := New(ops)
	ctx := context.Background()

	v.Init(ctx)
	assert.True(t, v.State().Loading)

	call := ops.next(t)
	require.Equal(t, "products", call.op)
	call.succeed(product(1, "Gaming Laptop"), product(2, "Wireless Mouse"))
	v.Wait()

	s := v.State()
	assert.False(t, s.Loading)
	assert.False(t, s.HasError())
	assert.Equal(t, []catalog.Product{product(1, "Gaming Laptop"), product(2, "Wireless Mouse")}, s.Products)
}

func TestView_FailedLoadKeepsListAndNextSuccessRecovers(t *testing.T) {
	ops := newGatedOps()
	v := New(ops)
	ctx := context.Background()

	v.Load(ctx)
	ops.next(t).succeed(product(1, "A"))
	v.Wait()

	v.Load(ctx)
	ops.next(t).fail(errors.New("catalog unavailable"))
	v.Wait()

	s := v.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "catalog unavailable", s.Error)
	assert.Equal(t, []catalog.Product{product(1, "A")}, s.Products)

	v.Load(ctx)
	s = v.State()
	assert.True(t, s.Loading)
	assert.False(t, s.HasError(), "starting a load clears the error")

	ops.next(t).succeed(product(2, "B"))
	v.Wait()

	s = v.State()
	assert.False(t, s.Loading)
	assert.False(t, s.HasError())
	assert.Equal(t, []catalog.Product{product(2, "B")}, s.Products)
}

func TestView_SearchSendsInputAsTypedWithNoFilter(t *testing.T) {
	ops := newGatedOps()
	v := New(ops)

	v.Search(context.Background(), "  laptop \t")
	call := ops.next(t)
	assert.Equal(t, "search", call.op)
	assert.Equal(t, "  laptop \t", call.query, "only the blank check trims")
	assert.True(t, call.filter.IsZero())

	call.succeed(product(1, "Gaming Laptop"))
	v.Wait()
	assert.Equal(t, []catalog.Product{product(1, "Gaming Laptop")}, v.State().Products)
}

func TestView_BlankSearchReloads(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		ops := newGatedOps()
		v := New(ops)

		v.Search(context.Background(), input)
		assert.True(t, v.State().Loading, "input %q", input)

		call := ops.next(t)
		assert.Equal(t, "products", call.op, "input %q", input)
		call.succeed()
		v.Wait()
	}
}

func TestView_SearchLeavesLoadingAlone(t *testing.T) {
	ops := newGatedOps()
	v := New(ops)
	ctx := context.Background()

	v.Search(ctx, "mouse")
	assert.False(t, v.State().Loading, "search does not raise loading")

	ops.next(t).fail(errors.New("boom"))
	v.Wait()

	s := v.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "boom", s.Error)

	// a search failing during a load leaves the load's flag raised
	v.Load(ctx)
	load := ops.next(t)
	v.Search(ctx, "desk")
	ops.next(t).fail(errors.New("search down"))

	require.Eventually(t, func() bool { return v.State().Error == "search down" }, time.Second, 5*time.Millisecond)
	assert.True(t, v.State().Loading)

	load.succeed(product(5, "Standing Desk"))
	v.Wait()
	assert.False(t, v.State().Loading)
}

func TestView_StaleSearchOverwritesNewer(t *testing.T) {
	ops := newGatedOps()
	v := New(ops)
	ctx := context.Background()

	v.Search(ctx, "lap")
	v.Search(ctx, "laptop")

	pending := map[string]*pendingCall{}
	for range 2 {
		c := ops.next(t)
		pending[c.query] = c
	}
	require.Contains(t, pending, "lap")
	require.Contains(t, pending, "laptop")

	pending["laptop"].succeed(product(1, "Gaming Laptop"))
	require.Eventually(t, func() bool { return len(v.State().Products) == 1 }, time.Second, 5*time.Millisecond)

	pending["lap"].succeed(product(1, "Gaming Laptop"), product(9, "Laptop Stand"))
	v.Wait()

	assert.Equal(t, []catalog.Product{product(1, "Gaming Laptop"), product(9, "Laptop Stand")}, v.State().Products,
		"the older search finished last and wins")
}

func TestView_ShowExpensiveAndInStock(t *testing.T) {
	ops := newGatedOps()
	v := New(ops)
	ctx := context.Background()

	v.ShowExpensive(ctx)
	call := ops.next(t)
	assert.Equal(t, "expensive", call.op)
	assert.Equal(t, float64(ExpensiveThreshold), call.minPrice)
	call.succeed(product(1, "Gaming Laptop"))
	v.Wait()
	assert.Equal(t, []catalog.Product{product(1, "Gaming Laptop")}, v.State().Products)

	v.ShowInStock(ctx)
	call = ops.next(t)
	assert.Equal(t, "in_stock", call.op)
	call.fail(errors.New("nope"))
	v.Wait()

	s := v.State()
	assert.Equal(t, "nope", s.Error)
	assert.Equal(t, []catalog.Product{product(1, "Gaming Laptop")}, s.Products)
}

func TestView_OnChangeSeesEveryTransition(t *testing.T) {
	ops := newGatedOps()

	var (
		mu   sync.Mutex
		seen []State
	)
	v := New(ops, WithOnChange(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	v.Load(context.Background())
	ops.next(t).succeed(product(1, "A"))
	v.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.Empty(t, seen[0].Products)
	assert.False(t, seen[1].Loading)
	assert.Equal(t, []catalog.Product{product(1, "A")}, seen[1].Products)
}

func TestView_OnChangeDeliversInStateOrder(t *testing.T) {
	ops := newGatedOps()

	holding := make(chan struct{})
	release := make(chan struct{})

	var (
		mu       sync.Mutex
		last     []catalog.Product
		heldOnce sync.Once
	)
	v := New(ops, WithOnChange(func(s State) {
		if len(s.Products) == 1 && s.Products[0].ID == 1 {
			heldOnce.Do(func() {
				close(holding)
				<-release
			})
		}
		mu.Lock()
		last = s.Products
		mu.Unlock()
	}))
	ctx := context.Background()

	v.Search(ctx, "first")
	v.Search(ctx, "second")

	pending := map[string]*pendingCall{}
	for range 2 {
		c := ops.next(t)
		pending[c.query] = c
	}

	pending["first"].succeed(product(1, "A"))
	select {
	case <-holding:
	case <-time.After(2 * time.Second):
		t.Fatal("observer never saw the first result")
	}

	pending["second"].succeed(product(2, "B"))
	assert.Never(t, func() bool {
		s := v.State()
		return len(s.Products) == 1 && s.Products[0].ID == 2
	}, 50*time.Millisecond, 5*time.Millisecond, "second result applied while the first was still being delivered")

	close(release)
	v.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, v.State().Products, last)
	assert.Equal(t, []catalog.Product{product(2, "B")}, last)
}

func TestView_StateIsACopy(t *testing.T) {
	ops := newGatedOps()
	v := New(ops)

	v.Load(context.Background())
	ops.next(t).succeed(product(1, "A"))
	v.Wait()

	s := v.State()
	s.Products[0].Name = "changed"
	assert.Equal(t, "A", v.State().Products[0].Name)
}

func TestView_AgainstService(t *testing.T) {
	svc := catalog.NewService(catalog.NewMemStore(catalog.NoLatency), nil)
	v := New(svc)
	ctx := context.Background()

	v.Init(ctx)
	v.Wait()
	assert.Len(t, v.State().Products, 8)

	v.Search(ctx, "LAPTOP")
	v.Wait()
	require.Len(t, v.State().Products, 1)
	assert.Equal(t, "Gaming Laptop", v.State().Products[0].Name)

	v.ShowExpensive(ctx)
	v.Wait()
	for _, p := range v.State().Products {
		assert.GreaterOrEqual(t, p.Price, float64(ExpensiveThreshold))
	}
}
