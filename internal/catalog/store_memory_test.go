package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(products []Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func strp(s string) *string { return &s }

func TestMemStore_CreateAssignsNextID(t *testing.T) {
	testCases := []struct {
		name   string
		seed   []Product
		wantID int64
	}{
		{name: "empty store starts at 1", seed: nil, wantID: 1},
		{name: "one past the max", seed: []Product{{ID: 3}, {ID: 9}, {ID: 4}}, wantID: 10},
		{name: "seed data", seed: SeedProducts(), wantID: int64(len(SeedProducts()) + 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewMemStoreWith(tc.seed, NoLatency)
			before := time.Now().UTC()

			p, err := s.Create(context.Background(), NewProduct{Name: "Desk Lamp", Price: 35, Category: "Furniture", InStock: true})
			require.NoError(t, err)

			assert.Equal(t, tc.wantID, p.ID)
			assert.Equal(t, "Desk Lamp", p.Name)
			assert.False(t, p.CreatedAt.Before(before))

			got, ok, err := s.Get(context.Background(), p.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, p, got)
		})
	}
}

func TestMemStore_CreateAfterDeletingMax(t *testing.T) {
	s := NewMemStoreWith([]Product{{ID: 1}, {ID: 2}}, NoLatency)
	ctx := context.Background()

	removed, err := s.Delete(ctx, 2)
	require.NoError(t, err)
	require.True(t, removed)

	p, err := s.Create(ctx, NewProduct{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
}

func TestMemStore_GetMissingIsNotAnError(t *testing.T) {
	s := NewMemStore(NoLatency)

	p, ok, err := s.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Product{}, p)
}

func TestMemStore_UpdateMergesGivenFields(t *testing.T) {
	s := NewMemStore(NoLatency)
	ctx := context.Background()

	orig, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	price := 999.0
	p, ok, err := s.Update(ctx, 1, ProductPatch{Price: &price})
	require.NoError(t, err)
	require.True(t, ok)

	want := orig
	want.Price = 999
	assert.Equal(t, want, p)

	got, _, _ := s.Get(ctx, 1)
	assert.Equal(t, want, got)
}

func TestMemStore_UpdateUnknownLeavesCollectionUnchanged(t *testing.T) {
	s := NewMemStore(NoLatency)
	ctx := context.Background()

	before, err := s.List(ctx)
	require.NoError(t, err)

	p, ok, err := s.Update(ctx, 999, ProductPatch{Name: strp("ghost")})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Product{}, p)

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMemStore_DeleteTwice(t *testing.T) {
	s := NewMemStore(NoLatency)
	ctx := context.Background()

	first, err := s.Delete(ctx, 3)
	require.NoError(t, err)
	second, err := s.Delete(ctx, 3)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)

	_, ok, err := s.Get(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemStore_SeedIsPrivate(t *testing.T) {
	seed := []Product{{ID: 1, Name: "Kettle"}}
	s := NewMemStoreWith(seed, NoLatency)

	seed[0].Name = "changed"

	p, _, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Kettle", p.Name)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	list[0].Name = "changed too"

	p, _, _ = s.Get(context.Background(), 1)
	assert.Equal(t, "Kettle", p.Name)
}

func TestMemStore_ListByCategoryAndInStock(t *testing.T) {
	s := NewMemStore(NoLatency)
	ctx := context.Background()

	kitchen, err := s.ListByCategory(ctx, "Kitchen")
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 8}, ids(kitchen))

	none, err := s.ListByCategory(ctx, "kitchen")
	require.NoError(t, err)
	assert.Empty(t, none)

	inStock, err := s.ListInStock(ctx)
	require.NoError(t, err)
	for _, p := range inStock {
		assert.True(t, p.InStock, "product %d", p.ID)
	}
	assert.Equal(t, []int64{1, 2, 4, 6, 7, 8}, ids(inStock))
}

func TestMemStore_SearchIsCaseInsensitive(t *testing.T) {
	s := NewMemStore(NoLatency)
	ctx := context.Background()

	for _, q := range []string{"LAPTOP", "laptop", "Laptop"} {
		got, err := s.Search(ctx, q, SearchFilter{})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids(got), "query %q", q)
	}
}

func TestMemStore_SearchMatchesDescription(t *testing.T) {
	s := NewMemStore(NoLatency)

	got, err := s.Search(context.Background(), "THERMAL", SearchFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, ids(got))
}

func TestMemStore_SearchFiltersAreConjunctive(t *testing.T) {
	s := NewMemStoreWith([]Product{
		{ID: 1, Name: "Smartphone Pro", Price: 899, Category: "Electronics", InStock: true},
		{ID: 2, Name: "Budget Phone", Price: 199, Category: "Electronics", InStock: true},
		{ID: 3, Name: "Phone Stand", Price: 650, Category: "Accessories", InStock: true},
		{ID: 4, Name: "Desk", Price: 700, Category: "Electronics", InStock: true},
		{ID: 5, Name: "Phone Max", Price: 1600, Category: "Electronics", InStock: false},
	}, NoLatency)
	ctx := context.Background()

	testCases := []struct {
		name   string
		filter SearchFilter
		want   []int64
	}{
		{name: "query only", filter: SearchFilter{}, want: []int64{1, 2, 3, 5}},
		{name: "category and min price", filter: SearchFilter{}.WithCategory("Electronics").WithMinPrice(500), want: []int64{1, 5}},
		{name: "plus max price", filter: SearchFilter{}.WithCategory("Electronics").WithMinPrice(500).WithMaxPrice(1500), want: []int64{1}},
		{name: "in stock false", filter: SearchFilter{}.WithInStock(false), want: []int64{5}},
		{name: "min price is inclusive", filter: SearchFilter{}.WithMinPrice(899).WithMaxPrice(899), want: []int64{1}},
		{name: "zero min price still applies", filter: SearchFilter{}.WithMinPrice(0), want: []int64{1, 2, 3, 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Search(ctx, "phone", tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestMemStore_EmptyQueryRangeEqualsFilteredList(t *testing.T) {
	s := NewMemStore(NoLatency)
	ctx := context.Background()

	got, err := s.Search(ctx, "", SearchFilter{}.WithMinPrice(500).WithMaxPrice(1500))
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	want := filterProducts(all, func(p Product) bool { return p.Price >= 500 && p.Price <= 1500 })

	assert.Equal(t, want, got)
	assert.Equal(t, []int64{1, 3, 5}, ids(got))
}

func TestMemStore_LatencyHonoursContext(t *testing.T) {
	s := NewMemStore(Latency{List: time.Minute, Create: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemStore_MutationLandsBeforeLatency(t *testing.T) {
	s := NewMemStoreWith(nil, Latency{Create: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, NewProduct{Name: "late"})
	require.ErrorIs(t, err, context.Canceled)

	p, ok, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "late", p.Name)
}

func TestMemStore_SimulatedLatency(t *testing.T) {
	s := NewMemStore(Latency{Get: 30 * time.Millisecond})

	start := time.Now()
	_, _, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
