package store

import (
	"context"
	"slices"
	"testing"

	perrors "github.com/abgdnv/product-catalog/internal/product/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func ids(products []Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func assertPrice(t *testing.T, expected string, actual *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, actual, "price should be present")
	assert.True(t, decimal.RequireFromString(expected).Equal(*actual), "expected price %s, got %s", expected, actual)
}

// testProductStoreContract runs the behaviour every ProductStore implementation shares.
// newStore must return an empty store.
func testProductStoreContract(t *testing.T, newStore func(t *testing.T) ProductStore) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		s := newStore(t)
		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
		require.NoError(t, s.Ping(ctx))
	})

	t.Run("insert and find by id", func(t *testing.T) {
		// given
		s := newStore(t)
		err := s.Insert(ctx, []Product{
			{ID: 1, Name: ptr("Keyboard"), Description: ptr("Mechanical"), Price: price("49.99"), Quantity: ptr(int32(10))},
			{ID: 2, Name: ptr("Mouse")},
		})
		require.NoError(t, err)

		// when
		full, err := s.FindByID(ctx, 1)
		require.NoError(t, err)
		sparse, err := s.FindByID(ctx, 2)
		require.NoError(t, err)

		// then
		assert.Equal(t, "Keyboard", *full.Name)
		assert.Equal(t, "Mechanical", *full.Description)
		assertPrice(t, "49.99", full.Price)
		assert.Equal(t, int32(10), *full.Quantity)
		assert.Equal(t, "Mouse", *sparse.Name)
		assert.Nil(t, sparse.Description)
		assert.Nil(t, sparse.Price)
		assert.Nil(t, sparse.Quantity)
	})

	t.Run("empty name is kept", func(t *testing.T) {
		// given
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, []Product{{ID: 1, Name: ptr(""), Price: price("1"), Quantity: ptr(int32(1))}}))

		// when
		p, err := s.FindByID(ctx, 1)

		// then
		require.NoError(t, err)
		require.NotNil(t, p.Name)
		assert.Equal(t, "", *p.Name)
	})

	t.Run("find by id not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindByID(ctx, 404)
		assert.ErrorIs(t, err, perrors.ErrProductNotFound)
	})

	t.Run("insert existing id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, []Product{{ID: 1, Name: ptr("first")}}))

		err := s.Insert(ctx, []Product{{ID: 1, Name: ptr("second")}})

		assert.ErrorIs(t, err, perrors.ErrProductExists)
		stored, err := s.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "first", *stored.Name)
	})

	t.Run("find by ids ignores unknown", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, []Product{{ID: 1}, {ID: 2}, {ID: 3}}))

		found, err := s.FindByIDs(ctx, []int64{3, 1, 99})

		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 3}, ids(found))
	})

	t.Run("upsert replaces and inserts", func(t *testing.T) {
		// given
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, []Product{
			{ID: 1, Name: ptr("old"), Description: ptr("gone after replace"), Price: price("1.50"), Quantity: ptr(int32(1))},
		}))

		// when
		err := s.Upsert(ctx, []Product{
			{ID: 1, Name: ptr("new"), Price: price("2.25"), Quantity: ptr(int32(7))},
			{ID: 2, Name: ptr("added")},
		})

		// then
		require.NoError(t, err)
		replaced, err := s.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "new", *replaced.Name)
		assert.Nil(t, replaced.Description)
		assertPrice(t, "2.25", replaced.Price)
		assert.Equal(t, int32(7), *replaced.Quantity)
		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids(all))
	})

	t.Run("delete by id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, []Product{{ID: 1}, {ID: 2}}))

		require.NoError(t, s.DeleteByID(ctx, 1))
		assert.ErrorIs(t, s.DeleteByID(ctx, 1), perrors.ErrProductNotFound)

		_, err := s.FindByID(ctx, 1)
		assert.ErrorIs(t, err, perrors.ErrProductNotFound)
		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, ids(all))
	})

	t.Run("sorted by price", func(t *testing.T) {
		// given
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, []Product{
			{ID: 1, Price: price("10")},
			{ID: 2, Price: price("2.5")},
			{ID: 3},
			{ID: 4, Price: price("10.00")},
			{ID: 5, Price: price("100")},
		}))

		// when
		asc, err := s.FindAllSortedByPrice(ctx, Ascending)
		require.NoError(t, err)
		desc, err := s.FindAllSortedByPrice(ctx, Descending)
		require.NoError(t, err)

		// then
		assert.Equal(t, []int64{3, 2, 1, 4, 5}, ids(asc))
		assert.Equal(t, []int64{5, 4, 1, 2, 3}, ids(desc))
		reversed := ids(asc)
		slices.Reverse(reversed)
		assert.Equal(t, reversed, ids(desc), "descending must be ascending reversed")
	})
}
