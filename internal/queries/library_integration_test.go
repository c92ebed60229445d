//go:build integration

package queries_test

import (
	"context"
	"testing"
	"time"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/internal/queries"
	"github.com/marshallshelly/pebble-catalog/internal/testdb"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var container *testdb.Container

func TestMain(m *testing.M) {
	testdb.Main(m, &container)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func productIDs(products []catalog.Product) []int64 {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

// The reference data is read-only for these tests, so they share one
// seeded database.
func TestReadQueries(t *testing.T) {
	db := container.Seeded(t)
	lib := queries.New(db.Builder)
	ctx := context.Background()

	t.Run("product stats", func(t *testing.T) {
		stats, err := lib.ProductStats(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(20), stats.ProductCount)
		assert.True(t, stats.AvgPrice.Equal(dec("814.99")), stats.AvgPrice.String())
		assert.True(t, stats.TotalPrice.Equal(dec("16299.80")), stats.TotalPrice.String())
		assert.True(t, stats.MinPrice.Equal(dec("49.99")))
		assert.True(t, stats.MaxPrice.Equal(dec("2719.99")))
	})

	t.Run("products above average", func(t *testing.T) {
		products, err := lib.ProductsAboveAverage(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{18, 1, 11, 4, 17, 2, 3}, productIDs(products))
	})

	t.Run("products above price", func(t *testing.T) {
		products, err := lib.ProductsAbovePrice(ctx, dec("1499.99"))
		require.NoError(t, err)
		assert.Equal(t, []int64{18, 1, 11}, productIDs(products), "bound is exclusive")
	})

	t.Run("products name like", func(t *testing.T) {
		products, err := lib.ProductsNameLike(ctx, "%Pro%")
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, productIDs(products))
	})

	t.Run("products by price", func(t *testing.T) {
		products, err := lib.ProductsByPrice(ctx)
		require.NoError(t, err)
		require.Len(t, products, 20)
		assert.Equal(t, int64(8), products[0].ID)
		assert.Equal(t, int64(18), products[19].ID)
	})

	t.Run("orders between", func(t *testing.T) {
		orders, err := lib.OrdersBetween(ctx,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)

		ids := make([]int64, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		assert.Equal(t, []int64{6, 7, 8, 9}, ids)
	})

	t.Run("count orders in year", func(t *testing.T) {
		n, err := lib.CountOrdersInYear(ctx, 2023)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		n, err = lib.CountOrdersInYear(ctx, 2022)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("order items", func(t *testing.T) {
		items, err := lib.OrderItems(ctx, 7)
		require.NoError(t, err)
		require.Len(t, items, 4)

		sum := decimal.Zero
		for _, item := range items {
			assert.True(t, item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
			sum = sum.Add(item.TotalPrice)
		}
		assert.True(t, sum.Equal(dec("419.96")), sum.String())
	})

	t.Run("category product stats", func(t *testing.T) {
		rows, err := lib.CategoryProductStats(ctx, 2)
		require.NoError(t, err)

		ids := make([]int64, len(rows))
		for i, r := range rows {
			ids[i] = r.CategoryID
			assert.GreaterOrEqual(t, r.ProductCount, int64(2))
		}
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 7, 10}, ids)
		assert.Equal(t, "Computers", rows[1].CategoryName)
		assert.Equal(t, int64(4), rows[1].ProductCount)
	})

	t.Run("monthly sales", func(t *testing.T) {
		rows, err := lib.MonthlySales(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, rows)

		assert.Equal(t, 2023, rows[0].Year)
		assert.Equal(t, 3, rows[0].Month)
		assert.True(t, rows[0].TotalSales.Equal(dec("949.99")))

		var march queries.MonthlySales
		for _, r := range rows {
			if r.Year == 2024 && r.Month == 3 {
				march = r
			}
		}
		assert.Equal(t, int64(2), march.OrderCount)
		assert.True(t, march.TotalSales.Equal(dec("1309.97")), march.TotalSales.String())
	})

	t.Run("yearly sales rollup", func(t *testing.T) {
		rows, err := lib.YearlySalesRollup(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 9)

		subtotal := rows[3]
		require.NotNil(t, subtotal.Year)
		assert.Equal(t, 2023, *subtotal.Year)
		assert.Nil(t, subtotal.PaymentMethod)
		assert.Equal(t, int64(5), subtotal.OrderCount)
		assert.True(t, subtotal.TotalSales.Equal(dec("3499.91")), subtotal.TotalSales.String())

		grand := rows[len(rows)-1]
		assert.Nil(t, grand.Year)
		assert.Nil(t, grand.PaymentMethod)
		assert.Equal(t, int64(20), grand.OrderCount)
	})

	t.Run("orders with users", func(t *testing.T) {
		rows, err := lib.OrdersWithUsers(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 20)
		assert.Equal(t, int64(7), rows[6].OrderID)
		assert.Equal(t, int64(2), rows[6].UserID)
		assert.True(t, rows[6].TotalAmount.Equal(dec("409.95")))
	})

	t.Run("product catalog", func(t *testing.T) {
		rows, err := lib.ProductCatalog(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 20)
		require.NotNil(t, rows[0].CategoryName)
		require.NotNil(t, rows[0].BrandName)
		assert.Equal(t, "Computers", *rows[0].CategoryName)
		assert.Equal(t, "Apple", *rows[0].BrandName)
	})

	t.Run("user order totals", func(t *testing.T) {
		rows, err := lib.UserOrderTotals(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 10)

		assert.Equal(t, int64(10), rows[9].UserID)
		assert.Zero(t, rows[9].OrderCount)
		assert.True(t, rows[9].TotalSpent.IsZero())
		assert.Equal(t, int64(3), rows[1].OrderCount)
	})

	t.Run("books with authors", func(t *testing.T) {
		rows, err := lib.BooksWithAuthors(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 7)

		require.NotNil(t, rows[0].AuthorName)
		assert.Equal(t, "George Orwell", *rows[0].AuthorName)

		orphan := rows[6]
		assert.Nil(t, orphan.AuthorName)
		assert.Nil(t, orphan.PublishedYear)
		assert.False(t, orphan.Price.Valid)
	})

	t.Run("featured active on", func(t *testing.T) {
		rows, err := lib.FeaturedActiveOn(ctx, time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		ids := make([]int64, len(rows))
		for i, r := range rows {
			ids[i] = r.ProductID
		}
		assert.Equal(t, []int64{14, 10, 19}, ids)

		rows, err = lib.FeaturedActiveOn(ctx, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Len(t, rows, 2, "end date is inclusive")
	})

	t.Run("users who ordered", func(t *testing.T) {
		users, err := lib.UsersWhoOrdered(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 9)
	})

	t.Run("users without orders", func(t *testing.T) {
		users, err := lib.UsersWithoutOrders(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, int64(10), users[0].ID)
	})

	t.Run("top product per category", func(t *testing.T) {
		products, err := lib.TopProductPerCategory(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{11, 1, 2, 5, 16, 19, 18, 10, 14}, productIDs(products))
	})

	t.Run("customers by membership", func(t *testing.T) {
		customers, err := lib.CustomersByMembership(ctx, catalog.MembershipPremium)
		require.NoError(t, err)
		require.Len(t, customers, 2)
		assert.Equal(t, int64(1), customers[0].ID)
		assert.Equal(t, int64(5), customers[1].ID)
	})

	t.Run("run by name", func(t *testing.T) {
		got, err := lib.Run(ctx, "count-orders-in-year", queries.Params{"year": "2024"})
		require.NoError(t, err)
		assert.Equal(t, int64(15), got)

		for _, def := range queries.Definitions() {
			if def.Mutates {
				continue
			}
			_, err := def.Run(ctx, lib, nil)
			assert.NoError(t, err, def.Name)
		}
	})

	t.Run("snapshot is stable", func(t *testing.T) {
		first, err := lib.Snapshot(ctx)
		require.NoError(t, err)
		second, err := lib.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
		assert.Contains(t, string(first), `"count-orders-in-year": 5`)
	})
}

func TestRaisePrices(t *testing.T) {
	db := container.Seeded(t)
	lib := queries.New(db.Builder)
	ctx := context.Background()

	n, err := lib.RaisePrices(ctx, dec("1.1"), ptr(int64(3)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	products, err := lib.ProductsNameLike(ctx, "%Galaxy S24%")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.Equal(dec("989.99")), products[0].Price.String())

	n, err = lib.RaisePrices(ctx, dec("1"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)

	_, err = lib.RaisePrices(ctx, dec("0"), nil)
	var verr *runtime.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestUpdateProduct(t *testing.T) {
	db := container.Seeded(t)
	lib := queries.New(db.Builder)
	ctx := context.Background()

	require.NoError(t, lib.UpdateProductStock(ctx, 1, 3))
	require.NoError(t, lib.UpdateProductPrice(ctx, 1, dec("2299.99")))

	products, err := lib.ProductsNameLike(ctx, "MacBook%")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 3, products[0].Stock)
	assert.True(t, products[0].Price.Equal(dec("2299.99")))

	err = lib.UpdateProductStock(ctx, 999, 1)
	assert.True(t, errors.Is(err, runtime.ErrNotFound))

	err = lib.UpdateProductPrice(ctx, 999, dec("1"))
	assert.True(t, errors.Is(err, runtime.ErrNotFound))

	_, err = lib.Run(ctx, "update-product-stock", queries.Params{"id": "2", "stock": "-1"})
	var verr *runtime.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func ptr[T any](v T) *T { return &v }
