package seed

import (
	"testing"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestReference_Counts(t *testing.T) {
	ds := Reference()

	assert.Len(t, ds.Users, 10)
	assert.Len(t, ds.Categories, 10)
	assert.Len(t, ds.Brands, 10)
	assert.Len(t, ds.Products, 20)
	assert.Len(t, ds.Orders, 20)
	assert.Len(t, ds.OrderItems, 26)
	assert.Len(t, ds.Authors, 5)
	assert.Len(t, ds.Books, 7)
	assert.Len(t, ds.Customers, 5)
	assert.Len(t, ds.FeaturedProducts, 8)
	assert.Len(t, ds.UserPreferences, 5)
}

func TestReference_AveragePrice(t *testing.T) {
	ds := Reference()

	sum := decimal.Zero
	for _, p := range ds.Products {
		sum = sum.Add(p.Price)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(ds.Products))))

	assert.True(t, avg.Equal(decimal.RequireFromString("814.99")), "average = %s", avg)

	var above []int64
	for _, p := range ds.Products {
		if p.Price.GreaterThan(avg) {
			above = append(above, p.ID)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 11, 17, 18}, above)
}

func TestReference_OrdersIn2023(t *testing.T) {
	var n int
	for _, o := range Reference().Orders {
		if o.OrderDate.Year() == 2023 {
			n++
		}
	}
	assert.Equal(t, 5, n)
}

func TestReference_OrderSeven(t *testing.T) {
	ds := Reference()

	var items []catalog.OrderItem
	for _, item := range ds.OrderItems {
		if item.OrderID == 7 {
			items = append(items, item)
		}
	}
	require.Len(t, items, 4)

	order := ds.Orders[6]
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, "2024-02-14", order.OrderDate.Format("2006-01-02"))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("409.95")), "total = %s", order.TotalAmount)
}

func TestReference_TotalsConsistent(t *testing.T) {
	ds := Reference()

	subtotals := make(map[int64]decimal.Decimal)
	for _, item := range ds.OrderItems {
		want := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		assert.True(t, item.TotalPrice.Equal(want), "item %d total %s, want %s", item.ID, item.TotalPrice, want)
		subtotals[item.OrderID] = subtotals[item.OrderID].Add(item.TotalPrice)
	}

	for _, o := range ds.Orders {
		want := subtotals[o.ID].Add(o.ShippingAmount).Sub(o.DiscountAmount)
		assert.True(t, o.TotalAmount.Equal(want), "order %d total %s, want %s", o.ID, o.TotalAmount, want)
		assert.False(t, o.TotalAmount.IsNegative(), "order %d", o.ID)
	}
}

func TestReference_OrderCustomers(t *testing.T) {
	ds := Reference()

	ordered := make(map[int64]bool)
	for _, o := range ds.Orders {
		ordered[o.CustomerID] = true
		assert.LessOrEqual(t, o.CustomerID, int64(len(ds.Users)))
	}
	assert.False(t, ordered[10], "user 10 has no orders")
	assert.Len(t, ordered, 9)
}

func TestReference_CategoryParentsComeFirst(t *testing.T) {
	seen := make(map[int64]bool)
	for _, c := range Reference().Categories {
		if c.ParentID != nil {
			assert.True(t, seen[*c.ParentID], "category %d parent %d not loaded yet", c.ID, *c.ParentID)
			assert.NotEqual(t, c.ID, *c.ParentID)
		}
		seen[c.ID] = true
	}
}

func TestReference_FeaturedWindows(t *testing.T) {
	for _, f := range Reference().FeaturedProducts {
		assert.False(t, f.EndDate.Before(f.StartDate), "window %d", f.ID)
	}
}

func TestReference_RowsValidate(t *testing.T) {
	ds := Reference()

	check := func(rows ...any) {
		t.Helper()
		for _, row := range rows {
			assert.NoError(t, catalog.Validate(row))
		}
	}
	for _, r := range ds.Users {
		check(r)
	}
	for _, r := range ds.Categories {
		check(r)
	}
	for _, r := range ds.Brands {
		check(r)
	}
	for _, r := range ds.Products {
		check(r)
	}
	for _, r := range ds.Orders {
		check(r)
	}
	for _, r := range ds.OrderItems {
		check(r)
	}
	for _, r := range ds.Books {
		check(r)
	}
	for _, r := range ds.Customers {
		check(r)
	}
	for _, r := range ds.FeaturedProducts {
		check(r)
	}
	for _, r := range ds.UserPreferences {
		check(r)
	}
}

func TestReference_SoftDeletedUser(t *testing.T) {
	users := Reference().Users

	var deleted []int64
	for _, u := range users {
		if u.IsDeleted {
			deleted = append(deleted, u.ID)
			assert.NotNil(t, u.DeletedAt)
		}
	}
	assert.Equal(t, []int64{10}, deleted)
}

func TestHashPasswords(t *testing.T) {
	users := Reference().Users[:2]

	hashed, err := hashPasswords(users, Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	require.Len(t, hashed, 2)

	for i := range users {
		assert.NotEqual(t, users[i].Password, hashed[i].Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed[i].Password), []byte(users[i].Password)))
	}
	assert.Equal(t, "john-secret-1", users[0].Password, "input is not modified")
}
