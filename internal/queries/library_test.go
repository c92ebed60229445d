package queries

import (
	"testing"
	"time"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLibrary returns a library with no connection, for SQL generation
// only.
func newTestLibrary(t *testing.T) *Library {
	t.Helper()

	reg, err := catalog.NewRegistry()
	require.NoError(t, err)

	return New(builder.New(nil, reg))
}

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func TestLibrary_SQL(t *testing.T) {
	l := newTestLibrary(t)
	day := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   sqlBuilder
		wantSQL string
		wantArg int
	}{
		{
			name:    "products above price",
			query:   l.productsAbovePrice(decimal.NewFromInt(500)),
			wantSQL: "SELECT * FROM products WHERE price > $1 ORDER BY price DESC, id ASC",
			wantArg: 1,
		},
		{
			name:    "products name like",
			query:   l.productsNameLike("%Pro%"),
			wantSQL: "SELECT * FROM products WHERE name LIKE $1 ORDER BY id ASC",
			wantArg: 1,
		},
		{
			name:    "orders between",
			query:   l.ordersBetween(day, day.Add(24*time.Hour)),
			wantSQL: "SELECT * FROM orders WHERE order_date BETWEEN $1 AND $2 ORDER BY order_date ASC, id ASC",
			wantArg: 2,
		},
		{
			name:    "products by price",
			query:   l.productsByPrice(),
			wantSQL: "SELECT * FROM products ORDER BY price ASC, id ASC",
		},
		{
			name:    "products by category and price",
			query:   l.productsByCategoryPrice(),
			wantSQL: "SELECT * FROM products ORDER BY category_id ASC NULLS LAST, price DESC, id ASC",
		},
		{
			name:    "orders in year",
			query:   l.ordersInYear(2023),
			wantSQL: "SELECT * FROM orders WHERE EXTRACT(YEAR FROM order_date)::int = $1",
			wantArg: 1,
		},
		{
			name:  "product stats",
			query: l.productStats(),
			wantSQL: "SELECT COUNT(*) AS product_count, COALESCE(ROUND(AVG(price), 6), 0) AS avg_price, " +
				"COALESCE(SUM(price), 0) AS total_price, COALESCE(MIN(price), 0) AS min_price, " +
				"COALESCE(MAX(price), 0) AS max_price FROM products",
		},
		{
			name:  "category product stats",
			query: l.categoryProductStats(2),
			wantSQL: "SELECT c.id AS category_id, c.name AS category_name, COUNT(p.id) AS product_count, " +
				"ROUND(AVG(p.price), 6) AS avg_price, MIN(p.price) AS min_price, MAX(p.price) AS max_price " +
				"FROM products p INNER JOIN categories c ON c.id = p.category_id " +
				"GROUP BY c.id, c.name HAVING COUNT(p.id) >= $1 ORDER BY c.id ASC",
			wantArg: 1,
		},
		{
			name:  "monthly sales",
			query: l.monthlySales(),
			wantSQL: "SELECT EXTRACT(YEAR FROM order_date)::int AS year, EXTRACT(MONTH FROM order_date)::int AS month, " +
				"COUNT(*) AS order_count, SUM(total_amount) AS total_sales FROM orders " +
				"GROUP BY EXTRACT(YEAR FROM order_date)::int, EXTRACT(MONTH FROM order_date)::int " +
				"ORDER BY year ASC, month ASC",
		},
		{
			name:  "yearly sales rollup",
			query: l.yearlySalesRollup(),
			wantSQL: "SELECT EXTRACT(YEAR FROM order_date)::int AS year, payment_method, COUNT(*) AS order_count, " +
				"SUM(total_amount) AS total_sales FROM orders " +
				"GROUP BY ROLLUP(EXTRACT(YEAR FROM order_date)::int, payment_method) " +
				"ORDER BY year ASC NULLS LAST, payment_method ASC NULLS LAST",
		},
		{
			name:  "orders with users",
			query: l.ordersWithUsers(),
			wantSQL: "SELECT o.id AS order_id, o.order_date, o.total_amount, o.order_status, u.id AS user_id, " +
				"u.name AS user_name, u.email FROM orders o INNER JOIN users u ON u.id = o.customer_id ORDER BY o.id ASC",
		},
		{
			name:  "product catalog",
			query: l.productCatalog(),
			wantSQL: "SELECT p.id AS product_id, p.name AS product_name, p.price, c.name AS category_name, " +
				"b.name AS brand_name FROM products p LEFT JOIN categories c ON c.id = p.category_id " +
				"LEFT JOIN brands b ON b.id = p.brand_id ORDER BY p.id ASC",
		},
		{
			name:    "products above average",
			query:   l.productsAboveAverage(),
			wantSQL: "SELECT * FROM products WHERE price > (SELECT AVG(price) FROM products) ORDER BY price DESC, id ASC",
		},
		{
			name:    "users who ordered",
			query:   l.usersWhoOrdered(),
			wantSQL: "SELECT * FROM users WHERE id IN (SELECT customer_id FROM orders) ORDER BY id ASC",
		},
		{
			name:    "users without orders",
			query:   l.usersWithoutOrders(),
			wantSQL: "SELECT * FROM users u WHERE NOT EXISTS (SELECT 1 FROM orders o WHERE o.customer_id = u.id) ORDER BY u.id ASC",
		},
		{
			name:  "top product per category",
			query: l.topProductPerCategory(),
			wantSQL: "SELECT * FROM products p WHERE p.price = (SELECT MAX(p2.price) FROM products p2 " +
				"WHERE p2.category_id = p.category_id) ORDER BY p.category_id ASC, p.id ASC",
		},
		{
			name:    "order items",
			query:   l.orderItems(7),
			wantSQL: "SELECT * FROM order_items WHERE order_id = $1 ORDER BY id ASC",
			wantArg: 1,
		},
		{
			name:  "user order totals",
			query: l.userOrderTotals(),
			wantSQL: "SELECT u.id AS user_id, u.name AS user_name, COUNT(o.id) AS order_count, " +
				"COALESCE(SUM(o.total_amount), 0.00) AS total_spent FROM users u " +
				"LEFT JOIN orders o ON o.customer_id = u.id GROUP BY u.id, u.name ORDER BY u.id ASC",
		},
		{
			name:  "books with authors",
			query: l.booksWithAuthors(),
			wantSQL: "SELECT b.id AS book_id, b.title, b.genre, b.published_year, b.price, a.name AS author_name, " +
				"a.country AS author_country FROM books b LEFT JOIN authors a ON a.id = b.author_id ORDER BY b.id ASC",
		},
		{
			name:  "featured active on",
			query: l.featuredActiveOn(day),
			wantSQL: "SELECT f.id AS featured_id, p.id AS product_id, p.name AS product_name, p.price, f.start_date, " +
				"f.end_date FROM featured_products f INNER JOIN products p ON p.id = f.product_id " +
				"WHERE f.start_date <= $1 AND f.end_date >= $2 ORDER BY f.id ASC",
			wantArg: 2,
		},
		{
			name:    "customers by membership",
			query:   l.customersByMembership(catalog.MembershipVIP),
			wantSQL: "SELECT * FROM customers WHERE membership_level = $1 ORDER BY id ASC",
			wantArg: 1,
		},
		{
			name:    "raise prices in category",
			query:   l.raisePrices(decimal.RequireFromString("1.1"), ptr(int64(5))),
			wantSQL: "UPDATE products SET price = ROUND(price * $1, 2) WHERE category_id = $2",
			wantArg: 2,
		},
		{
			name:    "raise all prices",
			query:   l.raisePrices(decimal.RequireFromString("1.1"), nil),
			wantSQL: "UPDATE products SET price = ROUND(price * $1, 2)",
			wantArg: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.query.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Len(t, args, tt.wantArg)
		})
	}
}

func TestLibrary_FeaturedDayIsBoundAsDate(t *testing.T) {
	l := newTestLibrary(t)

	_, args, err := l.featuredActiveOn(time.Date(2024, 12, 24, 15, 30, 0, 0, time.UTC)).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"2024-12-24", "2024-12-24"}, args)
}

func ptr[T any](v T) *T { return &v }
