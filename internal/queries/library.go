// Package queries is the reference query library over the catalog schema.
// Model-shaped results go through the query builder; aggregates and joins
// are collected into row structs with pgx.
package queries

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// avgScale is numeric(10,2) scale + 4, the precision MySQL gives AVG over
// a DECIMAL(10,2) column.
const avgScale = 6

type Library struct {
	db *builder.DB
}

func New(db *builder.DB) *Library {
	return &Library{db: db}
}

type ProductStats struct {
	ProductCount int64           `db:"product_count" json:"product_count"`
	AvgPrice     decimal.Decimal `db:"avg_price" json:"avg_price"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	MinPrice     decimal.Decimal `db:"min_price" json:"min_price"`
	MaxPrice     decimal.Decimal `db:"max_price" json:"max_price"`
}

type CategoryStats struct {
	CategoryID   int64           `db:"category_id" json:"category_id"`
	CategoryName string          `db:"category_name" json:"category_name"`
	ProductCount int64           `db:"product_count" json:"product_count"`
	AvgPrice     decimal.Decimal `db:"avg_price" json:"avg_price"`
	MinPrice     decimal.Decimal `db:"min_price" json:"min_price"`
	MaxPrice     decimal.Decimal `db:"max_price" json:"max_price"`
}

type MonthlySales struct {
	Year       int             `db:"year" json:"year"`
	Month      int             `db:"month" json:"month"`
	OrderCount int64           `db:"order_count" json:"order_count"`
	TotalSales decimal.Decimal `db:"total_sales" json:"total_sales"`
}

// SalesRollup is one row of GROUP BY ROLLUP(year, payment_method). A nil
// PaymentMethod with a set Year is the year subtotal; both nil is the
// grand total. Orders without a payment method also report nil.
type SalesRollup struct {
	Year          *int            `db:"year" json:"year"`
	PaymentMethod *string         `db:"payment_method" json:"payment_method"`
	OrderCount    int64           `db:"order_count" json:"order_count"`
	TotalSales    decimal.Decimal `db:"total_sales" json:"total_sales"`
}

type OrderWithUser struct {
	OrderID     int64               `db:"order_id" json:"order_id"`
	OrderDate   time.Time           `db:"order_date" json:"order_date"`
	TotalAmount decimal.Decimal     `db:"total_amount" json:"total_amount"`
	OrderStatus catalog.OrderStatus `db:"order_status" json:"order_status"`
	UserID      int64               `db:"user_id" json:"user_id"`
	UserName    string              `db:"user_name" json:"user_name"`
	Email       string              `db:"email" json:"email"`
}

type CatalogEntry struct {
	ProductID    int64           `db:"product_id" json:"product_id"`
	ProductName  string          `db:"product_name" json:"product_name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	CategoryName *string         `db:"category_name" json:"category_name"`
	BrandName    *string         `db:"brand_name" json:"brand_name"`
}

type UserOrderTotal struct {
	UserID     int64           `db:"user_id" json:"user_id"`
	UserName   string          `db:"user_name" json:"user_name"`
	OrderCount int64           `db:"order_count" json:"order_count"`
	TotalSpent decimal.Decimal `db:"total_spent" json:"total_spent"`
}

type BookWithAuthor struct {
	BookID        int64               `db:"book_id" json:"book_id"`
	Title         string              `db:"title" json:"title"`
	Genre         *string             `db:"genre" json:"genre"`
	PublishedYear *int                `db:"published_year" json:"published_year"`
	Price         decimal.NullDecimal `db:"price" json:"price"`
	AuthorName    *string             `db:"author_name" json:"author_name"`
	AuthorCountry *string             `db:"author_country" json:"author_country"`
}

type FeaturedEntry struct {
	FeaturedID  int64           `db:"featured_id" json:"featured_id"`
	ProductID   int64           `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	StartDate   time.Time       `db:"start_date" json:"start_date"`
	EndDate     time.Time       `db:"end_date" json:"end_date"`
}

// collect runs a builder query whose result is not model-shaped and maps
// each row onto R by column name.
func collect[R, M any](ctx context.Context, l *Library, q *builder.SelectQuery[M]) ([]R, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := l.db.Runtime().Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[R])
}

// Filters

func (l *Library) productsAbovePrice(price decimal.Decimal) *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		Where(builder.Gt("price", price)).
		OrderByDesc("price").
		OrderByAsc("id")
}

// ProductsAbovePrice returns products priced strictly above price, most
// expensive first.
func (l *Library) ProductsAbovePrice(ctx context.Context, price decimal.Decimal) ([]catalog.Product, error) {
	products, err := l.productsAbovePrice(price).All(ctx)
	return products, errors.Wrap(err, "products above price")
}

func (l *Library) productsNameLike(pattern string) *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		Where(builder.Like("name", pattern)).
		OrderByAsc("id")
}

// ProductsNameLike matches names against a LIKE pattern such as '%Pro%'.
func (l *Library) ProductsNameLike(ctx context.Context, pattern string) ([]catalog.Product, error) {
	products, err := l.productsNameLike(pattern).All(ctx)
	return products, errors.Wrap(err, "products name like")
}

func (l *Library) ordersBetween(from, to time.Time) *builder.SelectQuery[catalog.Order] {
	return builder.Select[catalog.Order](l.db).
		Where(builder.Between("order_date", from.UTC(), to.UTC())).
		OrderByAsc("order_date").
		OrderByAsc("id")
}

// OrdersBetween returns orders with order_date in [from, to].
func (l *Library) OrdersBetween(ctx context.Context, from, to time.Time) ([]catalog.Order, error) {
	orders, err := l.ordersBetween(from, to).All(ctx)
	return orders, errors.Wrap(err, "orders between")
}

// Ordering

func (l *Library) productsByPrice() *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		OrderByAsc("price").
		OrderByAsc("id")
}

func (l *Library) ProductsByPrice(ctx context.Context) ([]catalog.Product, error) {
	products, err := l.productsByPrice().All(ctx)
	return products, errors.Wrap(err, "products by price")
}

func (l *Library) productsByCategoryPrice() *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		OrderByNulls("category_id", builder.Asc, builder.NullsLast).
		OrderByDesc("price").
		OrderByAsc("id")
}

func (l *Library) ProductsByCategoryPrice(ctx context.Context) ([]catalog.Product, error) {
	products, err := l.productsByCategoryPrice().All(ctx)
	return products, errors.Wrap(err, "products by category and price")
}

// Aggregates

func (l *Library) ordersInYear(year int) *builder.SelectQuery[catalog.Order] {
	return builder.Select[catalog.Order](l.db).
		Where(builder.Expr(builder.Extract("YEAR", "order_date")+" = ?", year))
}

// CountOrdersInYear counts orders whose order_date falls in year.
func (l *Library) CountOrdersInYear(ctx context.Context, year int) (int64, error) {
	n, err := l.ordersInYear(year).Count(ctx)
	return n, errors.Wrapf(err, "count orders in %d", year)
}

func (l *Library) productStats() *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).Columns(
		"COUNT(*) AS product_count",
		builder.Coalesce(builder.Round("AVG(price)", avgScale), "0")+" AS avg_price",
		builder.Coalesce("SUM(price)", "0")+" AS total_price",
		builder.Coalesce("MIN(price)", "0")+" AS min_price",
		builder.Coalesce("MAX(price)", "0")+" AS max_price",
	)
}

// ProductStats aggregates products.price. An empty table reports zeros.
func (l *Library) ProductStats(ctx context.Context) (*ProductStats, error) {
	rows, err := collect[ProductStats](ctx, l, l.productStats())
	if err != nil {
		return nil, errors.Wrap(err, "product stats")
	}

	return &rows[0], nil
}

func (l *Library) categoryProductStats(minProducts int) *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		As("p").
		Columns(
			"c.id AS category_id",
			"c.name AS category_name",
			"COUNT(p.id) AS product_count",
			builder.Round("AVG(p.price)", avgScale)+" AS avg_price",
			"MIN(p.price) AS min_price",
			"MAX(p.price) AS max_price",
		).
		InnerJoin("categories c", "c.id = p.category_id").
		GroupBy("c.id", "c.name").
		Having(builder.Expr("COUNT(p.id) >= ?", minProducts)).
		OrderByAsc("c.id")
}

// CategoryProductStats reports price statistics for categories with at
// least minProducts products.
func (l *Library) CategoryProductStats(ctx context.Context, minProducts int) ([]CategoryStats, error) {
	rows, err := collect[CategoryStats](ctx, l, l.categoryProductStats(minProducts))
	return rows, errors.Wrap(err, "category product stats")
}

func (l *Library) monthlySales() *builder.SelectQuery[catalog.Order] {
	year, month := builder.Extract("YEAR", "order_date"), builder.Extract("MONTH", "order_date")

	return builder.Select[catalog.Order](l.db).
		Columns(
			year+" AS year",
			month+" AS month",
			"COUNT(*) AS order_count",
			"SUM(total_amount) AS total_sales",
		).
		GroupBy(year, month).
		OrderByAsc("year").
		OrderByAsc("month")
}

// MonthlySales buckets orders by calendar month.
func (l *Library) MonthlySales(ctx context.Context) ([]MonthlySales, error) {
	rows, err := collect[MonthlySales](ctx, l, l.monthlySales())
	return rows, errors.Wrap(err, "monthly sales")
}

func (l *Library) yearlySalesRollup() *builder.SelectQuery[catalog.Order] {
	year := builder.Extract("YEAR", "order_date")

	return builder.Select[catalog.Order](l.db).
		Columns(
			year+" AS year",
			"payment_method",
			"COUNT(*) AS order_count",
			"SUM(total_amount) AS total_sales",
		).
		GroupBy("ROLLUP(" + year + ", payment_method)").
		OrderByNulls("year", builder.Asc, builder.NullsLast).
		OrderByNulls("payment_method", builder.Asc, builder.NullsLast)
}

// YearlySalesRollup reports sales per year and payment method with year
// subtotals and a grand total.
func (l *Library) YearlySalesRollup(ctx context.Context) ([]SalesRollup, error) {
	rows, err := collect[SalesRollup](ctx, l, l.yearlySalesRollup())
	return rows, errors.Wrap(err, "yearly sales rollup")
}

// Joins

func (l *Library) ordersWithUsers() *builder.SelectQuery[catalog.Order] {
	return builder.Select[catalog.Order](l.db).
		As("o").
		Columns(
			"o.id AS order_id",
			"o.order_date",
			"o.total_amount",
			"o.order_status",
			"u.id AS user_id",
			"u.name AS user_name",
			"u.email",
		).
		InnerJoin("users u", "u.id = o.customer_id").
		OrderByAsc("o.id")
}

func (l *Library) OrdersWithUsers(ctx context.Context) ([]OrderWithUser, error) {
	rows, err := collect[OrderWithUser](ctx, l, l.ordersWithUsers())
	return rows, errors.Wrap(err, "orders with users")
}

func (l *Library) productCatalog() *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		As("p").
		Columns(
			"p.id AS product_id",
			"p.name AS product_name",
			"p.price",
			"c.name AS category_name",
			"b.name AS brand_name",
		).
		LeftJoin("categories c", "c.id = p.category_id").
		LeftJoin("brands b", "b.id = p.brand_id").
		OrderByAsc("p.id")
}

// ProductCatalog lists every product with its category and brand names,
// NULL when unassigned.
func (l *Library) ProductCatalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := collect[CatalogEntry](ctx, l, l.productCatalog())
	return rows, errors.Wrap(err, "product catalog")
}

func (l *Library) userOrderTotals() *builder.SelectQuery[catalog.User] {
	return builder.Select[catalog.User](l.db).
		As("u").
		Columns(
			"u.id AS user_id",
			"u.name AS user_name",
			"COUNT(o.id) AS order_count",
			builder.Coalesce("SUM(o.total_amount)", "0.00")+" AS total_spent",
		).
		LeftJoin("orders o", "o.customer_id = u.id").
		GroupBy("u.id", "u.name").
		OrderByAsc("u.id")
}

// UserOrderTotals reports every user's order count and spend, zero for
// users without orders.
func (l *Library) UserOrderTotals(ctx context.Context) ([]UserOrderTotal, error) {
	rows, err := collect[UserOrderTotal](ctx, l, l.userOrderTotals())
	return rows, errors.Wrap(err, "user order totals")
}

func (l *Library) booksWithAuthors() *builder.SelectQuery[catalog.Book] {
	return builder.Select[catalog.Book](l.db).
		As("b").
		Columns(
			"b.id AS book_id",
			"b.title",
			"b.genre",
			"b.published_year",
			"b.price",
			"a.name AS author_name",
			"a.country AS author_country",
		).
		LeftJoin("authors a", "a.id = b.author_id").
		OrderByAsc("b.id")
}

func (l *Library) BooksWithAuthors(ctx context.Context) ([]BookWithAuthor, error) {
	rows, err := collect[BookWithAuthor](ctx, l, l.booksWithAuthors())
	return rows, errors.Wrap(err, "books with authors")
}

func (l *Library) featuredActiveOn(day time.Time) *builder.SelectQuery[catalog.FeaturedProduct] {
	d := day.Format(time.DateOnly)

	return builder.Select[catalog.FeaturedProduct](l.db).
		As("f").
		Columns(
			"f.id AS featured_id",
			"p.id AS product_id",
			"p.name AS product_name",
			"p.price",
			"f.start_date",
			"f.end_date",
		).
		InnerJoin("products p", "p.id = f.product_id").
		Where(builder.Lte("f.start_date", d)).
		And(builder.Gte("f.end_date", d)).
		OrderByAsc("f.id")
}

// FeaturedActiveOn returns the promotion windows covering day, both ends
// inclusive.
func (l *Library) FeaturedActiveOn(ctx context.Context, day time.Time) ([]FeaturedEntry, error) {
	rows, err := collect[FeaturedEntry](ctx, l, l.featuredActiveOn(day))
	return rows, errors.Wrap(err, "featured products active on day")
}

// Subqueries

func (l *Library) productsAboveAverage() *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		Where(builder.GtSubquery("price", builder.NewSubquery("SELECT AVG(price) FROM products"))).
		OrderByDesc("price").
		OrderByAsc("id")
}

func (l *Library) ProductsAboveAverage(ctx context.Context) ([]catalog.Product, error) {
	products, err := l.productsAboveAverage().All(ctx)
	return products, errors.Wrap(err, "products above average")
}

func (l *Library) usersWhoOrdered() *builder.SelectQuery[catalog.User] {
	return builder.Select[catalog.User](l.db).
		Where(builder.InSubquery("id", builder.NewSubquery("SELECT customer_id FROM orders"))).
		OrderByAsc("id")
}

func (l *Library) UsersWhoOrdered(ctx context.Context) ([]catalog.User, error) {
	users, err := l.usersWhoOrdered().All(ctx)
	return users, errors.Wrap(err, "users who ordered")
}

func (l *Library) usersWithoutOrders() *builder.SelectQuery[catalog.User] {
	return builder.Select[catalog.User](l.db).
		As("u").
		Where(builder.NotExistsSubquery(builder.NewSubquery("SELECT 1 FROM orders o WHERE o.customer_id = u.id"))).
		OrderByAsc("u.id")
}

func (l *Library) UsersWithoutOrders(ctx context.Context) ([]catalog.User, error) {
	users, err := l.usersWithoutOrders().All(ctx)
	return users, errors.Wrap(err, "users without orders")
}

func (l *Library) topProductPerCategory() *builder.SelectQuery[catalog.Product] {
	return builder.Select[catalog.Product](l.db).
		As("p").
		Where(builder.EqSubquery("p.price", builder.NewSubquery(
			"SELECT MAX(p2.price) FROM products p2 WHERE p2.category_id = p.category_id",
		))).
		OrderByAsc("p.category_id").
		OrderByAsc("p.id")
}

// TopProductPerCategory returns the most expensive products of each
// category; ties all match. Uncategorized products are never returned.
func (l *Library) TopProductPerCategory(ctx context.Context) ([]catalog.Product, error) {
	products, err := l.topProductPerCategory().All(ctx)
	return products, errors.Wrap(err, "top product per category")
}

func (l *Library) orderItems(orderID int64) *builder.SelectQuery[catalog.OrderItem] {
	return builder.Select[catalog.OrderItem](l.db).
		Where(builder.Eq("order_id", orderID)).
		OrderByAsc("id")
}

func (l *Library) OrderItems(ctx context.Context, orderID int64) ([]catalog.OrderItem, error) {
	items, err := l.orderItems(orderID).All(ctx)
	return items, errors.Wrapf(err, "items of order %d", orderID)
}

func (l *Library) customersByMembership(level catalog.MembershipLevel) *builder.SelectQuery[catalog.Customer] {
	return builder.Select[catalog.Customer](l.db).
		Where(builder.Eq("membership_level", string(level))).
		OrderByAsc("id")
}

func (l *Library) CustomersByMembership(ctx context.Context, level catalog.MembershipLevel) ([]catalog.Customer, error) {
	customers, err := l.customersByMembership(level).All(ctx)
	return customers, errors.Wrapf(err, "customers with %s membership", level)
}
