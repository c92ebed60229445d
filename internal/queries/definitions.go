package queries

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrUnknownQuery is returned by Lookup and Run for a name with no
// definition.
var ErrUnknownQuery = errors.New("unknown query")

type Param struct {
	Name    string
	Default string
	Help    string
}

// Params are raw parameter values keyed by name, as given on the command
// line. Missing keys take the definition default.
type Params map[string]string

// Definition is a named library operation runnable with string
// parameters.
type Definition struct {
	Name        string
	Description string
	Params      []Param
	// Mutates marks definitions that write; Snapshot skips them.
	Mutates bool

	run func(ctx context.Context, l *Library, p resolved) (any, error)
}

// resolved is a parameter set with defaults filled in.
type resolved map[string]string

func (r resolved) asDecimal(name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(r[name])
	if err != nil {
		return decimal.Decimal{}, paramError(name, r[name], "a decimal")
	}
	return d, nil
}

func (r resolved) asInt(name string) (int, error) {
	n, err := strconv.Atoi(r[name])
	if err != nil {
		return 0, paramError(name, r[name], "an integer")
	}
	return n, nil
}

func (r resolved) asInt64(name string) (int64, error) {
	n, err := strconv.ParseInt(r[name], 10, 64)
	if err != nil {
		return 0, paramError(name, r[name], "an integer")
	}
	return n, nil
}

// optionalInt64 returns nil for an empty value.
func (r resolved) optionalInt64(name string) (*int64, error) {
	if r[name] == "" {
		return nil, nil
	}
	n, err := r.asInt64(name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// asTime accepts a date or an RFC 3339 timestamp and returns it in UTC.
func (r resolved) asTime(name string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.DateTime, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, r[name], time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, paramError(name, r[name], "a date (YYYY-MM-DD) or timestamp")
}

func paramError(name, value, want string) error {
	return &runtime.ValidationError{Field: name, Message: strconv.Quote(value) + " is not " + want}
}

var definitions = []Definition{
	{
		Name:        "products-above-price",
		Description: "Products priced above a threshold, most expensive first",
		Params:      []Param{{Name: "price", Default: "500", Help: "exclusive lower bound"}},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			price, err := p.asDecimal("price")
			if err != nil {
				return nil, err
			}
			return l.ProductsAbovePrice(ctx, price)
		},
	},
	{
		Name:        "products-name-like",
		Description: "Products whose name matches a LIKE pattern",
		Params:      []Param{{Name: "pattern", Default: "%Pro%", Help: "LIKE pattern"}},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			return l.ProductsNameLike(ctx, p["pattern"])
		},
	},
	{
		Name:        "orders-between",
		Description: "Orders placed within a date range, inclusive",
		Params: []Param{
			{Name: "from", Default: "2024-01-01", Help: "start of the range"},
			{Name: "to", Default: "2024-03-31 23:59:59", Help: "end of the range"},
		},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			from, err := p.asTime("from")
			if err != nil {
				return nil, err
			}
			to, err := p.asTime("to")
			if err != nil {
				return nil, err
			}
			return l.OrdersBetween(ctx, from, to)
		},
	},
	{
		Name:        "products-by-price",
		Description: "Products ordered by price, cheapest first",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.ProductsByPrice(ctx)
		},
	},
	{
		Name:        "products-by-category-price",
		Description: "Products ordered by category, then price descending",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.ProductsByCategoryPrice(ctx)
		},
	},
	{
		Name:        "count-orders-in-year",
		Description: "Number of orders placed in a year",
		Params:      []Param{{Name: "year", Default: "2023", Help: "calendar year"}},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			year, err := p.asInt("year")
			if err != nil {
				return nil, err
			}
			return l.CountOrdersInYear(ctx, year)
		},
	},
	{
		Name:        "product-stats",
		Description: "Count, average, sum, min and max of product prices",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.ProductStats(ctx)
		},
	},
	{
		Name:        "category-product-stats",
		Description: "Price statistics per category with a minimum product count",
		Params:      []Param{{Name: "min", Default: "2", Help: "minimum products per category"}},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			minProducts, err := p.asInt("min")
			if err != nil {
				return nil, err
			}
			return l.CategoryProductStats(ctx, minProducts)
		},
	},
	{
		Name:        "monthly-sales",
		Description: "Order count and sales per month",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.MonthlySales(ctx)
		},
	},
	{
		Name:        "yearly-sales-rollup",
		Description: "Sales per year and payment method with subtotals",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.YearlySalesRollup(ctx)
		},
	},
	{
		Name:        "orders-with-users",
		Description: "Orders joined to the users who placed them",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.OrdersWithUsers(ctx)
		},
	},
	{
		Name:        "product-catalog",
		Description: "Products with category and brand names",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.ProductCatalog(ctx)
		},
	},
	{
		Name:        "products-above-average",
		Description: "Products priced above the average product price",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.ProductsAboveAverage(ctx)
		},
	},
	{
		Name:        "users-who-ordered",
		Description: "Users with at least one order",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.UsersWhoOrdered(ctx)
		},
	},
	{
		Name:        "users-without-orders",
		Description: "Users who never ordered",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.UsersWithoutOrders(ctx)
		},
	},
	{
		Name:        "top-product-per-category",
		Description: "Most expensive product of each category",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.TopProductPerCategory(ctx)
		},
	},
	{
		Name:        "order-items",
		Description: "Line items of one order",
		Params:      []Param{{Name: "order", Default: "7", Help: "order id"}},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			id, err := p.asInt64("order")
			if err != nil {
				return nil, err
			}
			return l.OrderItems(ctx, id)
		},
	},
	{
		Name:        "user-order-totals",
		Description: "Order count and total spend per user",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.UserOrderTotals(ctx)
		},
	},
	{
		Name:        "books-with-authors",
		Description: "Books with their authors, if any",
		run: func(ctx context.Context, l *Library, _ resolved) (any, error) {
			return l.BooksWithAuthors(ctx)
		},
	},
	{
		Name:        "featured-active-on",
		Description: "Featured product windows covering a date",
		Params:      []Param{{Name: "date", Default: "2024-12-24", Help: "day to check"}},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			day, err := p.asTime("date")
			if err != nil {
				return nil, err
			}
			return l.FeaturedActiveOn(ctx, day)
		},
	},
	{
		Name:        "customers-by-membership",
		Description: "Customers at a membership level",
		Params:      []Param{{Name: "level", Default: "premium", Help: "basic, premium or vip"}},
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			level := catalog.MembershipLevel(p["level"])
			if !level.Valid() {
				return nil, paramError("level", p["level"], "a membership level")
			}
			return l.CustomersByMembership(ctx, level)
		},
	},
	{
		Name:        "raise-prices",
		Description: "Multiply product prices by a factor",
		Params: []Param{
			{Name: "factor", Default: "1.1", Help: "multiplier"},
			{Name: "category", Help: "limit to one category id"},
		},
		Mutates: true,
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			factor, err := p.asDecimal("factor")
			if err != nil {
				return nil, err
			}
			categoryID, err := p.optionalInt64("category")
			if err != nil {
				return nil, err
			}
			return l.RaisePrices(ctx, factor, categoryID)
		},
	},
	{
		Name:        "update-product-stock",
		Description: "Set the stock of one product",
		Params: []Param{
			{Name: "id", Help: "product id"},
			{Name: "stock", Help: "new stock"},
		},
		Mutates: true,
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			id, err := p.asInt64("id")
			if err != nil {
				return nil, err
			}
			stock, err := p.asInt("stock")
			if err != nil {
				return nil, err
			}
			if err := l.UpdateProductStock(ctx, id, stock); err != nil {
				return nil, err
			}
			return int64(1), nil
		},
	},
	{
		Name:        "update-product-price",
		Description: "Set the price of one product",
		Params: []Param{
			{Name: "id", Help: "product id"},
			{Name: "price", Help: "new price"},
		},
		Mutates: true,
		run: func(ctx context.Context, l *Library, p resolved) (any, error) {
			id, err := p.asInt64("id")
			if err != nil {
				return nil, err
			}
			price, err := p.asDecimal("price")
			if err != nil {
				return nil, err
			}
			if err := l.UpdateProductPrice(ctx, id, price); err != nil {
				return nil, err
			}
			return int64(1), nil
		},
	},
}

// Definitions returns every named operation in library order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup finds a definition by name.
func Lookup(name string) (Definition, error) {
	for _, def := range definitions {
		if def.Name == name {
			return def, nil
		}
	}
	return Definition{}, errors.Wrap(ErrUnknownQuery, name)
}

// resolve fills defaults and rejects parameters the definition does not
// declare.
func (d Definition) resolve(params Params) (resolved, error) {
	out := make(resolved, len(d.Params))
	for _, p := range d.Params {
		out[p.Name] = p.Default
	}

	var unknown []string
	for name, value := range params {
		if _, ok := out[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		out[name] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &runtime.ValidationError{Field: unknown[0], Message: "is not a parameter of " + d.Name}
	}

	return out, nil
}

// Run resolves params and executes the definition against l.
func (d Definition) Run(ctx context.Context, l *Library, params Params) (any, error) {
	p, err := d.resolve(params)
	if err != nil {
		return nil, err
	}
	return d.run(ctx, l, p)
}

// Run executes the named definition.
func (l *Library) Run(ctx context.Context, name string, params Params) (any, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return def.Run(ctx, l, params)
}
