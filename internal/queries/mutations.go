package queries

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func (l *Library) raisePrices(factor decimal.Decimal, categoryID *int64) *builder.UpdateQuery[catalog.Product] {
	q := builder.Update[catalog.Product](l.db).
		SetExpr("price", builder.Round("price * ?", 2), factor)
	if categoryID != nil {
		q = q.Where(builder.Eq("category_id", *categoryID))
	}

	return q
}

// RaisePrices multiplies prices by factor, rounding to cents. A nil
// categoryID updates every product. It returns the number of rows changed.
func (l *Library) RaisePrices(ctx context.Context, factor decimal.Decimal, categoryID *int64) (int64, error) {
	if !factor.IsPositive() {
		return 0, &runtime.ValidationError{Field: "factor", Message: "must be > 0"}
	}

	n, err := l.raisePrices(factor, categoryID).Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "raise prices")
	}

	return n, nil
}

// UpdateProductStock sets the stock of one product.
func (l *Library) UpdateProductStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return &runtime.ValidationError{Field: "stock", Message: "must be >= 0"}
	}

	n, err := builder.Update[catalog.Product](l.db).
		Set("stock", stock).
		Where(builder.Eq("id", id)).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "update stock of product %d", id)
	}

	return matchedOne(n, id)
}

// UpdateProductPrice sets the price of one product.
func (l *Library) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if price.IsNegative() {
		return &runtime.ValidationError{Field: "price", Message: "must be >= 0"}
	}

	n, err := builder.Update[catalog.Product](l.db).
		Set("price", price).
		Where(builder.Eq("id", id)).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "update price of product %d", id)
	}

	return matchedOne(n, id)
}

func matchedOne(affected, id int64) error {
	if affected == 0 {
		return errors.Wrapf(runtime.ErrNotFound, "products id %d", id)
	}

	return nil
}
