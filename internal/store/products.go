package store

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/pkg/errors"
)

// CreateProduct validates and inserts a product. Duplicate SKUs surface as
// *runtime.UniqueConstraintViolation.
func (s *Store) CreateProduct(ctx context.Context, product catalog.Product) (*catalog.Product, error) {
	if err := catalog.Validate(product); err != nil {
		return nil, err
	}

	rows, err := builder.Insert[catalog.Product](s.db).Values(product).ExecReturning(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}

	return &rows[0], nil
}
