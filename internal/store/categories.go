package store

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
)

// CreateCategory inserts a category. A parent, when set, must exist and
// cannot be the category itself.
func (s *Store) CreateCategory(ctx context.Context, category catalog.Category) (*catalog.Category, error) {
	if err := catalog.Validate(category); err != nil {
		return nil, err
	}
	if category.ParentID != nil && *category.ParentID == category.ID {
		return nil, &runtime.ValidationError{Field: "parent_id", Message: "cannot reference the category itself"}
	}

	rows, err := builder.Insert[catalog.Category](s.db).Values(category).ExecReturning(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "insert category")
	}

	return &rows[0], nil
}

// SetCategoryParent moves a category under parentID, or to the top level
// when parentID is nil. The move is rejected with ErrCategoryCycle when the
// category is the new parent or one of its ancestors.
func (s *Store) SetCategoryParent(ctx context.Context, id int64, parentID *int64) error {
	if parentID != nil && *parentID == id {
		return errors.Wrapf(ErrCategoryCycle, "category %d cannot be its own parent", id)
	}

	return s.db.InTx(ctx, func(tx *builder.DB) error {
		// Lock the moving row so two concurrent moves cannot close a loop.
		if _, err := builder.Select[catalog.Category](tx).
			Where(builder.Eq("id", id)).
			ForUpdate().
			First(ctx); err != nil {
			return errors.Wrapf(err, "load category %d", id)
		}

		if parentID != nil {
			cycle, err := isAncestor(ctx, tx, id, *parentID)
			if err != nil {
				return err
			}
			if cycle {
				return errors.Wrapf(ErrCategoryCycle, "category %d is an ancestor of %d", id, *parentID)
			}
		}

		_, err := builder.Update[catalog.Category](tx).
			Set("parent_id", parentID).
			Where(builder.Eq("id", id)).
			Exec(ctx)

		return errors.Wrapf(err, "set parent of category %d", id)
	})
}

// isAncestor reports whether candidate appears on the parent chain that
// starts at (and includes) category. The walk stops after as many steps as
// there are categories, so a loop already stored in the table ends it.
func isAncestor(ctx context.Context, tx *builder.DB, candidate, category int64) (bool, error) {
	sql, args, err := builder.NewRecursiveCTE("ancestors", "id", "parent_id", "depth").
		BaseCase("SELECT id, parent_id, 1 FROM categories WHERE id = ?", category).
		RecursiveCase("SELECT c.id, c.parent_id, a.depth + 1 FROM categories c " +
			"JOIN ancestors a ON c.id = a.parent_id " +
			"WHERE a.depth <= (SELECT COUNT(*) FROM categories)").
		Query("SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = ?)", candidate)
	if err != nil {
		return false, errors.Wrap(err, "build ancestor query")
	}

	var found bool
	if err := tx.Runtime().QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, errors.Wrap(err, "walk category ancestors")
	}

	return found, nil
}

// DeleteCategory removes a category. Its products and child categories keep
// existing with a NULL reference.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	n, err := builder.Delete[catalog.Category](s.db).Where(builder.Eq("id", id)).Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "delete category %d", id)
	}

	return expectOne(n, "categories", id)
}
