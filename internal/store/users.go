package store

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser stores user with password replaced by its bcrypt hash.
func (s *Store) CreateUser(ctx context.Context, user catalog.User, password string) (*catalog.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user.Password = string(hash)

	if err := catalog.Validate(user); err != nil {
		return nil, err
	}

	rows, err := builder.Insert[catalog.User](s.db).Values(user).ExecReturning(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "insert user")
	}

	return &rows[0], nil
}

// GetUser loads a user by id, including soft-deleted ones.
func (s *Store) GetUser(ctx context.Context, id int64) (*catalog.User, error) {
	user, err := builder.Select[catalog.User](s.db).Where(builder.Eq("id", id)).First(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "get user %d", id)
	}

	return user, nil
}

// SoftDeleteUser marks the user deleted and stamps deleted_at. The row and
// its orders stay in place.
func (s *Store) SoftDeleteUser(ctx context.Context, id int64) error {
	n, err := builder.Update[catalog.User](s.db).
		Set("is_deleted", true).
		Set("deleted_at", s.timestamp()).
		Where(builder.Eq("id", id)).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "soft delete user %d", id)
	}

	return expectOne(n, "users", id)
}

// DeleteUser removes the user. Orders, their items and preference rows go
// with it through ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	n, err := builder.Delete[catalog.User](s.db).Where(builder.Eq("id", id)).Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "delete user %d", id)
	}

	return expectOne(n, "users", id)
}

// RecordLogin sets last_login to now. Soft-deleted users cannot log in and
// are reported as not found.
func (s *Store) RecordLogin(ctx context.Context, id int64) error {
	n, err := builder.Update[catalog.User](s.db).
		Set("last_login", s.timestamp()).
		Where(builder.Eq("id", id)).
		And(builder.NotEq("is_deleted", true)).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "record login for user %d", id)
	}

	return expectOne(n, "users", id)
}

func expectOne(affected int64, table string, id any) error {
	if affected == 0 {
		return errors.Wrapf(runtime.ErrNotFound, "%s id %v", table, id)
	}

	return nil
}
