package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
)

// OpenSession creates an empty session and returns its id.
func (s *Store) OpenSession(ctx context.Context) (string, error) {
	id := uuid.NewString()

	_, err := builder.Insert[catalog.Session](s.db).
		Values(catalog.Session{ID: id, LastAccess: s.timestamp()}).
		Exec(ctx)
	if err != nil {
		return "", errors.Wrap(err, "open session")
	}

	return id, nil
}

// WriteSession stores data under id, creating the session if needed, and
// refreshes last_access.
func (s *Store) WriteSession(ctx context.Context, id, data string) error {
	session := catalog.Session{ID: id, Data: &data, LastAccess: s.timestamp()}
	if err := catalog.Validate(session); err != nil {
		return err
	}

	_, err := builder.Insert[catalog.Session](s.db).
		Values(session).
		OnConflictDoUpdate([]string{"id"}, "data", "last_access").
		Exec(ctx)

	return errors.Wrapf(err, "write session %s", id)
}

// ReadSession returns the session data, or an empty string when the session
// does not exist.
func (s *Store) ReadSession(ctx context.Context, id string) (string, error) {
	session, err := builder.Select[catalog.Session](s.db).Where(builder.Eq("id", id)).First(ctx)
	if errors.Is(err, runtime.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "read session %s", id)
	}
	if session.Data == nil {
		return "", nil
	}

	return *session.Data, nil
}

// DestroySession deletes the session. Destroying a missing session is not
// an error.
func (s *Store) DestroySession(ctx context.Context, id string) error {
	_, err := builder.Delete[catalog.Session](s.db).Where(builder.Eq("id", id)).Exec(ctx)

	return errors.Wrapf(err, "destroy session %s", id)
}

// GCSessions deletes sessions idle for longer than maxLifetime and returns
// how many were removed.
func (s *Store) GCSessions(ctx context.Context, maxLifetime time.Duration) (int64, error) {
	cutoff := s.timestamp().Add(-maxLifetime)

	n, err := builder.Delete[catalog.Session](s.db).Where(builder.Lt("last_access", cutoff)).Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "gc sessions")
	}

	return n, nil
}
