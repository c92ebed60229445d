package store

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/schema"
	"github.com/pkg/errors"
)

// SavePreferences appends a preferences document for the user.
func (s *Store) SavePreferences(ctx context.Context, userID int64, prefs schema.JSONB) (*catalog.UserPreference, error) {
	row := catalog.UserPreference{UserID: userID, Preferences: prefs}
	if err := catalog.Validate(row); err != nil {
		return nil, err
	}

	rows, err := builder.Insert[catalog.UserPreference](s.db).Values(row).ExecReturning(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "save preferences for user %d", userID)
	}

	return &rows[0], nil
}

// LatestPreferences returns the newest preferences row of the user, or
// runtime.ErrNotFound.
func (s *Store) LatestPreferences(ctx context.Context, userID int64) (*catalog.UserPreference, error) {
	pref, err := builder.Select[catalog.UserPreference](s.db).
		Where(builder.Eq("user_id", userID)).
		OrderByDesc("id").
		First(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "latest preferences for user %d", userID)
	}

	return pref, nil
}
