// Package store implements the writes that keep the catalog invariants:
// order totals, order and payment state machines, acyclic category trees,
// soft deletion of users and the session table.
package store

import (
	"time"

	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrCategoryCycle is returned when a new parent would make a category
	// its own ancestor.
	ErrCategoryCycle = errors.New("category parent would create a cycle")

	// ErrInvalidTransition is returned for an order or payment status change
	// the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Store struct {
	db         *builder.DB
	bcryptCost int
	now        func() time.Time
}

type Option func(*Store)

// WithBcryptCost sets the cost used to hash new passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Store) {
		s.bcryptCost = cost
	}
}

// WithClock replaces the wall clock used for deleted_at, last_login and
// session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(db *builder.DB, opts ...Option) *Store {
	s := &Store{
		db:         db,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// timestamp returns the current time in UTC; the columns carry no zone.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
