package builder

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
)

// InTx runs fn with a builder bound to a transaction. Queries built from tx
// run inside it; the transaction commits when fn returns nil and rolls back
// otherwise. Nested calls open savepoints.
func (d *DB) InTx(ctx context.Context, fn func(tx *DB) error) error {
	return d.db.InTx(ctx, func(rt *runtime.DB) error {
		return fn(&DB{db: rt, reg: d.reg})
	})
}
