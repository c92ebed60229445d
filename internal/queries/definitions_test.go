package queries

import (
	"context"
	"testing"
	"time"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitions_NamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	reads := 0
	for _, def := range Definitions() {
		assert.False(t, seen[def.Name], "duplicate definition %s", def.Name)
		seen[def.Name] = true
		assert.NotEmpty(t, def.Description, def.Name)
		if !def.Mutates {
			reads++
		}
	}

	assert.Equal(t, 21, reads)
	for _, name := range []string{"raise-prices", "update-product-stock", "update-product-price"} {
		def, err := Lookup(name)
		require.NoError(t, err)
		assert.True(t, def.Mutates, name)
	}
}

func TestDefinitions_DefaultsResolve(t *testing.T) {
	for _, def := range Definitions() {
		if def.Mutates {
			continue
		}
		p, err := def.resolve(nil)
		require.NoError(t, err, def.Name)
		for _, param := range def.Params {
			assert.Equal(t, param.Default, p[param.Name], "%s.%s", def.Name, param.Name)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("no-such-query")
	assert.True(t, errors.Is(err, ErrUnknownQuery))

	_, err = newTestLibrary(t).Run(context.Background(), "no-such-query", nil)
	assert.True(t, errors.Is(err, ErrUnknownQuery))
}

func TestDefinition_ResolveRejectsUnknownParam(t *testing.T) {
	def, err := Lookup("products-above-price")
	require.NoError(t, err)

	_, err = def.resolve(Params{"prize": "10"})

	var verr *runtime.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "prize", verr.Field)
}

func TestDefinition_ResolveOverridesDefault(t *testing.T) {
	def, err := Lookup("order-items")
	require.NoError(t, err)

	p, err := def.resolve(Params{"order": "3"})
	require.NoError(t, err)
	id, err := p.asInt64("order")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestResolved_Parsing(t *testing.T) {
	p := resolved{
		"price": "814.99",
		"year":  "2023",
		"day":   "2024-02-14",
		"at":    "2024-02-14 18:30:00",
		"bad":   "abc",
		"empty": "",
	}

	price, err := p.asDecimal("price")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("814.99")))

	year, err := p.asInt("year")
	require.NoError(t, err)
	assert.Equal(t, 2023, year)

	day, err := p.asTime("day")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), day)

	at, err := p.asTime("at")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 14, 18, 30, 0, 0, time.UTC), at)

	none, err := p.optionalInt64("empty")
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, parse := range []func(string) error{
		func(n string) error { _, err := p.asDecimal(n); return err },
		func(n string) error { _, err := p.asInt(n); return err },
		func(n string) error { _, err := p.asTime(n); return err },
		func(n string) error { _, err := p.optionalInt64(n); return err },
	} {
		var verr *runtime.ValidationError
		require.True(t, errors.As(parse("bad"), &verr))
		assert.Equal(t, "bad", verr.Field)
	}
}

func TestRun_RejectsBadMembershipLevel(t *testing.T) {
	_, err := newTestLibrary(t).Run(context.Background(), "customers-by-membership", Params{"level": "gold"})

	var verr *runtime.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "level", verr.Field)
}

func TestMutations_ValidateBeforeWriting(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()

	var verr *runtime.ValidationError
	_, err := l.RaisePrices(ctx, decimal.Zero, nil)
	assert.True(t, errors.As(err, &verr))

	assert.True(t, errors.As(l.UpdateProductStock(ctx, 1, -1), &verr))
	assert.Equal(t, "stock", verr.Field)

	assert.True(t, errors.As(l.UpdateProductPrice(ctx, 1, decimal.NewFromInt(-1)), &verr))
	assert.Equal(t, "price", verr.Field)
}

func TestMembershipLevel_Valid(t *testing.T) {
	assert.True(t, catalog.MembershipVIP.Valid())
	assert.False(t, catalog.MembershipLevel("gold").Valid())
}
