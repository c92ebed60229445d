package export

import (
	"testing"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	s := func(v string) *string { return &v }

	tests := []struct {
		name string
		in   *string
		want string
	}{
		{name: "null", in: nil, want: "NULL"},
		{name: "empty", in: s(""), want: "''"},
		{name: "number", in: s("2499.99"), want: "'2499.99'"},
		{name: "quote", in: s("O'Brien"), want: "'O''Brien'"},
		{name: "json", in: s(`{"theme": "dark"}`), want: `'{"theme": "dark"}'`},
		{name: "semicolon", in: s("a; b"), want: "'a; b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestIdentityReset(t *testing.T) {
	reg, err := catalog.NewRegistry()
	require.NoError(t, err)

	users, err := reg.GetByName("users")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT setval(pg_get_serial_sequence('users', 'id'), COALESCE((SELECT MAX(id) FROM users), 0) + 1, false);",
		identityReset(users),
	)

	sessions, err := reg.GetByName("sessions")
	require.NoError(t, err)
	assert.Empty(t, identityReset(sessions), "sessions use a text key")
}

func TestLiteralSurvivesStatementSplit(t *testing.T) {
	script := "INSERT INTO brands (id, name) VALUES ('1', " + Literal(strPtr("A;B '$x$'")) + ");\n" +
		"INSERT INTO brands (id, name) VALUES ('2', NULL);\n"

	statements := migration.SplitStatements(script)

	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "'A;B ''$x$'''")
}

func strPtr(v string) *string { return &v }
