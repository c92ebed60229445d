package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	got := Table(
		[]string{"id", "name", "category_id"},
		[][]string{{"1", "iPhone 15 Pro", "5"}, {"9", "Desk Lamp", "NULL"}},
		"NULL",
	)

	for _, want := range []string{"id", "name", "category_id", "iPhone 15 Pro", "Desk Lamp", "NULL"} {
		assert.Contains(t, got, want)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	// top border, header, separator, two rows, bottom border
	assert.Len(t, lines, 6)
}

func TestMessagesGoToOut(t *testing.T) {
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })

	Success("seeded %d rows", 126)
	Section("Data")

	assert.Contains(t, buf.String(), "seeded 126 rows")
	assert.Contains(t, buf.String(), "Data")
	assert.Contains(t, buf.String(), "════")
}
