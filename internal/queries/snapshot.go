package queries

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// volatileKeys are row fields set by the database clock. They differ
// between two loads of the same data and are left out of snapshots.
var volatileKeys = map[string]bool{
	"created_at": true,
	"updated_at": true,
}

// Snapshot runs every read-only definition with its default parameters
// and returns the results as canonical JSON keyed by query name. Equal
// data gives byte-identical snapshots.
func (l *Library) Snapshot(ctx context.Context) ([]byte, error) {
	results := make(map[string]any, len(definitions))
	for _, def := range definitions {
		if def.Mutates {
			continue
		}

		result, err := def.Run(ctx, l, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot %s", def.Name)
		}

		canonical, err := Canonicalize(result)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot %s", def.Name)
		}
		results[def.Name] = canonical
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}

	return buf.Bytes(), nil
}

// Canonicalize converts v to its generic JSON form with volatile keys
// removed. Numbers are kept as json.Number so nothing is rounded.
func Canonicalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal result")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, errors.Wrap(err, "decode result")
	}

	return stripVolatile(generic), nil
}

func stripVolatile(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for key, value := range t {
			if volatileKeys[key] {
				delete(t, key)
				continue
			}
			t[key] = stripVolatile(value)
		}
	case []any:
		for i, value := range t {
			t[i] = stripVolatile(value)
		}
	}

	return v
}
