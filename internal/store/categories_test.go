package store

import (
	"context"
	"testing"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory_RejectsSelfParent(t *testing.T) {
	parent := int64(50)

	_, err := New(nil).CreateCategory(context.Background(), catalog.Category{ID: 50, Name: "Loop", ParentID: &parent})
	require.Error(t, err)

	var verr *runtime.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "parent_id", verr.Field)
}

func TestCategoryParentCheck(t *testing.T) {
	reg, err := catalog.NewRegistry()
	require.NoError(t, err)
	m, err := catalog.Migration(reg)
	require.NoError(t, err)

	assert.Contains(t, m.UpSQL, "CONSTRAINT categories_parent_check CHECK (parent_id <> id)")
}
