package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Projection(t *testing.T) {
	e, err := NewEngine(0)
	require.NoError(t, err)

	doc := map[string]any{
		"payload": map[string]any{"id": 7},
		"meta":    "noise",
	}

	out, err := e.Apply(context.Background(), ".payload", doc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 7}, out)
}

func TestApply_InvalidExpression(t *testing.T) {
	e, err := NewEngine(4)
	require.NoError(t, err)

	_, err = e.Apply(context.Background(), ".[broken", map[string]any{})
	assert.Error(t, err)
}

func TestApply_NoOutput(t *testing.T) {
	e, err := NewEngine(4)
	require.NoError(t, err)

	_, err = e.Apply(context.Background(), "empty", map[string]any{})
	assert.Error(t, err)
}

func TestApply_ErrorValue(t *testing.T) {
	e, err := NewEngine(4)
	require.NoError(t, err)

	// Indexing a string errors inside jq.
	_, err = e.Apply(context.Background(), ".x", "not an object")
	assert.Error(t, err)
}

func TestCompile_Cached(t *testing.T) {
	e, err := NewEngine(4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := e.Apply(context.Background(), ".a", map[string]any{"a": 1})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, e.Cached())
}

func TestTransform(t *testing.T) {
	e, err := NewEngine(4)
	require.NoError(t, err)

	assert.Nil(t, e.Transform(""))

	tr := e.Transform(".a")
	require.NotNil(t, tr)
	out, err := tr(context.Background(), map[string]any{"a": "v"})
	require.NoError(t, err)
	assert.Equal(t, "v", out)
}
