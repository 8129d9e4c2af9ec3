package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docprobe/docprobe/pkg/profile"
)

func profileOf(t *testing.T, opts profile.Options, docs ...any) *profile.Profile {
	t.Helper()
	agg := profile.New(opts)
	for _, doc := range docs {
		require.NoError(t, agg.Add(doc))
	}
	p, err := agg.Finalize()
	require.NoError(t, err)
	return p
}

func TestJSONSchema_Object(t *testing.T) {
	p := profileOf(t, profile.Options{},
		map[string]any{"name": "alice", "age": 30.0},
		map[string]any{"name": "bob"},
	)

	s, err := JSONSchema(p)
	require.NoError(t, err)

	assert.Equal(t, "object", s.Type)
	assert.NotEmpty(t, s.Version)

	name := s.Properties.GetPair("name")
	require.NotNil(t, name)
	assert.Equal(t, "string", name.Value.Type)
	assert.Contains(t, name.Value.Examples, "alice")

	age := s.Properties.GetPair("age")
	require.NotNil(t, age)
	assert.Equal(t, "integer", age.Value.Type)

	// Optional fields are not required.
	assert.Equal(t, []string{"name"}, s.Required)
}

func TestJSONSchema_UnionBecomesAnyOf(t *testing.T) {
	p := profileOf(t, profile.Options{},
		map[string]any{"v": 1.0},
		map[string]any{"v": "x"},
		map[string]any{"v": nil},
	)

	s, err := JSONSchema(p)
	require.NoError(t, err)

	v := s.Properties.GetPair("v")
	require.NotNil(t, v)
	require.Len(t, v.Value.AnyOf, 3)

	types := make([]string, 0, 3)
	for _, alt := range v.Value.AnyOf {
		types = append(types, alt.Type)
	}
	// Deterministic order: sorted by tag.
	assert.Equal(t, []string{"integer", "null", "string"}, types)
}

func TestJSONSchema_Arrays(t *testing.T) {
	p := profileOf(t, profile.Options{},
		map[string]any{"tags": []any{"a", "b"}},
		map[string]any{"tags": []any{}},
	)

	s, err := JSONSchema(p)
	require.NoError(t, err)

	tags := s.Properties.GetPair("tags")
	require.NotNil(t, tags)
	assert.Equal(t, "array", tags.Value.Type)
	require.NotNil(t, tags.Value.Items)
	assert.Equal(t, "string", tags.Value.Items.Type)

	// Only empty arrays observed: items stay unconstrained.
	p = profileOf(t, profile.Options{}, map[string]any{"tags": []any{}})
	s, err = JSONSchema(p)
	require.NoError(t, err)
	assert.Nil(t, s.Properties.GetPair("tags").Value.Items)
}

func TestJSONSchema_NoSchema(t *testing.T) {
	p := profileOf(t, profile.Options{})
	_, err := JSONSchema(p)
	assert.Error(t, err)
}

func TestCompileCheck(t *testing.T) {
	p := profileOf(t, profile.Options{},
		map[string]any{"a": 1.0, "b": map[string]any{"c": []any{"x", 2.0}}},
		map[string]any{"a": "s"},
	)

	s, err := JSONSchema(p)
	require.NoError(t, err)
	assert.NoError(t, CompileCheck(s))
}
