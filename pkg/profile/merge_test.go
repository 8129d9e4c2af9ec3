package profile

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWalk(t *testing.T, doc any) *Descriptor {
	t.Helper()
	d, err := Walk(doc)
	require.NoError(t, err)
	return d
}

// descriptorPairs covers every tag combination the merge rules branch on.
func descriptorPairs(t *testing.T) [][2]*Descriptor {
	t.Helper()
	docs := []any{
		nil,
		true,
		1.0,
		2.5,
		"x",
		[]any{1.0, 2.0},
		[]any{},
		[]any{"a", 1.0},
		map[string]any{"a": 1.0},
		map[string]any{"a": "x", "b": true},
		map[string]any{"a": map[string]any{"deep": []any{nil}}},
	}

	var pairs [][2]*Descriptor
	for _, x := range docs {
		for _, y := range docs {
			pairs = append(pairs, [2]*Descriptor{mustWalk(t, x), mustWalk(t, y)})
		}
	}
	// Pairs involving an existing union.
	u := merge(mustWalk(t, 1.0), mustWalk(t, "x"))
	pairs = append(pairs,
		[2]*Descriptor{u.Clone(), mustWalk(t, true)},
		[2]*Descriptor{u.Clone(), mustWalk(t, map[string]any{"a": 1.0})},
		[2]*Descriptor{u.Clone(), merge(mustWalk(t, nil), mustWalk(t, 2.0))},
	)
	return pairs
}

func TestMerge_Commutative(t *testing.T) {
	for i, pair := range descriptorPairs(t) {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			ab := Merge(pair[0], pair[1])
			ba := Merge(pair[1], pair[0])
			assert.Equal(t, ab, ba)
		})
	}
}

func TestMerge_Associative(t *testing.T) {
	docs := []any{
		1.0,
		"x",
		nil,
		map[string]any{"a": 1.0},
		map[string]any{"b": []any{1.0}},
		[]any{"s"},
	}
	for i, x := range docs {
		for j, y := range docs {
			for k, z := range docs {
				t.Run(fmt.Sprintf("%d_%d_%d", i, j, k), func(t *testing.T) {
					a, b, c := mustWalk(t, x), mustWalk(t, y), mustWalk(t, z)
					left := Merge(Merge(a, b), c)
					right := Merge(a, Merge(b, c))
					assert.Equal(t, left, right)
				})
			}
		}
	}
}

func TestMerge_IdempotentShape(t *testing.T) {
	doc := map[string]any{
		"a": 1.0,
		"b": []any{"x", 2.0},
		"c": map[string]any{"d": nil},
	}
	a := mustWalk(t, doc)
	m := Merge(a, a)

	require.Equal(t, TagObject, m.Tag)
	assert.Equal(t, int64(2), m.Count)

	// Same fields, same nested tags, only counts doubled.
	require.Len(t, m.Fields, len(a.Fields))
	for name, f := range a.Fields {
		mf := m.Fields[name]
		require.NotNil(t, mf, "field %q", name)
		assert.Equal(t, f.Schema.Tag, mf.Schema.Tag, "field %q", name)
		assert.Equal(t, f.Presence*2, mf.Presence, "field %q", name)
	}
	union := m.Fields["b"].Schema.Elem
	require.Equal(t, TagUnion, union.Tag)
	assert.Len(t, union.Members, 2)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	a := mustWalk(t, map[string]any{"a": 1.0})
	b := mustWalk(t, map[string]any{"a": "x", "b": true})
	aBefore := a.Clone()
	bBefore := b.Clone()

	_ = Merge(a, b)

	assert.Equal(t, aBefore, a)
	assert.Equal(t, bBefore, b)
}

func TestMerge_SameScalarSumsCounts(t *testing.T) {
	m := Merge(mustWalk(t, 1.0), mustWalk(t, 2.0))
	assert.Equal(t, TagInteger, m.Tag)
	assert.Equal(t, int64(2), m.Count)
}

func TestMerge_ScalarConflictFormsUnion(t *testing.T) {
	m := Merge(mustWalk(t, 1.0), mustWalk(t, "x"))
	require.Equal(t, TagUnion, m.Tag)
	assert.Equal(t, int64(2), m.Count)
	assert.Equal(t, int64(1), m.Members[TagInteger].Count)
	assert.Equal(t, int64(1), m.Members[TagString].Count)
}

func TestMerge_TagIntoExistingUnion(t *testing.T) {
	u := Merge(mustWalk(t, 1.0), mustWalk(t, "x"))

	// Existing member: count sums, membership stays a set.
	m := Merge(u, mustWalk(t, "y"))
	require.Equal(t, TagUnion, m.Tag)
	assert.Len(t, m.Members, 2)
	assert.Equal(t, int64(2), m.Members[TagString].Count)

	// Absent member: added.
	m = Merge(m, mustWalk(t, nil))
	assert.Len(t, m.Members, 3)
	assert.Equal(t, int64(1), m.Members[TagNull].Count)
}

func TestMerge_NullNeverCollapsesSiblings(t *testing.T) {
	m := Merge(mustWalk(t, nil), mustWalk(t, 1.0))
	m = Merge(m, mustWalk(t, nil))
	require.Equal(t, TagUnion, m.Tag)
	assert.Equal(t, int64(2), m.Members[TagNull].Count)
	assert.Equal(t, int64(1), m.Members[TagInteger].Count)
}

func TestMerge_Objects(t *testing.T) {
	a := mustWalk(t, map[string]any{"shared": 1.0, "left": true})
	b := mustWalk(t, map[string]any{"shared": "x", "right": 2.0})

	m := Merge(a, b)
	require.Equal(t, TagObject, m.Tag)
	require.Len(t, m.Fields, 3)

	shared := m.Fields["shared"]
	assert.Equal(t, int64(2), shared.Presence)
	assert.Equal(t, TagUnion, shared.Schema.Tag)

	// One-sided fields keep their descriptor and presence unmodified.
	assert.Equal(t, int64(1), m.Fields["left"].Presence)
	assert.Equal(t, TagBool, m.Fields["left"].Schema.Tag)
	assert.Equal(t, int64(1), m.Fields["right"].Presence)
}

func TestMerge_Arrays(t *testing.T) {
	a := mustWalk(t, []any{1.0, 2.0, 3.0})
	b := mustWalk(t, []any{})

	m := Merge(a, b)
	require.Equal(t, TagArray, m.Tag)
	assert.Equal(t, int64(2), m.Count)
	assert.Equal(t, 0, m.Lengths.Min)
	assert.Equal(t, 3, m.Lengths.Max)
	// Elements flatten across instances, not per array.
	assert.Equal(t, int64(3), m.Elem.Count)
}

func TestMerge_ObjectShapeClash(t *testing.T) {
	a := mustWalk(t, map[string]any{"a": map[string]any{"x": 1.0}})
	b := mustWalk(t, map[string]any{"a": 1.0})

	m := Merge(a, b)
	field := m.Fields["a"]
	require.Equal(t, TagUnion, field.Schema.Tag)
	require.Len(t, field.Schema.Members, 2)
	obj := field.Schema.Members[TagObject]
	require.NotNil(t, obj)
	assert.Len(t, obj.Fields, 1, "object alternative stays opaque and intact")
	assert.NotNil(t, field.Schema.Members[TagInteger])
}

func TestMerge_HistogramSumsAndCollapses(t *testing.T) {
	opts := WalkOptions{TrackValues: true}
	walk := func(v any) *Descriptor {
		d, err := WalkWithOptions(v, opts)
		require.NoError(t, err)
		return d
	}

	m := Merge(walk("a"), walk("a"))
	assert.Equal(t, int64(2), m.Values["a"])
	assert.Equal(t, 1, m.Unique)

	// Crossing the cap collapses the histogram but keeps the count.
	for i := 0; i <= DefaultValueLimit; i++ {
		m = merge(m, walk(strconv.Itoa(i)))
	}
	assert.Nil(t, m.Values)
	assert.Equal(t, 0, m.Unique)
	assert.Equal(t, int64(DefaultValueLimit+3), m.Count)
}

func TestMerge_TruncatedFlagSurvives(t *testing.T) {
	deep := map[string]any{"a": map[string]any{"b": 1.0}}
	trunc, err := WalkWithOptions(deep, WalkOptions{MaxDepth: 1})
	require.NoError(t, err)
	full := mustWalk(t, deep)

	m := Merge(trunc, full)
	assert.True(t, m.Fields["a"].Schema.Truncated)
	m = Merge(full, trunc)
	assert.True(t, m.Fields["a"].Schema.Truncated)
}
