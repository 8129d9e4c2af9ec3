package profile

import (
	"math"
	"strconv"
)

// hardDepthLimit bounds recursion when no explicit MaxDepth is set.
// Crossing it fails the document instead of truncating.
const hardDepthLimit = 1000

// WalkOptions control how a single document is converted to a descriptor.
type WalkOptions struct {
	// MaxDepth truncates recursion below this nesting depth. Truncated
	// subtrees are recorded with a truncation marker rather than failing.
	// Zero enforces the hard internal limit instead.
	MaxDepth int

	// TreatNullAsAbsent drops object fields whose value is an explicit
	// null, treating them as missing rather than nullable.
	TreatNullAsAbsent bool

	// TrackValues enables distinct-value histograms on integer and
	// string descriptors.
	TrackValues bool
}

// Walk converts one decoded document into a descriptor tree mirroring
// its shape, with all counts set to one document's worth of evidence.
func Walk(doc any) (*Descriptor, error) {
	return WalkWithOptions(doc, WalkOptions{})
}

// WalkWithOptions is Walk with explicit options.
func WalkWithOptions(doc any, opts WalkOptions) (*Descriptor, error) {
	w := walker{opts: opts}
	return w.walk(doc, 0)
}

type walker struct {
	opts WalkOptions
}

func (w *walker) walk(v any, depth int) (*Descriptor, error) {
	if w.opts.MaxDepth > 0 {
		if depth > w.opts.MaxDepth {
			tag, ok := tagOf(v)
			if !ok {
				return nil, &DecodeError{Value: v}
			}
			return &Descriptor{Tag: tag, Count: 1, Truncated: true}, nil
		}
	} else if depth > hardDepthLimit {
		return nil, &DepthExceededError{Depth: hardDepthLimit}
	}

	switch val := v.(type) {
	case nil:
		return &Descriptor{Tag: TagNull, Count: 1}, nil

	case bool:
		return &Descriptor{Tag: TagBool, Count: 1}, nil

	case string:
		d := &Descriptor{Tag: TagString, Count: 1}
		if w.opts.TrackValues && len(val) < maxTrackedStringLen {
			d.Values = map[string]int64{val: 1}
			d.Unique = 1
		}
		return d, nil

	case int:
		return w.integer(int64(val)), nil
	case int8:
		return w.integer(int64(val)), nil
	case int16:
		return w.integer(int64(val)), nil
	case int32:
		return w.integer(int64(val)), nil
	case int64:
		return w.integer(val), nil
	case uint:
		return w.integer(int64(val)), nil
	case uint8:
		return w.integer(int64(val)), nil
	case uint16:
		return w.integer(int64(val)), nil
	case uint32:
		return w.integer(int64(val)), nil
	case uint64:
		return w.integer(int64(val)), nil

	case float64:
		return w.number(val), nil
	case float32:
		return w.number(float64(val)), nil

	case []any:
		return w.array(val, depth)

	case map[string]any:
		return w.object(val, depth)

	case map[any]any:
		// Legacy YAML decoding shape; keys must still be strings.
		fields := make(map[string]any, len(val))
		for k, child := range val {
			name, ok := k.(string)
			if !ok {
				return nil, &DecodeError{Value: k}
			}
			fields[name] = child
		}
		return w.object(fields, depth)

	default:
		return nil, &DecodeError{Value: v}
	}
}

func (w *walker) integer(v int64) *Descriptor {
	d := &Descriptor{Tag: TagInteger, Count: 1}
	if w.opts.TrackValues {
		d.Values = map[string]int64{strconv.FormatInt(v, 10): 1}
		d.Unique = 1
	}
	return d
}

// number classifies a float. JSON decodes every number as float64, so
// whole values count as integers to preserve the integer/float split.
func (w *walker) number(v float64) *Descriptor {
	if math.Trunc(v) == v && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return w.integer(int64(v))
	}
	return &Descriptor{Tag: TagFloat, Count: 1}
}

func (w *walker) array(val []any, depth int) (*Descriptor, error) {
	d := &Descriptor{
		Tag:     TagArray,
		Count:   1,
		Lengths: &LengthStats{Min: len(val), Max: len(val)},
	}

	// Mixed-type elements merge into a union right here; this is the
	// same rule as cross-document merging, applied intra-document first.
	var elem *Descriptor
	for _, item := range val {
		id, err := w.walk(item, depth+1)
		if err != nil {
			return nil, err
		}
		elem = merge(elem, id)
	}
	d.Elem = elem
	return d, nil
}

func (w *walker) object(val map[string]any, depth int) (*Descriptor, error) {
	d := &Descriptor{
		Tag:    TagObject,
		Count:  1,
		Fields: make(map[string]*Field, len(val)),
	}
	for name, child := range val {
		if child == nil && w.opts.TreatNullAsAbsent {
			continue
		}
		cd, err := w.walk(child, depth+1)
		if err != nil {
			return nil, err
		}
		d.Fields[name] = &Field{Schema: cd, Presence: 1}
	}
	return d, nil
}

// tagOf classifies a value without descending into it.
func tagOf(v any) (Tag, bool) {
	switch val := v.(type) {
	case nil:
		return TagNull, true
	case bool:
		return TagBool, true
	case string:
		return TagString, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TagInteger, true
	case float64:
		if math.Trunc(val) == val && !math.IsInf(val, 0) && !math.IsNaN(val) {
			return TagInteger, true
		}
		return TagFloat, true
	case float32:
		return tagOf(float64(val))
	case []any:
		return TagArray, true
	case map[string]any, map[any]any:
		return TagObject, true
	}
	return "", false
}
