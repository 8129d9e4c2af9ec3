package profile

import "maps"

// DefaultValueLimit is the cap on distinct-value histograms kept for
// integer and string descriptors. Merging past the cap collapses the
// histogram; the occurrence count is preserved.
const DefaultValueLimit = 32

// maxTrackedStringLen bounds the string values that enter a histogram.
// Longer strings disable value tracking for their descriptor.
const maxTrackedStringLen = 256

// Descriptor is the inferred type at one tree position. Exactly one of
// the tag-specific field groups is populated, selected by Tag.
type Descriptor struct {
	Tag   Tag   `json:"tag"`
	Count int64 `json:"count"`

	// Values holds per-value occurrence counts for integer and string
	// descriptors, capped at DefaultValueLimit distinct values. Nil when
	// tracking is disabled or the histogram collapsed.
	Values map[string]int64 `json:"values,omitempty"`
	Unique int              `json:"unique,omitempty"`

	// Elem is the merge of every element from every array instance seen,
	// flattened. Nil when only empty arrays were observed.
	Elem    *Descriptor  `json:"elem,omitempty"`
	Lengths *LengthStats `json:"lengths,omitempty"`

	// Fields maps every field name ever observed at this position to its
	// descriptor and presence count.
	Fields map[string]*Field `json:"fields,omitempty"`

	// Members is the deduplicated set of alternatives of a union, keyed
	// by tag. Each member retains its own count.
	Members map[Tag]*Descriptor `json:"members,omitempty"`

	// Truncated marks a subtree cut off at the configured maximum depth.
	Truncated bool `json:"truncated,omitempty"`
}

// Field carries one object field's descriptor and occurrence statistics.
type Field struct {
	Schema   *Descriptor `json:"schema"`
	Presence int64       `json:"presence"`

	// Optional is set at finalization when the field's presence count is
	// below the document count of its enclosing object.
	Optional bool `json:"optional,omitempty"`
}

// LengthStats records observed array lengths across all instances.
type LengthStats struct {
	Min int `json:"min"`
	Max int `json:"max"`

	// PossiblyEmpty is set at finalization when a zero-length instance
	// was observed.
	PossiblyEmpty bool `json:"possibly_empty,omitempty"`
}

// Clone returns a deep copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	out := *d
	if d.Values != nil {
		out.Values = maps.Clone(d.Values)
	}
	out.Elem = d.Elem.Clone()
	if d.Lengths != nil {
		l := *d.Lengths
		out.Lengths = &l
	}
	if d.Fields != nil {
		out.Fields = make(map[string]*Field, len(d.Fields))
		for name, f := range d.Fields {
			out.Fields[name] = &Field{
				Schema:   f.Schema.Clone(),
				Presence: f.Presence,
				Optional: f.Optional,
			}
		}
	}
	if d.Members != nil {
		out.Members = make(map[Tag]*Descriptor, len(d.Members))
		for tag, m := range d.Members {
			out.Members[tag] = m.Clone()
		}
	}
	return &out
}

// trackable reports whether the tag is eligible for value histograms.
func trackable(t Tag) bool {
	return t == TagInteger || t == TagString
}
