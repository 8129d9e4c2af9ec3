// Package profile infers structural and statistical schemas from
// schemaless documents. A single document is walked into a type
// descriptor tree; descriptors from many documents are unified into one
// aggregate schema carrying per-field occurrence counts, optionality,
// and type unions.
package profile

// Tag identifies the inferred type of one tree position.
type Tag string

// The closed set of tags the walker and merger dispatch over.
const (
	TagNull    Tag = "null"
	TagBool    Tag = "bool"
	TagInteger Tag = "integer"
	TagFloat   Tag = "float"
	TagString  Tag = "string"
	TagArray   Tag = "array"
	TagObject  Tag = "object"

	// TagUnion marks a descriptor whose position carried more than one
	// type across the observed documents.
	TagUnion Tag = "union"
)

// Scalar reports whether the tag is a leaf type with no nested structure.
func (t Tag) Scalar() bool {
	switch t {
	case TagNull, TagBool, TagInteger, TagFloat, TagString:
		return true
	}
	return false
}
