// Package export renders finalized profiles for external consumers.
// It produces JSON Schema Draft 2020-12 documents from descriptor trees;
// the descriptive schema over-approximates the observed samples and is
// never used to validate documents.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/docprobe/docprobe/pkg/profile"
)

// maxExamples bounds the example values copied from a value histogram.
const maxExamples = 3

// JSONSchema renders the profile's schema as a JSON Schema document.
// Unions become anyOf alternatives; fields that were present in every
// enclosing document become required.
func JSONSchema(p *profile.Profile) (*jsonschema.Schema, error) {
	if p == nil || p.Schema == nil {
		return nil, errors.New("export: profile has no schema")
	}
	s := descriptorSchema(p.Schema)
	s.Version = jsonschema.Version
	return s, nil
}

func descriptorSchema(d *profile.Descriptor) *jsonschema.Schema {
	if d == nil {
		// Unknown position (e.g. only empty arrays observed): matches anything.
		return &jsonschema.Schema{}
	}
	if d.Truncated && !d.Tag.Scalar() {
		return &jsonschema.Schema{}
	}

	switch d.Tag {
	case profile.TagNull:
		return &jsonschema.Schema{Type: "null"}
	case profile.TagBool:
		return &jsonschema.Schema{Type: "boolean"}
	case profile.TagInteger:
		return &jsonschema.Schema{Type: "integer", Examples: examples(d, true)}
	case profile.TagFloat:
		return &jsonschema.Schema{Type: "number"}
	case profile.TagString:
		return &jsonschema.Schema{Type: "string", Examples: examples(d, false)}

	case profile.TagArray:
		s := &jsonschema.Schema{Type: "array"}
		if d.Elem != nil {
			s.Items = descriptorSchema(d.Elem)
		}
		return s

	case profile.TagObject:
		s := &jsonschema.Schema{
			Type:       "object",
			Properties: jsonschema.NewProperties(),
		}
		names := make([]string, 0, len(d.Fields))
		for name := range d.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		var required []string
		for _, name := range names {
			f := d.Fields[name]
			s.Properties.Set(name, descriptorSchema(f.Schema))
			if !f.Optional {
				required = append(required, name)
			}
		}
		if len(required) > 0 {
			s.Required = required
		}
		return s

	case profile.TagUnion:
		tags := make([]profile.Tag, 0, len(d.Members))
		for tag := range d.Members {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

		anyOf := make([]*jsonschema.Schema, 0, len(tags))
		for _, tag := range tags {
			anyOf = append(anyOf, descriptorSchema(d.Members[tag]))
		}
		return &jsonschema.Schema{AnyOf: anyOf}

	default:
		return &jsonschema.Schema{}
	}
}

// examples lifts up to maxExamples observed values out of a histogram.
func examples(d *profile.Descriptor, numeric bool) []any {
	if len(d.Values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(d.Values))
	for v := range d.Values {
		keys = append(keys, v)
	}
	sort.Strings(keys)
	if len(keys) > maxExamples {
		keys = keys[:maxExamples]
	}

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		if numeric {
			n, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				continue
			}
			out = append(out, n)
		} else {
			out = append(out, k)
		}
	}
	return out
}

// CompileCheck verifies that the rendered schema is itself well-formed
// by compiling it. This guards the exporter against emitting schemas its
// consumers cannot load; it does not validate any document.
func CompileCheck(s *jsonschema.Schema) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("export: marshal schema: %w", err)
	}
	doc, err := santhosh.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("export: reparse schema: %w", err)
	}
	compiler := santhosh.NewCompiler()
	if err := compiler.AddResource("profile.schema.json", doc); err != nil {
		return fmt.Errorf("export: register schema: %w", err)
	}
	if _, err := compiler.Compile("profile.schema.json"); err != nil {
		return fmt.Errorf("export: emitted schema does not compile: %w", err)
	}
	return nil
}
