// Package report renders a finalized profile as a flat, human-readable
// per-field table.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/docprobe/docprobe/pkg/profile"
)

// maxExamples bounds the example values shown per field.
const maxExamples = 3

// FieldRow summarizes one field path across the whole corpus.
type FieldRow struct {
	Path     string   `json:"path"`               // dotted path, "[]" marks array elements
	Type     string   `json:"type"`               // tag, or "a|b" for unions (null excluded)
	Presence float64  `json:"presence"`           // fraction of enclosing documents containing the field
	Optional bool     `json:"optional"`           // absent from at least one enclosing document
	Nullable bool     `json:"nullable"`           // observed with an explicit null
	Distinct int      `json:"distinct,omitempty"` // distinct values, when tracked
	Examples []string `json:"examples,omitempty"`
}

// Rows flattens the profile's descriptor tree into per-field rows,
// sorted by path.
func Rows(p *profile.Profile) []FieldRow {
	if p == nil || p.Schema == nil {
		return nil
	}
	var rows []FieldRow
	walk(p.Schema, "", &rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return rows
}

func walk(d *profile.Descriptor, prefix string, rows *[]FieldRow) {
	switch d.Tag {
	case profile.TagObject:
		for name, f := range d.Fields {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			row := FieldRow{
				Path:     path,
				Type:     typeLabel(f.Schema),
				Optional: f.Optional,
				Nullable: nullable(f.Schema),
				Distinct: distinct(f.Schema),
				Examples: exampleValues(f.Schema),
			}
			if d.Count > 0 {
				row.Presence = float64(f.Presence) / float64(d.Count)
			}
			*rows = append(*rows, row)
			walk(f.Schema, path, rows)
		}
	case profile.TagArray:
		if d.Elem != nil {
			walk(d.Elem, prefix+"[]", rows)
		}
	case profile.TagUnion:
		for _, m := range d.Members {
			walk(m, prefix, rows)
		}
	}
}

// typeLabel names a descriptor's type; union members are joined sorted,
// with null listed last since nullability has its own column.
func typeLabel(d *profile.Descriptor) string {
	if d == nil {
		return "unknown"
	}
	if d.Tag != profile.TagUnion {
		return string(d.Tag)
	}
	tags := make([]string, 0, len(d.Members))
	hasNull := false
	for tag := range d.Members {
		if tag == profile.TagNull {
			hasNull = true
			continue
		}
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	if len(tags) == 0 && hasNull {
		return string(profile.TagNull)
	}
	return strings.Join(tags, "|")
}

func nullable(d *profile.Descriptor) bool {
	if d == nil {
		return false
	}
	if d.Tag == profile.TagNull {
		return true
	}
	if d.Tag == profile.TagUnion {
		_, ok := d.Members[profile.TagNull]
		return ok
	}
	return false
}

func distinct(d *profile.Descriptor) int {
	if d == nil {
		return 0
	}
	if d.Tag == profile.TagUnion {
		n := 0
		for _, m := range d.Members {
			n += m.Unique
		}
		return n
	}
	return d.Unique
}

func exampleValues(d *profile.Descriptor) []string {
	if d == nil || len(d.Values) == 0 {
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
	return keys
}

// Render writes the profile summary and field table to w.
func Render(w io.Writer, p *profile.Profile) error {
	printer := message.NewPrinter(language.English)

	if _, err := printer.Fprintf(w, "documents: %d\n", p.Documents); err != nil {
		return err
	}
	if len(p.Skipped) > 0 {
		printer.Fprintf(w, "skipped: %d\n", len(p.Skipped))
		for _, s := range p.Skipped {
			fmt.Fprintf(w, "  [%d] %s\n", s.Index, s.Reason)
		}
	}
	if p.Ambiguous > 0 {
		printer.Fprintf(w, "ambiguous positions: %d\n", p.Ambiguous)
	}
	if p.Schema == nil {
		_, err := fmt.Fprintln(w, "no schema: empty corpus")
		return err
	}

	rows := Rows(p)
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "root: %s\n", typeLabel(p.Schema))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTYPE\tPRESENCE\tOPTIONAL\tNULLABLE\tDISTINCT\tEXAMPLES")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%v\t%v\t%s\t%s\n",
			row.Path,
			row.Type,
			row.Presence*100,
			row.Optional,
			row.Nullable,
			distinctLabel(row.Distinct),
			strings.Join(row.Examples, ", "),
		)
	}
	return tw.Flush()
}

func distinctLabel(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}
