package profile

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Coverage tracks, per field path, the set of document ordinals that
// contained the path. Paths use dotted field names with "[]" marking
// array elements ("user.tags[]"). Bitmaps stay cheap even for large
// corpora, so coverage can be left on for ad-hoc co-occurrence queries.
type Coverage struct {
	paths map[string]*roaring.Bitmap
}

func newCoverage() *Coverage {
	return &Coverage{paths: make(map[string]*roaring.Bitmap)}
}

// record registers every path of a single-document descriptor under the
// given document ordinal.
func (c *Coverage) record(ordinal uint32, d *Descriptor) {
	c.walk(ordinal, d, "")
}

func (c *Coverage) walk(ordinal uint32, d *Descriptor, prefix string) {
	if d == nil {
		return
	}
	switch d.Tag {
	case TagObject:
		for name, f := range d.Fields {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			c.add(ordinal, path)
			c.walk(ordinal, f.Schema, path)
		}
	case TagArray:
		c.walk(ordinal, d.Elem, prefix+"[]")
	case TagUnion:
		for _, m := range d.Members {
			c.walk(ordinal, m, prefix)
		}
	}
}

func (c *Coverage) add(ordinal uint32, path string) {
	bm, ok := c.paths[path]
	if !ok {
		bm = roaring.New()
		c.paths[path] = bm
	}
	bm.Add(ordinal)
}

// Paths returns every tracked field path in sorted order.
func (c *Coverage) Paths() []string {
	out := make([]string, 0, len(c.paths))
	for p := range c.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Seen returns how many documents contained the path.
func (c *Coverage) Seen(path string) uint64 {
	if bm, ok := c.paths[path]; ok {
		return bm.GetCardinality()
	}
	return 0
}

// Both returns how many documents contained both paths.
func (c *Coverage) Both(p, q string) uint64 {
	a, ok := c.paths[p]
	if !ok {
		return 0
	}
	b, ok := c.paths[q]
	if !ok {
		return 0
	}
	return roaring.And(a, b).GetCardinality()
}
