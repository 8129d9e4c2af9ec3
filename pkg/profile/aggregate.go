package profile

import "fmt"

// Options configure one aggregation pass.
type Options struct {
	// MaxDepth truncates document recursion below this nesting depth,
	// recording a truncation marker. Zero enforces a hard internal limit
	// whose breach fails the document instead.
	MaxDepth int

	// SampleLimit stops accepting documents after this many. Zero means
	// unlimited.
	SampleLimit int

	// FailFast aborts the pass on the first decode or walk failure
	// instead of recording a skipped-document diagnostic.
	FailFast bool

	// TreatNullAsAbsent treats an explicit null field value as a missing
	// field: it does not increment the field's presence count.
	TreatNullAsAbsent bool

	// ValueLimit caps distinct-value histograms at finalization. Zero
	// applies DefaultValueLimit; a negative value disables value
	// tracking entirely. Values above DefaultValueLimit are clamped,
	// since merging already collapses histograms past that bound.
	ValueLimit int

	// TrackCoverage records which documents contained each field path in
	// per-path bitmaps, exposed as Profile.Coverage. Sequential passes
	// only.
	TrackCoverage bool
}

func (o Options) walkOptions() WalkOptions {
	return WalkOptions{
		MaxDepth:          o.MaxDepth,
		TreatNullAsAbsent: o.TreatNullAsAbsent,
		TrackValues:       o.ValueLimit >= 0,
	}
}

func (o Options) valueLimit() int {
	switch {
	case o.ValueLimit < 0:
		return 0
	case o.ValueLimit == 0 || o.ValueLimit > DefaultValueLimit:
		return DefaultValueLimit
	default:
		return o.ValueLimit
	}
}

// Skip is a skipped-document diagnostic: the document's position in the
// input sequence and the reason it was excluded from the aggregate.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Profile is the finalized outcome of an aggregation pass.
type Profile struct {
	// Schema is the root descriptor. Nil when no document was accepted.
	Schema *Descriptor `json:"schema"`

	// Documents is the number of documents folded into the schema.
	// Skipped documents are not counted.
	Documents int64 `json:"documents"`

	// Ambiguous is the number of union nodes in the schema.
	Ambiguous int `json:"ambiguous"`

	Skipped []Skip `json:"skipped,omitempty"`

	// Coverage is populated when Options.TrackCoverage is set.
	Coverage *Coverage `json:"-"`
}

// Aggregator folds documents into one running aggregate descriptor. It
// owns the aggregate exclusively for the lifetime of a pass: construct
// one per corpus, feed it sequentially, finalize exactly once. It is not
// safe for concurrent use; see AggregateParallel for the parallel
// strategy.
type Aggregator struct {
	opts      Options
	schema    *Descriptor
	documents int64
	next      int
	skipped   []Skip
	coverage  *Coverage
	finalized bool
}

// New creates an aggregator for one pass over a corpus.
func New(opts Options) *Aggregator {
	a := &Aggregator{opts: opts}
	if opts.TrackCoverage {
		a.coverage = newCoverage()
	}
	return a
}

// Documents returns the number of documents accepted so far.
func (a *Aggregator) Documents() int64 { return a.documents }

// Add walks one decoded document and merges it into the running
// aggregate, incrementing the document counter by exactly 1 regardless
// of the document's size or structure. A document that fails to walk is
// recorded as a skipped-document diagnostic and Add returns nil, unless
// fail-fast is configured, in which case the failure is returned and the
// pass must be abandoned.
func (a *Aggregator) Add(doc any) error {
	if a.finalized {
		return ErrFinalized
	}
	if a.opts.SampleLimit > 0 && a.documents >= int64(a.opts.SampleLimit) {
		return ErrSampleLimit
	}

	idx := a.next
	a.next++

	d, err := WalkWithOptions(doc, a.opts.walkOptions())
	if err != nil {
		if a.opts.FailFast {
			return fmt.Errorf("document %d: %w", idx, err)
		}
		a.skipped = append(a.skipped, Skip{Index: idx, Reason: err.Error()})
		return nil
	}

	if a.coverage != nil {
		a.coverage.record(uint32(a.documents), d)
	}
	a.schema = merge(a.schema, d)
	a.documents++
	return nil
}

// SkipDocument records a document the caller could not decode, keeping
// the diagnostic index aligned with the input sequence. Under fail-fast
// it returns an error instead.
func (a *Aggregator) SkipDocument(reason string) error {
	if a.finalized {
		return ErrFinalized
	}
	idx := a.next
	a.next++
	if a.opts.FailFast {
		return fmt.Errorf("document %d: %s", idx, reason)
	}
	a.skipped = append(a.skipped, Skip{Index: idx, Reason: reason})
	return nil
}

// Finalize annotates the aggregate with optionality and length
// statistics and returns the profile. It must be called exactly once,
// after the last document; the aggregator is unusable afterwards. The
// pass is purely derivational: it reads counts already recorded and
// never alters them.
func (a *Aggregator) Finalize() (*Profile, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true

	if a.schema != nil {
		finalizeDescriptor(a.schema, a.opts.valueLimit())
	}

	p := &Profile{
		Schema:    a.schema,
		Documents: a.documents,
		Skipped:   a.skipped,
		Coverage:  a.coverage,
	}
	if a.schema != nil {
		p.Ambiguous = countUnions(a.schema)
	}
	return p, nil
}

func finalizeDescriptor(d *Descriptor, valueLimit int) {
	if d == nil {
		return
	}
	switch d.Tag {
	case TagObject:
		for _, f := range d.Fields {
			f.Optional = f.Presence < d.Count
			finalizeDescriptor(f.Schema, valueLimit)
		}
	case TagArray:
		if d.Lengths != nil {
			d.Lengths.PossiblyEmpty = d.Lengths.Min == 0
		}
		finalizeDescriptor(d.Elem, valueLimit)
	case TagUnion:
		for _, m := range d.Members {
			finalizeDescriptor(m, valueLimit)
		}
	default:
		if len(d.Values) > valueLimit {
			d.Values = nil
			d.Unique = 0
		}
	}
}

// countUnions counts union nodes across the descriptor tree.
func countUnions(d *Descriptor) int {
	if d == nil {
		return 0
	}
	switch d.Tag {
	case TagUnion:
		n := 1
		for _, m := range d.Members {
			n += countUnions(m)
		}
		return n
	case TagObject:
		n := 0
		for _, f := range d.Fields {
			n += countUnions(f.Schema)
		}
		return n
	case TagArray:
		return countUnions(d.Elem)
	}
	return 0
}
