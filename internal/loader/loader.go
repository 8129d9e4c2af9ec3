// Package loader reads schemaless documents from files, directories,
// globs, and MongoDB collections, decoding them into the tree values the
// profiler consumes.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docprobe/docprobe/pkg/profile"
)

// Source yields decoded documents one at a time. Next returns io.EOF
// when the source is exhausted. A *DecodeError return reports a single
// undecodable document; the source remains usable and the following
// call advances past it. Any other error is terminal.
type Source interface {
	Next(ctx context.Context) (any, error)
	Close() error
}

// DecodeError reports a document that could not be decoded.
type DecodeError struct {
	Source string
	Line   int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Transform rewrites one document before it reaches the aggregator.
// A failing transform skips the document.
type Transform func(ctx context.Context, doc any) (any, error)

// Feed drains src into agg, recording per-document decode and transform
// failures as skipped-document diagnostics. It returns early without
// error once the aggregator's sample limit is reached. transform may be
// nil.
func Feed(ctx context.Context, src Source, agg *profile.Aggregator, transform Transform) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			if err := agg.SkipDocument(decodeErr.Error()); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if transform != nil {
			doc, err = transform(ctx, doc)
			if err != nil {
				if err := agg.SkipDocument(err.Error()); err != nil {
					return err
				}
				continue
			}
		}

		if err := agg.Add(doc); err != nil {
			if errors.Is(err, profile.ErrSampleLimit) {
				return nil
			}
			return err
		}
	}
}

// Multi chains sources, consuming each in turn.
func Multi(sources ...Source) Source {
	return &multiSource{sources: sources}
}

type multiSource struct {
	sources []Source
	idx     int
}

func (m *multiSource) Next(ctx context.Context) (any, error) {
	for m.idx < len(m.sources) {
		doc, err := m.sources[m.idx].Next(ctx)
		if errors.Is(err, io.EOF) {
			if cerr := m.sources[m.idx].Close(); cerr != nil {
				return nil, cerr
			}
			m.idx++
			continue
		}
		return doc, err
	}
	return nil, io.EOF
}

func (m *multiSource) Close() error {
	var first error
	for ; m.idx < len(m.sources); m.idx++ {
		if err := m.sources[m.idx].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
