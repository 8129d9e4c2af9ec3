// Package filter applies jq projections to documents before profiling,
// so a corpus can be narrowed to the subtree of interest without a
// separate preprocessing step.
package filter

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/itchyny/gojq"

	"github.com/docprobe/docprobe/internal/loader"
)

// Engine compiles and runs jq expressions, keeping an LRU cache of
// compiled programs so per-document application stays cheap.
type Engine struct {
	programs *lru.Cache[string, *gojq.Code]
}

// NewEngine creates a filter engine caching up to maxPrograms compiled
// expressions.
func NewEngine(maxPrograms int) (*Engine, error) {
	if maxPrograms <= 0 {
		maxPrograms = 16
	}
	cache, err := lru.New[string, *gojq.Code](maxPrograms)
	if err != nil {
		return nil, err
	}
	return &Engine{programs: cache}, nil
}

func (e *Engine) compile(expression string) (*gojq.Code, error) {
	if code, ok := e.programs.Get(expression); ok {
		return code, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("filter: invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("filter: compile jq expression: %w", err)
	}

	e.programs.Add(expression, code)
	return code, nil
}

// Apply runs the expression against one document and returns its first
// output value. Expressions that produce no output or an error value
// fail the document.
func (e *Engine) Apply(ctx context.Context, expression string, doc any) (any, error) {
	code, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, doc)
	v, ok := iter.Next()
	if !ok {
		return nil, fmt.Errorf("filter: expression %q produced no output", expression)
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return v, nil
}

// Transform adapts an expression to the loader's per-document hook.
// An empty expression yields a nil transform.
func (e *Engine) Transform(expression string) loader.Transform {
	if expression == "" {
		return nil
	}
	return func(ctx context.Context, doc any) (any, error) {
		return e.Apply(ctx, expression, doc)
	}
}

// Cached returns the number of compiled programs currently cached.
func (e *Engine) Cached() int {
	return e.programs.Len()
}
