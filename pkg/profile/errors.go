package profile

import (
	"errors"
	"fmt"
)

// ErrFinalized is returned when an aggregation pass is used after Finalize.
var ErrFinalized = errors.New("profile: aggregation already finalized")

// ErrSampleLimit is returned by Add once the configured sample limit has
// been reached. The aggregate is unchanged; the caller should stop
// feeding documents and call Finalize.
var ErrSampleLimit = errors.New("profile: sample limit reached")

// DecodeError reports a value that is not part of the supported tree
// model (mappings, sequences, and scalars). The document carrying it is
// skipped, or aborts the pass under fail-fast.
type DecodeError struct {
	Value any
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("profile: cannot infer type for value of type %T", e.Value)
}

// DepthExceededError reports nesting beyond the hard recursion limit.
// It is only produced when no explicit maximum depth is configured;
// a configured maximum truncates instead.
type DepthExceededError struct {
	Depth int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("profile: document nesting exceeds %d levels", e.Depth)
}
