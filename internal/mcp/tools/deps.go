// Package tools contains MCP tool implementations for docprobe.
package tools

import (
	"github.com/docprobe/docprobe/internal/config"
	"github.com/docprobe/docprobe/internal/filter"
	"github.com/docprobe/docprobe/pkg/profile"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config *config.Config
	Filter *filter.Engine
}

// maxInlineDocuments bounds the number of documents a single tool call
// may submit inline.
const maxInlineDocuments = 1000

// options maps the server configuration onto one aggregation pass,
// applying the per-call overrides a tool input carries. Zero overrides
// leave the configured value in place. Coverage tracking and fail-fast
// stay off over MCP: a tool call reports skips in its result instead of
// aborting.
func (d *Deps) options(maxDepth, sampleLimit, valueLimit int, nullAsAbsent bool) profile.Options {
	opts := d.Config.ProfileOptions()
	opts.TrackCoverage = false
	opts.FailFast = false
	if maxDepth > 0 {
		opts.MaxDepth = maxDepth
	}
	if sampleLimit > 0 {
		opts.SampleLimit = sampleLimit
	}
	if valueLimit != 0 {
		opts.ValueLimit = valueLimit
	}
	if nullAsAbsent {
		opts.TreatNullAsAbsent = true
	}
	return opts
}
