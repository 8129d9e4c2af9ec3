package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docprobe/docprobe/internal/loader"
	"github.com/docprobe/docprobe/pkg/export"
	"github.com/docprobe/docprobe/pkg/profile"
)

// ProfileDocumentsInput is the input for docprobe_profile_documents.
type ProfileDocumentsInput struct {
	Documents    []any  `json:"documents" jsonschema:"Documents to profile, each an arbitrary JSON value. At most 1000 per call."`
	Expression   string `json:"expression,omitempty" jsonschema:"Optional jq expression applied to each document before profiling"`
	MaxDepth     int    `json:"max_depth,omitempty" jsonschema:"Truncate document nesting below this depth, marking the cut"`
	SampleLimit  int    `json:"sample_limit,omitempty" jsonschema:"Stop accepting documents after this many"`
	ValueLimit   int    `json:"value_limit,omitempty" jsonschema:"Cap on distinct values tracked per field (default 32, -1 disables tracking)"`
	NullAsAbsent bool   `json:"null_as_absent,omitempty" jsonschema:"Treat explicit null field values as missing fields"`
}

// SkipInfo reports one document excluded from the aggregate.
type SkipInfo struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ProfileOutput is the structured result of a profiling pass.
type ProfileOutput struct {
	Documents int64      `json:"documents"`
	Ambiguous int        `json:"ambiguous"`
	Skipped   []SkipInfo `json:"skipped,omitzero"`
	Schema    any        `json:"schema,omitempty"`
}

// profileInline folds inline documents into one aggregate, applying the
// optional jq expression first. Documents the expression or the walk
// rejects become skip diagnostics, not call failures.
func (d *Deps) profileInline(ctx context.Context, docs []any, expression string, opts profile.Options) (*profile.Profile, error) {
	agg := profile.New(opts)
	for _, doc := range docs {
		if expression != "" {
			transformed, err := d.Filter.Apply(ctx, expression, doc)
			if err != nil {
				if skipErr := agg.SkipDocument(err.Error()); skipErr != nil {
					return nil, WrapProfileError(skipErr)
				}
				continue
			}
			doc = transformed
		}
		if err := agg.Add(doc); err != nil {
			if errors.Is(err, profile.ErrSampleLimit) {
				break
			}
			return nil, WrapProfileError(err)
		}
	}
	p, err := agg.Finalize()
	if err != nil {
		return nil, WrapProfileError(err)
	}
	return p, nil
}

func profileOutput(p *profile.Profile) (ProfileOutput, error) {
	out := ProfileOutput{
		Documents: p.Documents,
		Ambiguous: p.Ambiguous,
		Skipped:   skipInfos(p.Skipped),
	}
	if p.Schema != nil {
		schema, err := toAny(p.Schema)
		if err != nil {
			return ProfileOutput{}, WrapProfileError(err)
		}
		out.Schema = schema
	}
	return out, nil
}

// ToolProfileDocuments profiles documents passed inline in the call.
func ToolProfileDocuments(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProfileDocumentsInput) (*sdkmcp.CallToolResult, ProfileOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProfileDocumentsInput) (*sdkmcp.CallToolResult, ProfileOutput, error) {
		if len(input.Documents) == 0 {
			return nil, ProfileOutput{}, ErrInvalidInput("documents is required")
		}
		if len(input.Documents) > maxInlineDocuments {
			return nil, ProfileOutput{}, ErrInvalidInput(fmt.Sprintf("at most %d documents per call", maxInlineDocuments))
		}

		opts := d.options(input.MaxDepth, input.SampleLimit, input.ValueLimit, input.NullAsAbsent)
		p, err := d.profileInline(ctx, input.Documents, input.Expression, opts)
		if err != nil {
			return nil, ProfileOutput{}, err
		}

		out, err := profileOutput(p)
		if err != nil {
			return nil, ProfileOutput{}, err
		}
		return nil, out, nil
	}
}

// ProfileFilesInput is the input for docprobe_profile_files.
type ProfileFilesInput struct {
	Paths        []string `json:"paths" jsonschema:"Files, directories, or glob patterns to profile. Supported extensions: .json, .jsonl, .jsonlines, .yaml, .yml."`
	Recursive    bool     `json:"recursive,omitempty" jsonschema:"Descend into subdirectories of directory paths"`
	Expression   string   `json:"expression,omitempty" jsonschema:"Optional jq expression applied to each document before profiling"`
	MaxDepth     int      `json:"max_depth,omitempty" jsonschema:"Truncate document nesting below this depth, marking the cut"`
	SampleLimit  int      `json:"sample_limit,omitempty" jsonschema:"Stop accepting documents after this many"`
	ValueLimit   int      `json:"value_limit,omitempty" jsonschema:"Cap on distinct values tracked per field (default 32, -1 disables tracking)"`
	NullAsAbsent bool     `json:"null_as_absent,omitempty" jsonschema:"Treat explicit null field values as missing fields"`
}

// openPath resolves one input path into a document source. Paths with
// glob metacharacters expand as patterns, directories enumerate their
// supported files, and anything else must be a supported file.
func openPath(path string, recursive bool) (loader.Source, error) {
	if strings.ContainsAny(path, "*?[") {
		return loader.Glob(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrNotFound("path", path)
	}
	if info.IsDir() {
		return loader.Dir(path, recursive)
	}
	return loader.Files([]string{path}, true)
}

// ToolProfileFiles profiles documents loaded from the filesystem.
func ToolProfileFiles(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProfileFilesInput) (*sdkmcp.CallToolResult, ProfileOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProfileFilesInput) (*sdkmcp.CallToolResult, ProfileOutput, error) {
		if len(input.Paths) == 0 {
			return nil, ProfileOutput{}, ErrInvalidInput("paths is required")
		}

		sources := make([]loader.Source, 0, len(input.Paths))
		for _, path := range input.Paths {
			src, err := openPath(path, input.Recursive)
			if err != nil {
				for _, s := range sources {
					s.Close()
				}
				var coded *CodedError
				if errors.As(err, &coded) {
					return nil, ProfileOutput{}, err
				}
				return nil, ProfileOutput{}, ErrInvalidInput(err.Error())
			}
			sources = append(sources, src)
		}

		src := loader.Multi(sources...)
		defer src.Close()

		opts := d.options(input.MaxDepth, input.SampleLimit, input.ValueLimit, input.NullAsAbsent)
		agg := profile.New(opts)
		if err := loader.Feed(ctx, src, agg, d.Filter.Transform(input.Expression)); err != nil {
			return nil, ProfileOutput{}, WrapProfileError(err)
		}

		p, err := agg.Finalize()
		if err != nil {
			return nil, ProfileOutput{}, WrapProfileError(err)
		}

		out, err := profileOutput(p)
		if err != nil {
			return nil, ProfileOutput{}, err
		}
		return nil, out, nil
	}
}

// ExportSchemaInput is the input for docprobe_export_schema.
type ExportSchemaInput struct {
	Documents    []any  `json:"documents" jsonschema:"Documents to profile, each an arbitrary JSON value. At most 1000 per call."`
	Expression   string `json:"expression,omitempty" jsonschema:"Optional jq expression applied to each document before profiling"`
	MaxDepth     int    `json:"max_depth,omitempty" jsonschema:"Truncate document nesting below this depth, marking the cut"`
	NullAsAbsent bool   `json:"null_as_absent,omitempty" jsonschema:"Treat explicit null field values as missing fields"`
}

// ExportSchemaOutput carries the generated JSON Schema.
type ExportSchemaOutput struct {
	Documents int64      `json:"documents"`
	Skipped   []SkipInfo `json:"skipped,omitzero"`
	Schema    any        `json:"schema"`
}

// ToolExportSchema profiles inline documents and renders the aggregate
// as a draft 2020-12 JSON Schema.
func ToolExportSchema(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportSchemaInput) (*sdkmcp.CallToolResult, ExportSchemaOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportSchemaInput) (*sdkmcp.CallToolResult, ExportSchemaOutput, error) {
		if len(input.Documents) == 0 {
			return nil, ExportSchemaOutput{}, ErrInvalidInput("documents is required")
		}
		if len(input.Documents) > maxInlineDocuments {
			return nil, ExportSchemaOutput{}, ErrInvalidInput(fmt.Sprintf("at most %d documents per call", maxInlineDocuments))
		}

		opts := d.options(input.MaxDepth, 0, 0, input.NullAsAbsent)
		p, err := d.profileInline(ctx, input.Documents, input.Expression, opts)
		if err != nil {
			return nil, ExportSchemaOutput{}, err
		}

		schema, err := export.JSONSchema(p)
		if err != nil {
			return nil, ExportSchemaOutput{}, ErrInvalidInput(err.Error())
		}
		if err := export.CompileCheck(schema); err != nil {
			return nil, ExportSchemaOutput{}, WrapProfileError(err)
		}

		schemaAny, err := toAny(schema)
		if err != nil {
			return nil, ExportSchemaOutput{}, WrapProfileError(err)
		}

		return nil, ExportSchemaOutput{
			Documents: p.Documents,
			Skipped:   skipInfos(p.Skipped),
			Schema:    schemaAny,
		}, nil
	}
}
