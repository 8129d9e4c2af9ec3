package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docprobe/docprobe/internal/config"
	"github.com/docprobe/docprobe/internal/filter"
)

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	engine, err := filter.NewEngine(16)
	require.NoError(t, err)
	return &Deps{
		Config: &config.Config{ValueLimit: config.DefaultValueLimitValue},
		Filter: engine,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var coded *CodedError
	require.True(t, errors.As(err, &coded), "want coded error, got %v", err)
	assert.Equal(t, code, coded.Code)
}

func TestToolProfileDocuments(t *testing.T) {
	handler := ToolProfileDocuments(newTestDeps(t))

	_, out, err := handler(context.Background(), nil, ProfileDocumentsInput{
		Documents: []any{
			map[string]any{"id": float64(1), "name": "a"},
			map[string]any{"id": float64(2)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), out.Documents)
	assert.Equal(t, 0, out.Ambiguous)
	assert.Empty(t, out.Skipped)

	schema, ok := out.Schema.(map[string]any)
	require.True(t, ok, "schema should round-trip to a map")
	assert.Equal(t, "object", schema["tag"])
}

func TestToolProfileDocuments_Union(t *testing.T) {
	handler := ToolProfileDocuments(newTestDeps(t))

	_, out, err := handler(context.Background(), nil, ProfileDocumentsInput{
		Documents: []any{
			map[string]any{"v": float64(1)},
			map[string]any{"v": "s"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Ambiguous)
}

func TestToolProfileDocuments_Expression(t *testing.T) {
	handler := ToolProfileDocuments(newTestDeps(t))

	_, out, err := handler(context.Background(), nil, ProfileDocumentsInput{
		Documents: []any{
			map[string]any{"payload": map[string]any{"id": float64(1)}, "noise": true},
		},
		Expression: ".payload",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Documents)

	schema := out.Schema.(map[string]any)
	fields := schema["fields"].(map[string]any)
	assert.Contains(t, fields, "id")
	assert.NotContains(t, fields, "noise")
}

func TestToolProfileDocuments_BadExpressionSkips(t *testing.T) {
	handler := ToolProfileDocuments(newTestDeps(t))

	_, out, err := handler(context.Background(), nil, ProfileDocumentsInput{
		Documents: []any{
			"not an object",
			map[string]any{"x": float64(1)},
		},
		Expression: ".x",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Documents)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, 0, out.Skipped[0].Index)
}

func TestToolProfileDocuments_EmptyInput(t *testing.T) {
	handler := ToolProfileDocuments(newTestDeps(t))

	_, _, err := handler(context.Background(), nil, ProfileDocumentsInput{})
	assertCode(t, err, ErrCodeInvalidInput)
}

func TestToolProfileDocuments_SampleLimit(t *testing.T) {
	handler := ToolProfileDocuments(newTestDeps(t))

	_, out, err := handler(context.Background(), nil, ProfileDocumentsInput{
		Documents: []any{
			map[string]any{"a": float64(1)},
			map[string]any{"a": float64(2)},
			map[string]any{"a": float64(3)},
		},
		SampleLimit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Documents)
}

func TestToolProfileFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docs.jsonl")
	content := `{"id": 1, "name": "a"}
{"id": 2}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	handler := ToolProfileFiles(newTestDeps(t))

	_, out, err := handler(context.Background(), nil, ProfileFilesInput{
		Paths: []string{path},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Documents)

	schema := out.Schema.(map[string]any)
	fields := schema["fields"].(map[string]any)
	name := fields["name"].(map[string]any)
	assert.Equal(t, true, name["optional"])
}

func TestToolProfileFiles_MissingPath(t *testing.T) {
	handler := ToolProfileFiles(newTestDeps(t))

	_, _, err := handler(context.Background(), nil, ProfileFilesInput{
		Paths: []string{filepath.Join(t.TempDir(), "absent.json")},
	})
	assertCode(t, err, ErrCodeNotFound)
}

func TestToolProfileFiles_NoPaths(t *testing.T) {
	handler := ToolProfileFiles(newTestDeps(t))

	_, _, err := handler(context.Background(), nil, ProfileFilesInput{})
	assertCode(t, err, ErrCodeInvalidInput)
}

func TestToolExportSchema(t *testing.T) {
	handler := ToolExportSchema(newTestDeps(t))

	_, out, err := handler(context.Background(), nil, ExportSchemaInput{
		Documents: []any{
			map[string]any{"id": float64(1), "name": "a"},
			map[string]any{"id": float64(2)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Documents)

	schema, ok := out.Schema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"id"}, schema["required"])
}

func TestToolExportSchema_EmptyInput(t *testing.T) {
	handler := ToolExportSchema(newTestDeps(t))

	_, _, err := handler(context.Background(), nil, ExportSchemaInput{})
	assertCode(t, err, ErrCodeInvalidInput)
}

func TestOutputSchemas(t *testing.T) {
	assert.NotPanics(t, func() {
		CheckOutputSchema[ProfileOutput]("docprobe_profile_documents")
		CheckOutputSchema[ExportSchemaOutput]("docprobe_export_schema")
	})
}

func TestCheckOutputSchema_panicsOnNilSlice(t *testing.T) {
	type BadOutput struct {
		Items []string `json:"items"` // no omitzero → nil → null → schema expects array
	}
	assert.Panics(t, func() {
		CheckOutputSchema[BadOutput]("test_bad_tool")
	})
}

func TestCheckOutputSchema_okWithAny(t *testing.T) {
	assert.NotPanics(t, func() {
		CheckOutputSchema[any]("test_any_tool")
	})
}
