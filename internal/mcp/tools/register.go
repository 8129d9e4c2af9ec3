package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "docprobe_profile_documents",
		Description: "Infer a structural profile from documents passed inline. Returns the document count, the number of ambiguous (union-typed) positions, skip diagnostics, and the schema tree with per-field presence counts, optionality, value histograms, and array length ranges. Pass expression to project each document through jq first.",
	}, ToolProfileDocuments(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "docprobe_profile_files",
		Description: "Infer a structural profile from JSON, JSONL, or YAML files. Accepts files, directories, and glob patterns; set recursive to descend into subdirectories. Undecodable documents are skipped and reported, not fatal. Returns the same profile shape as docprobe_profile_documents.",
	}, ToolProfileFiles(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "docprobe_export_schema",
		Description: "Profile documents passed inline and return a draft 2020-12 JSON Schema: anyOf for union-typed positions, required from fields present in every document, and example values from tracked histograms. The schema is compile-checked before it is returned.",
	}, ToolExportSchema(d))
}
