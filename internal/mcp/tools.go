package mcp

import "github.com/mark3labs/mcp-go/mcp"

var extractToolDef = mcp.NewTool("fragment_extract",
	mcp.WithDescription("Extract fragments from source files. Returns fragment summaries; with save=true the run is stored and can be woven or browsed later."),
	mcp.WithArray("paths",
		mcp.Required(),
		mcp.Description("Source files to scan, in order"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithBoolean("save",
		mcp.Description("Store the extraction as a new run"),
	),
)

var listFragmentsToolDef = mcp.NewTool("fragment_list",
	mcp.WithDescription("List the fragments of a saved run in id order, without content."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("run_id",
		mcp.Description("Run id (default: latest run)"),
	),
	mcp.WithString("pattern",
		mcp.Description("Regular expression over fragment ids"),
	),
)

var fetchToolDef = mcp.NewTool("fragment_fetch",
	mcp.WithDescription("Fetch one fragment of a saved run, including its content."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Fragment id"),
	),
	mcp.WithString("run_id",
		mcp.Description("Run id (default: latest run)"),
	),
)

var fetchManyToolDef = mcp.NewTool("fragment_fetch_many",
	mcp.WithDescription("Fetch several fragments of a saved run. Missing ids are reported in errors without failing the call."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("ids",
		mcp.Required(),
		mcp.Description("Fragment ids (max 50)"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("run_id",
		mcp.Description("Run id (default: latest run)"),
	),
)

var weaveToolDef = mcp.NewTool("fragment_weave",
	mcp.WithDescription("Resolve fragment references in prose text against a saved run and return the woven text."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Prose containing fragment references"),
	),
	mcp.WithString("path",
		mcp.Description("Prose path used for relpath fields and error locations (default: input.md)"),
	),
	mcp.WithString("run_id",
		mcp.Description("Run id (default: latest run)"),
	),
)

var listRunsToolDef = mcp.NewTool("run_list",
	mcp.WithDescription("List saved extraction runs, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit",
		mcp.Description("Maximum runs to return (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Runs to skip"),
	),
)

var latestRunToolDef = mcp.NewTool("run_latest",
	mcp.WithDescription("Return the most recently saved run, or null when none exists."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteRunToolDef = mcp.NewTool("run_delete",
	mcp.WithDescription("Delete a saved run and its fragments."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Run id"),
	),
)
