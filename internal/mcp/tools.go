package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchToolDef = mcp.NewTool("file_search",
	mcp.WithDescription("Search the media catalogue. Tries the full-text index first, then a literal substring match, then typo correction for short titles on the first page."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search text; at least 2 characters")),
	mcp.WithNumber("offset", mcp.Description("Result offset (default 0)"), mcp.Min(0)),
	mcp.WithNumber("max_results", mcp.Description("Page size (default from config)"), mcp.Min(1), mcp.Max(100)),
	mcp.WithNumber("chat_id", mcp.Description("Chat the results are shown in")),
	mcp.WithNumber("owner_id", mcp.Description("User allowed to page through the results")),
)

var pageToolDef = mcp.NewTool("file_page",
	mcp.WithDescription("Fetch the page a pagination callback (page#<token>#<offset>) points at."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("callback", mcp.Required(), mcp.Description("Callback data from a previous search")),
	mcp.WithNumber("requester_id", mcp.Description("User asking for the page")),
	mcp.WithNumber("max_results", mcp.Description("Page size (default from config)"), mcp.Min(1), mcp.Max(100)),
)

var getToolDef = mcp.NewTool("file_get",
	mcp.WithDescription("Get one file record by id."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("File id")),
)

var saveToolDef = mcp.NewTool("file_save",
	mcp.WithDescription("Index a media file. Returns result \"suc\" (created), \"dup\" (existing record updated) or \"err\"."),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithString("file_ref", mcp.Required(), mcp.Description("Provider file reference (base64url)")),
	mcp.WithString("file_name", mcp.Required(), mcp.Description("File name; mentions, URLs and separators are cleaned")),
	mcp.WithString("caption", mcp.Description("Caption text")),
	mcp.WithNumber("file_size", mcp.Description("Size in bytes"), mcp.Min(0)),
)

var updateCaptionToolDef = mcp.NewTool("file_update_caption",
	mcp.WithDescription("Replace a file's caption. Clears the search cache."),
	mcp.WithString("id", mcp.Required(), mcp.Description("File id")),
	mcp.WithString("caption", mcp.Required(), mcp.Description("New caption")),
)

var updateQualityToolDef = mcp.NewTool("file_update_quality",
	mcp.WithDescription("Re-derive a file's quality tag from a new file name. Clears the search cache."),
	mcp.WithString("id", mcp.Required(), mcp.Description("File id")),
	mcp.WithString("file_name", mcp.Required(), mcp.Description("Name to detect quality from")),
)

var deleteToolDef = mcp.NewTool("file_delete",
	mcp.WithDescription("Delete every file whose name contains pattern (literal, case-insensitive). Clears the search cache."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("pattern", mcp.Required(), mcp.Description("Text to match; at least 2 characters")),
)

var healthToolDef = mcp.NewTool("catalog_health",
	mcp.WithDescription("Report store connectivity, file count and cache size."),
	mcp.WithReadOnlyHintAnnotation(true),
)
