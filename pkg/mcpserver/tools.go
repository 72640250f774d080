package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func indexCodeTool() mcp.Tool {
	return mcp.NewTool("index_code",
		mcp.WithDescription("Index a file or directory, returning a summary of files indexed and symbols found"),
		mcp.WithString("path", mcp.Required(), mcp.Description("File or directory path to index")),
	)
}

func getSymbolTool() mcp.Tool {
	return mcp.NewTool("get_symbol",
		mcp.WithDescription("Return every symbol with an exact name"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Exact symbol name")),
		mcp.WithBoolean("include_source", mcp.Description("Attach the symbol's source slice")),
	)
}

func getSymbolReferencesTool() mcp.Tool {
	return mcp.NewTool("get_symbol_references",
		mcp.WithDescription("Return every reference to a symbol name plus the total count"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Symbol name to look up references for")),
	)
}

func findSymbolsTool() mcp.Tool {
	return mcp.NewTool("find_symbols",
		mcp.WithDescription("Exact or prefix search over indexed symbol names, optionally filtered by kind"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Identifier or name prefix")),
		mcp.WithString("kind", mcp.Description("Restrict results to this symbol kind")),
	)
}

func codeSearchTool() mcp.Tool {
	return mcp.NewTool("code_search",
		mcp.WithDescription("Full-text BM25 search over indexed file content"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text search query")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 10)")),
		mcp.WithNumber("context_lines", mcp.Description("Lines of context around the matching line (default 2)")),
	)
}

func getFileOutlineTool() mcp.Tool {
	return mcp.NewTool("get_file_outline",
		mcp.WithDescription("Render a file's symbols grouped by kind with line ranges and signatures"),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path of an indexed file")),
	)
}

func getDirectoryOutlineTool() mcp.Tool {
	return mcp.NewTool("get_directory_outline",
		mcp.WithDescription("Render a file-by-file outline of every indexed file under a directory"),
		mcp.WithString("directory_path", mcp.Required(), mcp.Description("Directory path to walk")),
		mcp.WithArray("includes", mcp.Description("Symbol kinds to include (default: class, struct, interface)")),
	)
}
