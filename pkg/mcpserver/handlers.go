package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codecortex/codecortex/pkg/model"
)

func (s *Server) handleIndexCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, errInvalidParams("path is required")
	}

	summary, err := s.query.IndexCode(ctx, path)
	if err != nil {
		return nil, errFileNotFound("%s", err.Error())
	}
	return jsonResult(summary)
}

func (s *Server) handleGetSymbol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, errInvalidParams("name is required")
	}
	includeSource, _ := args["include_source"].(bool)

	return jsonResult(s.query.GetSymbol(name, includeSource))
}

func (s *Server) handleGetSymbolReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, errInvalidParams("name is required")
	}
	return jsonResult(s.query.GetSymbolReferences(name))
}

func (s *Server) handleFindSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, errInvalidParams("query is required")
	}
	kind, _ := args["kind"].(string)

	return jsonResult(s.query.FindSymbols(query, model.Kind(kind)))
}

func (s *Server) handleCodeSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	queryText, ok := args["query"].(string)
	if !ok || queryText == "" {
		return nil, errInvalidParams("query is required")
	}
	maxResults := intArg(args, "max_results", 10)
	contextLines := intArg(args, "context_lines", 2)

	return jsonResult(s.query.CodeSearch(queryText, maxResults, contextLines))
}

func (s *Server) handleGetFileOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, errInvalidParams("file_path is required")
	}

	outline, ok := s.query.GetFileOutline(filePath)
	if !ok {
		return nil, errFileNotFound("file %q is not indexed", filePath)
	}
	return jsonResult(outline)
}

func (s *Server) handleGetDirectoryOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	dirPath, ok := args["directory_path"].(string)
	if !ok || dirPath == "" {
		return nil, errInvalidParams("directory_path is required")
	}

	var kinds []model.Kind
	if raw, ok := args["includes"].([]any); ok {
		for _, v := range raw {
			if name, ok := v.(string); ok {
				kinds = append(kinds, model.Kind(name))
			}
		}
	}

	return jsonResult(s.query.GetDirectoryOutline(dirPath, kinds))
}

func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errInternal("marshal result: %s", err.Error())
	}
	return mcp.NewToolResultText(string(b)), nil
}
