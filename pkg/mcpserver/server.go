// Package mcpserver exposes the seven query-surface operations (C9) as
// an MCP server speaking line-delimited JSON-RPC over stdio. Grounded on
// the teacher's Server (gnana997-uispec/pkg/mcp/server.go), replacing
// its catalog/validator tool set with codecortex's query.Service and
// adapting the logging middleware unchanged.
package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codecortex/codecortex/pkg/mcplog"
	"github.com/codecortex/codecortex/pkg/query"
)

const serverVersion = "0.1.0"

// Server wraps query.Service with the MCP transport and tool-call logging.
type Server struct {
	mcpServer *server.MCPServer
	query     *query.Service
	logger    *mcplog.Logger // may be nil if logging is disabled
}

// NewServer builds a Server over qs. Pass nil logger to disable tool-call
// observability logging.
func NewServer(qs *query.Service, logger *mcplog.Logger) *Server {
	s := &Server{query: qs, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("codecortex", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: indexCodeTool(), Handler: s.handleIndexCode},
		server.ServerTool{Tool: getSymbolTool(), Handler: s.handleGetSymbol},
		server.ServerTool{Tool: getSymbolReferencesTool(), Handler: s.handleGetSymbolReferences},
		server.ServerTool{Tool: findSymbolsTool(), Handler: s.handleFindSymbols},
		server.ServerTool{Tool: codeSearchTool(), Handler: s.handleCodeSearch},
		server.ServerTool{Tool: getFileOutlineTool(), Handler: s.handleGetFileOutline},
		server.ServerTool{Tool: getDirectoryOutlineTool(), Handler: s.handleGetDirectoryOutline},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout. Blocks until the
// client disconnects or the process is signaled to stop.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the tool-call logger, if one is active.
func (s *Server) Close() error {
	if s.logger != nil {
		return s.logger.Close()
	}
	return nil
}

// loggingMiddleware records every tool call as a JSONL entry (spec §6's
// observability surface, carried from the teacher's ambient stack).
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)
			elapsed := time.Since(start).Milliseconds()

			rb := mcplog.ResponseBytes(result)
			var errStr *string
			if err != nil {
				msg := err.Error()
				errStr = &msg
			}

			entry := mcplog.LogEntry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    elapsed,
				ResponseBytes: rb,
				TokensEst:     rb / 4,
				Error:         errStr,
			}
			_ = s.logger.Write(entry)

			return result, err
		}
	}
}
