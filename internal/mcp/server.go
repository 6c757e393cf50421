// Package mcp exposes the file index as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lightspeed/internal/config"
	"github.com/standardbeagle/lightspeed/internal/core"
	lsdebug "github.com/standardbeagle/lightspeed/internal/debug"
	"github.com/standardbeagle/lightspeed/internal/version"
)

const (
	serverName = "lightspeed"

	toolSearchFiles = "search_files"
	toolIndexInfo   = "index_info"
)

// Source supplies the generation each call runs against. A watcher swaps
// generations underneath; every call reads Current once and uses that
// generation throughout.
type Source interface {
	Current() *core.Index
}

// StaticSource serves a single generation that never changes.
type StaticSource struct {
	Index *core.Index
}

func (s StaticSource) Current() *core.Index {
	return s.Index
}

// Server wires the index tools into an MCP server.
type Server struct {
	source Source
	cfg    *config.Config
	server *mcp.Server
}

// NewServer registers the tools. cfg supplies defaults for parameters a
// caller leaves out; nil means config.Default().
func NewServer(source Source, cfg *config.Config) (*Server, error) {
	if source == nil {
		return nil, fmt.Errorf("mcp: index source is required")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		source: source,
		cfg:    cfg,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version.Info(),
		}, nil),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        toolSearchFiles,
		Description: "Search indexed file names and paths. Substring match by default; set fuzzy for approximate matching that tolerates typos and skipped characters.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Text to find in file names or paths (case-insensitive)",
				},
				"fuzzy": {
					Type:        "boolean",
					Description: "Use approximate matching",
				},
				"threshold": {
					Type:        "integer",
					Description: "Minimum fuzzy score kept by the parallel scorer",
				},
				"max": {
					Type:        "integer",
					Description: "Maximum results returned",
				},
				"strategy": {
					Type:        "string",
					Description: "Fuzzy strategy",
					Enum:        []any{"parallel", "symspell", "hybrid"},
				},
			},
			Required: []string{"query"},
		},
	}, s.recoverFromPanic(toolSearchFiles, s.handleSearchFiles))

	s.server.AddTool(&mcp.Tool{
		Name:        toolIndexInfo,
		Description: "Report the size, build options, indexed roots and age of the loaded index.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.recoverFromPanic(toolIndexInfo, s.handleIndexInfo))
}

type toolHandler = func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// recoverFromPanic turns a handler panic into an error result so one bad
// call does not take down the stdio session.
func (s *Server) recoverFromPanic(operation string, handler toolHandler) toolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				lsdebug.LogMCP("PANIC in %s: %v\n%s", operation, r, debug.Stack())
				result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

// Start serves on stdin/stdout until ctx is done or the client disconnects.
// Debug output to stdio stays suppressed afterwards.
func (s *Server) Start(ctx context.Context) error {
	lsdebug.SetMCPMode(true)
	lsdebug.LogMCP("starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves over an arbitrary transport.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// GetHandlerForTesting returns the handler registered for toolName.
func (s *Server) GetHandlerForTesting(toolName string) toolHandler {
	switch toolName {
	case toolSearchFiles:
		return s.recoverFromPanic(toolName, s.handleSearchFiles)
	case toolIndexInfo:
		return s.recoverFromPanic(toolName, s.handleIndexInfo)
	default:
		return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return createErrorResponse("GetHandlerForTesting", fmt.Errorf("unknown tool: %s", toolName))
		}
	}
}
