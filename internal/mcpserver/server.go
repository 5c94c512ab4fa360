// Package mcpserver exposes the graph's query surface as MCP tools,
// grounded on standardbeagle/lci's internal/mcp server (same
// modelcontextprotocol/go-sdk mcp.Server, jsonschema.Schema input
// schemas, and createJSONResponse/createErrorResponse shape), scaled
// down to the three read tools spec §6 names: related_files,
// file_metadata, pairs_between_files.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/williamfzc/gossiphs/internal/graph"
)

// Server wraps an mcp.Server bound to one built Graph.
type Server struct {
	graph *graph.Graph
	mcp   *mcp.Server
}

// New builds the MCP server and registers its tools.
func New(g *graph.Graph) *Server {
	s := &Server{
		graph: g,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "gossiphs-mcp-server",
			Version: "0.1.0",
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves the MCP protocol over stdio until ctx is canceled, the
// transport the reference server uses for editor/agent integrations.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "related_files",
		Description: "List files related to a given file, ranked by descending relation score.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {Type: "string", Description: "repository-relative file path"},
			},
			Required: []string{"path"},
		},
	}, s.handleRelatedFiles)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "file_metadata",
		Description: "List every symbol site in a file and what it resolves to.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {Type: "string", Description: "repository-relative file path"},
			},
			Required: []string{"path"},
		},
	}, s.handleFileMetadata)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "pairs_between_files",
		Description: "List every resolved reference-to-definition pair between two specific files.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"a": {Type: "string", Description: "source file path"},
				"b": {Type: "string", Description: "destination file path"},
			},
			Required: []string{"a", "b"},
		},
	}, s.handlePairsBetweenFiles)
}

type pathParams struct {
	Path string `json:"path"`
}

func (s *Server) handleRelatedFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p pathParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("related_files", fmt.Errorf("invalid parameters: %w", err))
	}
	if _, ok := s.graph.FileByPath(p.Path); !ok {
		return createErrorResponse("related_files", fmt.Errorf("unknown file: %s", p.Path))
	}
	return createJSONResponse(map[string]any{"related": s.graph.RelatedFiles(p.Path)})
}

func (s *Server) handleFileMetadata(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p pathParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("file_metadata", fmt.Errorf("invalid parameters: %w", err))
	}
	if _, ok := s.graph.FileByPath(p.Path); !ok {
		return createErrorResponse("file_metadata", fmt.Errorf("unknown file: %s", p.Path))
	}
	return createJSONResponse(map[string]any{"symbols": s.graph.FileMetadata(p.Path)})
}

type pairParams struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (s *Server) handlePairsBetweenFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p pairParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("pairs_between_files", fmt.Errorf("invalid parameters: %w", err))
	}
	return createJSONResponse(map[string]any{"pairs": s.graph.PairsBetweenFiles(p.A, p.B)})
}

func createJSONResponse(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

// createErrorResponse reports the failure inside the tool result with
// IsError set, per the MCP spec: a protocol-level error hides the
// failure from the calling model, an in-band one lets it self-correct.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	resp, marshalErr := createJSONResponse(map[string]any{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	resp.IsError = true
	return resp, nil
}
