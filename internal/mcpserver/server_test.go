package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/williamfzc/gossiphs/internal/graph"
	"github.com/williamfzc/gossiphs/internal/symtab"
	"github.com/williamfzc/gossiphs/internal/types"
)

func buildToyGraph(t *testing.T) *graph.Graph {
	t.Helper()
	files := []types.File{
		{ID: 0, Path: "main.rs", Language: "rust"},
		{ID: 1, Path: "helpers.rs", Language: "rust"},
	}
	table := symtab.New()
	table.AddSite(types.Site{ID: table.NextSiteID(), Name: "helper", File: 1, Kind: types.SiteKindDef})
	table.AddSite(types.Site{ID: table.NextSiteID(), Name: "helper", File: 0, Kind: types.SiteKindRef})
	table.AddImport(0, "crate::helpers")
	table.Freeze()

	g, err := graph.Build(context.Background(), files, table, nil, graph.Options{})
	require.NoError(t, err)
	return g
}

func newRequest(t *testing.T, params map[string]any) *mcp.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: raw}}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleRelatedFilesReturnsRankedNeighbors(t *testing.T) {
	s := New(buildToyGraph(t))
	result, err := s.handleRelatedFiles(context.Background(), newRequest(t, map[string]any{"path": "main.rs"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Related []graph.RelatedFile `json:"related"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &body))
	require.Len(t, body.Related, 1)
	require.Equal(t, "helpers.rs", body.Related[0].Name)
}

func TestHandleRelatedFilesUnknownPathIsAnInBandError(t *testing.T) {
	s := New(buildToyGraph(t))
	result, err := s.handleRelatedFiles(context.Background(), newRequest(t, map[string]any{"path": "nope.rs"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, textOf(t, result), "unknown file")
}

func TestHandleFileMetadataListsSymbols(t *testing.T) {
	s := New(buildToyGraph(t))
	result, err := s.handleFileMetadata(context.Background(), newRequest(t, map[string]any{"path": "helpers.rs"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, textOf(t, result), "helper")
}

func TestHandlePairsBetweenFiles(t *testing.T) {
	s := New(buildToyGraph(t))
	result, err := s.handlePairsBetweenFiles(context.Background(), newRequest(t, map[string]any{
		"a": "main.rs", "b": "helpers.rs",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, textOf(t, result), "helper")
}

func TestHandleRelatedFilesRejectsMalformedArguments(t *testing.T) {
	s := New(buildToyGraph(t))
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: []byte("not json")}}
	result, err := s.handleRelatedFiles(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, textOf(t, result), "invalid parameters")
}
