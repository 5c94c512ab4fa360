package export

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

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

// readMatrix parses a header-row/leading-column CSV matrix into a
// lookup from (rowPath, colPath) to cell content.
func readMatrix(t *testing.T, raw string) (header []string, cells map[[2]string]string) {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	header = records[0]
	cells = make(map[[2]string]string)
	for _, row := range records[1:] {
		rowPath := row[0]
		for i, col := range header[1:] {
			cells[[2]string{rowPath, col}] = row[i+1]
		}
	}
	return header, cells
}

func TestWriteScoresCSVIsAnNByNMatrix(t *testing.T) {
	g := buildToyGraph(t)
	var buf strings.Builder
	require.NoError(t, WriteScoresCSV(&buf, g))

	header, cells := readMatrix(t, buf.String())
	require.Equal(t, []string{"", "helpers.rs", "main.rs"}, header)

	require.NotEmpty(t, cells[[2]string{"main.rs", "helpers.rs"}])
	require.Equal(t, "", cells[[2]string{"helpers.rs", "main.rs"}])
	require.Equal(t, "", cells[[2]string{"main.rs", "main.rs"}])
	require.Equal(t, "", cells[[2]string{"helpers.rs", "helpers.rs"}])
}

func TestWriteSymbolsCSVIsAnNByNMatrix(t *testing.T) {
	g := buildToyGraph(t)
	var buf strings.Builder
	require.NoError(t, WriteSymbolsCSV(&buf, g))

	header, cells := readMatrix(t, buf.String())
	require.Equal(t, []string{"", "helpers.rs", "main.rs"}, header)

	require.Equal(t, "helper", cells[[2]string{"main.rs", "helpers.rs"}])
	require.Equal(t, "", cells[[2]string{"helpers.rs", "main.rs"}])
}

func TestJoinSymbols(t *testing.T) {
	require.Equal(t, "", joinSymbols(nil))
	require.Equal(t, "a", joinSymbols([]string{"a"}))
	require.Equal(t, "a|b", joinSymbols([]string{"a", "b"}))
}
