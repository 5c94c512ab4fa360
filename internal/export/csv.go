// Package export implements the external interfaces of spec §6: CSV
// score/symbol matrices, a between-revision diff, an Obsidian vault
// exporter, and a Neo4j graph exporter, grounded on maraichr/codegraph's
// encoding/csv and neo4j-go-driver usage.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/williamfzc/gossiphs/internal/graph"
)

// WriteScoresCSV writes the N×N score matrix spec §6 defines: a header
// row of file paths, a leading column of file paths, and cell
// (row, col) holding the integer score of edge row -> col, empty when
// zero. Rows and columns share the same path-sorted order as
// Graph.Files, satisfying the spec §8 determinism property.
func WriteScoresCSV(w io.Writer, g *graph.Graph) error {
	files := g.Files()
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, 0, len(files)+1)
	header = append(header, "")
	for _, f := range files {
		header = append(header, f.Path)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range files {
		scores := make(map[string]int, len(row.Path))
		for _, rel := range g.RelatedFiles(row.Path) {
			scores[rel.Name] = rel.Score
		}
		record := make([]string, 0, len(files)+1)
		record = append(record, row.Path)
		for _, col := range files {
			if score, ok := scores[col.Path]; ok && score != 0 {
				record = append(record, strconv.Itoa(score))
			} else {
				record = append(record, "")
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteSymbolsCSV writes the N×N symbol matrix spec §6 defines: same
// header/leading-column shape as WriteScoresCSV, with cell (row, col)
// holding the `|`-separated list of symbol names contributing to edge
// row -> col.
func WriteSymbolsCSV(w io.Writer, g *graph.Graph) error {
	files := g.Files()
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, 0, len(files)+1)
	header = append(header, "")
	for _, f := range files {
		header = append(header, f.Path)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range files {
		symbols := make(map[string][]string, len(row.Path))
		for _, rel := range g.RelatedFiles(row.Path) {
			symbols[rel.Name] = rel.RelatedSymbols
		}
		record := make([]string, 0, len(files)+1)
		record = append(record, row.Path)
		for _, col := range files {
			record = append(record, joinSymbols(symbols[col.Path]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

func joinSymbols(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += "|"
		}
		out += s
	}
	return out
}
