// Package extractor runs a rule's three queries against a parsed file
// and emits the typed symbol sites described in spec §4.2. The
// extractor holds no shared mutable state: every call creates its own
// parser and query cursor, so Extract is safe to invoke on many files
// concurrently.
package extractor

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/williamfzc/gossiphs/internal/rules"
	"github.com/williamfzc/gossiphs/internal/types"
	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// Extract parses content with rule's grammar and runs the import, def,
// and ref queries, returning sites in source order. fileID is stamped
// onto every returned site; nextID is called once per surviving site
// to assign its SiteID (the symbol table owns the counter, per spec
// §5's "single monotonically incrementing counter").
func Extract(rule *rules.Rule, fileID types.FileID, content []byte, nextID func() types.SiteID) ([]types.Site, error) {
	importQ, defQ, refQ, err := rule.Queries()
	if err != nil {
		return nil, xerrors.New(xerrors.KindConfigError, "compile queries", err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(rule.Grammar()); err != nil {
		return nil, xerrors.New(xerrors.KindConfigError, "set language", err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, xerrors.New(xerrors.KindParseError, "parse", errParse)
	}
	defer tree.Close()
	root := tree.RootNode()
	if root == nil || root.HasError() {
		// A syntax error still yields a (partial) tree; spec §4.2 only
		// requires zero sites on a file tree-sitter could not parse at
		// all, so a partial tree is extracted best-effort.
	}

	type candidate struct {
		site     types.Site
		priority int
	}
	bySpan := make(map[[2]uint32]candidate)

	run := func(query *sitter.Query, kind types.SiteKind) {
		if query == nil {
			return
		}
		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		matches := cursor.Matches(query, root, content)
		names := query.CaptureNames()
		for {
			m := matches.Next()
			if m == nil {
				break
			}
			for _, c := range m.Captures {
				capName := names[c.Index]
				if !strings.HasSuffix(capName, ".name") {
					continue
				}
				node := c.Node
				start, end := node.StartByte(), node.EndByte()
				text := string(content[start:end])
				if text == "" {
					continue
				}
				span := [2]uint32{uint32(start), uint32(end)}
				pr := kind.Priority()
				if existing, ok := bySpan[span]; ok && existing.priority >= pr {
					continue
				}
				bySpan[span] = candidate{
					priority: pr,
					site: types.Site{
						Name:      text,
						File:      fileID,
						Kind:      kind,
						Qualified: kind == types.SiteKindRef && strings.Contains(capName, "qualified"),
						Span: types.Span{
							Start: uint32(start),
							End:   uint32(end),
							Line:  uint32(node.StartPosition().Row) + 1,
						},
					},
				}
			}
		}
	}

	// Resolution order IMPORT > DEF > REF: run lowest priority first so
	// higher-priority kinds overwrite on a span collision regardless of
	// run order, per the priority check above.
	run(refQ, types.SiteKindRef)
	run(defQ, types.SiteKindDef)
	run(importQ, types.SiteKindImport)

	sites := make([]types.Site, 0, len(bySpan))
	for _, c := range bySpan {
		sites = append(sites, c.site)
	}
	sort.Slice(sites, func(i, j int) bool {
		return sites[i].Span.Start < sites[j].Span.Start
	})
	for i := range sites {
		sites[i].ID = nextID()
	}
	return sites, nil
}

var errParse = parseFailure("tree-sitter returned no tree")

type parseFailure string

func (p parseFailure) Error() string { return string(p) }
