package graph

import (
	"sort"

	"github.com/williamfzc/gossiphs/internal/types"
)

// Files returns every analyzed file in stable (path-sorted) order.
func (g *Graph) Files() []types.File {
	out := append([]types.File(nil), g.files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FileByPath resolves a repository-relative path to its File record.
func (g *Graph) FileByPath(path string) (types.File, bool) {
	id, ok := g.byPath[path]
	if !ok {
		return types.File{}, false
	}
	return g.files[id], true
}

// RelatedFiles returns path's outgoing file edges sorted by
// descending score, per spec §4.5's query API.
func (g *Graph) RelatedFiles(path string) []RelatedFile {
	id, ok := g.byPath[path]
	if !ok {
		return nil
	}
	return append([]RelatedFile(nil), g.related[id]...)
}

// SymbolInfo describes one site for the file_metadata() query.
type SymbolInfo struct {
	Name             string
	Kind             types.SiteKind
	Span             types.Span
	ResolvedCounterparts []string // file paths this site resolves to/from
}

// FileMetadata returns every symbol site in path along with its
// resolved counterparts, per spec §4.5's file_metadata query.
func (g *Graph) FileMetadata(path string) []SymbolInfo {
	id, ok := g.byPath[path]
	if !ok {
		return nil
	}
	var out []SymbolInfo
	for _, sid := range g.table.SitesIn(id) {
		site, ok := g.table.Site(sid)
		if !ok {
			continue
		}
		info := SymbolInfo{Name: site.Name, Kind: site.Kind, Span: site.Span}
		switch site.Kind {
		case types.SiteKindRef:
			for _, defID := range g.resolves[sid] {
				if d, ok := g.table.Site(defID); ok {
					info.ResolvedCounterparts = append(info.ResolvedCounterparts, g.files[d.File].Path)
				}
			}
		case types.SiteKindDef:
			info.ResolvedCounterparts = g.listReferencingFiles(sid)
		}
		out = append(out, info)
	}
	return out
}

func (g *Graph) listReferencingFiles(defSiteID types.SiteID) []string {
	seen := make(map[string]struct{})
	for refID, defIDs := range g.resolves {
		for _, did := range defIDs {
			if did != defSiteID {
				continue
			}
			if ref, ok := g.table.Site(refID); ok {
				seen[g.files[ref.File].Path] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Pair is one resolved (ref, def) relationship between two specific
// files, for the pairs_between_files() query.
type Pair struct {
	FromSite types.SiteID
	ToSite   types.SiteID
	Name     string
}

// PairsBetweenFiles returns every surviving resolution from a to b.
func (g *Graph) PairsBetweenFiles(a, b string) []Pair {
	aID, ok := g.byPath[a]
	if !ok {
		return nil
	}
	bID, ok := g.byPath[b]
	if !ok {
		return nil
	}
	var out []Pair
	for refID, defIDs := range g.resolves {
		ref, ok := g.table.Site(refID)
		if !ok || ref.File != aID {
			continue
		}
		for _, did := range defIDs {
			d, ok := g.table.Site(did)
			if !ok || d.File != bID {
				continue
			}
			out = append(out, Pair{FromSite: refID, ToSite: did, Name: ref.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromSite < out[j].FromSite })
	return out
}

// ListDefinitions returns every DEF site named name.
func (g *Graph) ListDefinitions(name string) []types.Site {
	return g.resolveSites(g.table.LookupDefs(name))
}

// ListReferences returns every REF site named name.
func (g *Graph) ListReferences(name string) []types.Site {
	return g.resolveSites(g.table.LookupRefs(name))
}

// ListDefinitionsByReference returns every surviving DEF a REF site
// resolves to.
func (g *Graph) ListDefinitionsByReference(refSite types.SiteID) []types.Site {
	return g.resolveSites(g.resolves[refSite])
}

// ListReferencesByDefinition returns every REF site that resolves to
// defSite.
func (g *Graph) ListReferencesByDefinition(defSite types.SiteID) []types.Site {
	var ids []types.SiteID
	for refID, defIDs := range g.resolves {
		for _, did := range defIDs {
			if did == defSite {
				ids = append(ids, refID)
			}
		}
	}
	return g.resolveSites(ids)
}

func (g *Graph) resolveSites(ids []types.SiteID) []types.Site {
	out := make([]types.Site, 0, len(ids))
	for _, id := range ids {
		if s, ok := g.table.Site(id); ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
