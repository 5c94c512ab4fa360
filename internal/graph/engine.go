// Package graph is the graph engine of spec §4.5: it owns the single
// end-to-end algorithm that turns symbol sites and git history into
// file relations, applies strict/normal filtering, and exposes the
// read-only query API.
package graph

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/williamfzc/gossiphs/internal/history"
	"github.com/williamfzc/gossiphs/internal/symtab"
	"github.com/williamfzc/gossiphs/internal/types"
)

const (
	scoreGapEpsilon        = 0.01 // ε in w_n = idf(n) × max(jac, ε)
	physicalBoost           = 100.0
	scoreGapRetainFraction  = 0.8 // Step F: keep within 80% of the max
	nonQualifiedMinCommits  = 3   // Step E non-qualified threshold
	qualifiedMinCommits     = 1   // Step E qualified threshold
)

// Options configures the graph engine, mirroring spec §6's
// configuration surface for the parts the graph engine itself reads.
type Options struct {
	Strict bool
}

// edgeAccum accumulates the raw contributions to one file-pair edge
// before the final integer projection (Step G).
type edgeAccum struct {
	rawScore float64
	symbols  map[string]struct{}
}

// Graph is the frozen, immutable result of one construction run. Every
// query method is read-only and safe for concurrent callers.
type Graph struct {
	files    []types.File // indexed by FileID
	byPath   map[string]types.FileID
	table    *symtab.Table
	strict   bool

	resolves map[types.SiteID][]types.SiteID // surviving ref -> def sites, post Steps C/E/F

	fileEdges map[types.FileID]map[types.FileID]edgeAccum
	related   map[types.FileID][]RelatedFile // sorted descending by score
}

// RelatedFile is one entry in a related_files() response.
type RelatedFile struct {
	Name            string
	Score           int
	RelatedSymbols  []string
}

// Build runs the full Steps A–G pipeline and returns the frozen graph.
// files must be indexed by FileID (files[i].ID == types.FileID(i));
// table must already be frozen; hist may be nil (degrades jaccard to
// 0 for every pair, per spec §7 HistoryError policy).
func Build(ctx context.Context, files []types.File, table *symtab.Table, hist *history.Result, opts Options) (*Graph, error) {
	g := &Graph{
		files:     files,
		byPath:    make(map[string]types.FileID, len(files)),
		table:     table,
		strict:    opts.Strict,
		resolves:  make(map[types.SiteID][]types.SiteID),
		fileEdges: make(map[types.FileID]map[types.FileID]edgeAccum),
		related:   make(map[types.FileID][]RelatedFile),
	}
	for _, f := range files {
		g.byPath[f.Path] = f.ID
	}

	n := len(files)
	importsByFile := make(map[types.FileID]map[string]struct{}, n)
	for _, f := range files {
		importsByFile[f.ID] = table.ImportsIn(f.ID)
	}

	// Step A — candidate edges, per REF site.
	type refWork struct {
		ref  types.Site
		cand []types.Site
	}
	var refs []refWork
	for _, f := range files {
		for _, id := range table.SitesIn(f.ID) {
			site, ok := table.Site(id)
			if !ok || site.Kind != types.SiteKindRef {
				continue
			}
			defIDs := table.LookupDefs(site.Name)
			var cand []types.Site
			for _, did := range defIDs {
				d, ok := table.Site(did)
				if !ok || d.File == site.File {
					continue // invariant (iii): self-file references elided
				}
				cand = append(cand, d)
			}
			if len(cand) == 0 {
				continue // unresolved, dropped
			}
			refs = append(refs, refWork{ref: site, cand: cand})
		}
	}

	// Step C — strict-mode uniqueness.
	if g.strict {
		for i := range refs {
			refs[i].cand = strictFilter(refs[i].ref, refs[i].cand, files, importsByFile)
		}
	}

	// Step E — collision mitigation, per (ref, def) candidate pair.
	for i := range refs {
		refs[i].cand = collisionFilter(refs[i].ref, refs[i].cand, files, importsByFile, hist)
	}

	// Step F — score-gap pruning, per ref across its surviving DEFs.
	idfCache := make(map[string]float64)
	idfOf := func(name string) float64 {
		if v, ok := idfCache[name]; ok {
			return v
		}
		v := history.IDF(n, table.DocFrequency(name))
		idfCache[name] = v
		return v
	}

	type job struct {
		idx int
	}
	jobs := make(chan job, len(refs))
	for i := range refs {
		jobs <- job{idx: i}
	}
	close(jobs)

	grp, _ := errgroup.WithContext(ctx)
	const workers = 8
	var mu sync.Mutex
	pruned := make(map[int][]types.Site, len(refs))
	for w := 0; w < workers; w++ {
		grp.Go(func() error {
			for j := range jobs {
				rw := refs[j.idx]
				result := scoreGapPrune(rw.ref, rw.cand, files, hist, idfOf, g.strict)
				mu.Lock()
				pruned[j.idx] = result
				mu.Unlock()
			}
			return nil
		})
	}
	_ = grp.Wait()

	for i := range refs {
		refs[i].cand = pruned[i]
	}

	// Steps D/G — confidence scoring and integer projection, per pair.
	for _, rw := range refs {
		if len(rw.cand) == 0 {
			continue
		}
		g.resolves[rw.ref.ID] = siteIDs(rw.cand)
		for _, d := range rw.cand {
			g.accumulate(rw.ref, d, idfOf(rw.ref.Name), hist)
		}
	}

	for _, f := range files {
		dests, ok := g.fileEdges[f.ID]
		if !ok {
			continue
		}
		physicalPairs := map[types.FileID]bool{}
		for dst := range dests {
			if importMatchesFile(importsByFile[f.ID], g.files[dst].Path) {
				physicalPairs[dst] = true
			}
		}
		var entries []RelatedFile
		for dst, acc := range dests {
			score := acc.rawScore
			if physicalPairs[dst] {
				score += physicalBoost
			}
			names := make([]string, 0, len(acc.symbols))
			for s := range acc.symbols {
				names = append(names, s)
			}
			sort.Strings(names)
			entries = append(entries, RelatedFile{
				Name:           g.files[dst].Path,
				Score:          int(math.Round(score)),
				RelatedSymbols: names,
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Score != entries[j].Score {
				return entries[i].Score > entries[j].Score
			}
			return entries[i].Name < entries[j].Name
		})
		g.related[f.ID] = entries
	}

	return g, nil
}

// accumulate adds one surviving (ref, def) resolution's contribution
// to the raw score of the (ref.File, def.File) edge. The physical
// boost is added once per pair during finalization, not per ref.
func (g *Graph) accumulate(ref, def types.Site, idf float64, hist *history.Result) {
	dests, ok := g.fileEdges[ref.File]
	if !ok {
		dests = make(map[types.FileID]edgeAccum)
		g.fileEdges[ref.File] = dests
	}
	acc := dests[def.File]
	if acc.symbols == nil {
		acc.symbols = make(map[string]struct{})
	}
	jac := 0.0
	if hist != nil {
		jac = hist.Jaccard(g.files[ref.File].Path, g.files[def.File].Path)
	}
	acc.rawScore += idf * math.Max(jac, scoreGapEpsilon)
	acc.symbols[ref.Name] = struct{}{}
	dests[def.File] = acc
}

func siteIDs(sites []types.Site) []types.SiteID {
	out := make([]types.SiteID, len(sites))
	for i, s := range sites {
		out[i] = s.ID
	}
	return out
}

// strictFilter implements spec §4.5 Step C.
func strictFilter(ref types.Site, cand []types.Site, files []types.File, importsByFile map[types.FileID]map[string]struct{}) []types.Site {
	if len(cand) <= 1 {
		return cand
	}
	imports := importsByFile[ref.File]
	var importMatches []types.Site
	for _, d := range cand {
		if importMatchesFile(imports, files[d.File].Path) {
			importMatches = append(importMatches, d)
		}
	}
	if len(importMatches) == 1 {
		return importMatches
	}
	refDir := filepath.Dir(files[ref.File].Path)
	var dirMatches []types.Site
	for _, d := range cand {
		if filepath.Dir(files[d.File].Path) == refDir {
			dirMatches = append(dirMatches, d)
		}
	}
	if len(dirMatches) == 1 {
		return dirMatches
	}
	return nil // ambiguous reference eliminated
}

// collisionFilter implements spec §4.5 Step E, evaluated per (ref,
// def) candidate pair since physical(a,b) and commit overlap depend
// on the specific file pair.
func collisionFilter(ref types.Site, cand []types.Site, files []types.File, importsByFile map[types.FileID]map[string]struct{}, hist *history.Result) []types.Site {
	var survivors []types.Site
	for _, d := range cand {
		physical := importMatchesFile(importsByFile[ref.File], files[d.File].Path)
		common := 0
		if hist != nil {
			common = hist.CommonCommitCount(files[ref.File].Path, files[d.File].Path)
		}
		if ref.Qualified {
			if physical || common >= qualifiedMinCommits {
				survivors = append(survivors, d)
			}
		} else {
			if physical || common >= nonQualifiedMinCommits {
				survivors = append(survivors, d)
			}
		}
	}
	return survivors
}

// scoreGapPrune implements spec §4.5 Step F: when a REF matched
// multiple DEFs, keep only those within 80% of the max idf×jaccard.
// In strict mode the result must contain exactly one survivor (spec
// invariant iv); ties are broken lexicographically by file path,
// ascending (an open question spec §9 leaves to the implementer).
func scoreGapPrune(ref types.Site, cand []types.Site, files []types.File, hist *history.Result, idfOf func(string) float64, strict bool) []types.Site {
	if len(cand) <= 1 {
		return cand
	}
	idf := idfOf(ref.Name)
	scores := make([]float64, len(cand))
	maxScore := 0.0
	for i, d := range cand {
		jac := 0.0
		if hist != nil {
			jac = hist.Jaccard(files[ref.File].Path, files[d.File].Path)
		}
		scores[i] = idf * jac
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}
	threshold := maxScore * scoreGapRetainFraction
	var survivors []types.Site
	for i, d := range cand {
		if maxScore == 0 || scores[i] >= threshold {
			survivors = append(survivors, d)
		}
	}
	if strict && len(survivors) > 1 {
		sort.Slice(survivors, func(i, j int) bool {
			return files[survivors[i].File].Path < files[survivors[j].File].Path
		})
		survivors = survivors[:1]
	}
	return survivors
}
