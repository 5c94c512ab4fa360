// Package symtab is the symbol table of spec §4.3: it interns symbol
// sites, assigns stable ids, and maintains the indexes the graph
// engine joins against. The table is append-only during construction
// and frozen afterwards; reads during construction are disallowed
// (spec §5's "Shared state").
package symtab

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/williamfzc/gossiphs/internal/types"
)

const shardCount = 64

// shard holds one bucket of the name-keyed indexes, each behind its
// own lock so concurrent writers for unrelated names don't contend —
// sharding by name hash rather than a single global mutex, the
// approach the corpus favors for hot indexing paths.
type shard struct {
	mu          sync.Mutex
	sitesByName map[string][]types.SiteID
	defsByName  map[string][]types.SiteID
	refsByName  map[string][]types.SiteID
}

func newShard() *shard {
	return &shard{
		sitesByName: make(map[string][]types.SiteID),
		defsByName:  make(map[string][]types.SiteID),
		refsByName:  make(map[string][]types.SiteID),
	}
}

// Table is the append-only symbol table. Build it during construction
// with NextSiteID/AddSite, then call Freeze; all read operations are
// valid only after Freeze and are safe for concurrent callers.
type Table struct {
	idCounter uint64

	mu           sync.Mutex // protects sitesByFile / importsInFile appends
	sitesByFile  map[types.FileID][]types.SiteID
	importsInFile map[types.FileID]map[string]struct{}

	sitesByID map[types.SiteID]types.Site
	sitesMu   sync.RWMutex

	shards [shardCount]*shard

	frozen atomic.Bool
}

// New returns an empty, writable Table.
func New() *Table {
	t := &Table{
		sitesByFile:   make(map[types.FileID][]types.SiteID),
		importsInFile: make(map[types.FileID]map[string]struct{}),
		sitesByID:     make(map[types.SiteID]types.Site),
	}
	for i := range t.shards {
		t.shards[i] = newShard()
	}
	return t
}

func (t *Table) shardFor(name string) *shard {
	h := xxhash.Sum64String(name)
	return t.shards[h%uint64(shardCount)]
}

// NextSiteID atomically reserves the next site id. The symbol table is
// the single owner of the id counter so two sites from the same file
// preserve source order while cross-file ordering stays arbitrary,
// matching spec §5.
func (t *Table) NextSiteID() types.SiteID {
	return types.SiteID(atomic.AddUint64(&t.idCounter, 1))
}

// AddSite appends a site to the table. Safe to call from many
// goroutines, one per file, concurrently; must not be called after
// Freeze.
func (t *Table) AddSite(site types.Site) {
	if t.frozen.Load() {
		panic("symtab: AddSite after Freeze")
	}

	t.sitesMu.Lock()
	t.sitesByID[site.ID] = site
	t.sitesMu.Unlock()

	t.mu.Lock()
	t.sitesByFile[site.File] = append(t.sitesByFile[site.File], site.ID)
	t.mu.Unlock()

	sh := t.shardFor(site.Name)
	sh.mu.Lock()
	sh.sitesByName[site.Name] = append(sh.sitesByName[site.Name], site.ID)
	switch site.Kind {
	case types.SiteKindDef:
		sh.defsByName[site.Name] = append(sh.defsByName[site.Name], site.ID)
	case types.SiteKindRef:
		sh.refsByName[site.Name] = append(sh.refsByName[site.Name], site.ID)
	}
	sh.mu.Unlock()
}

// AddImport records name as imported by file, per spec §4.3's
// imports_in_file auxiliary list. IMPORT sites are not indexed as
// REFs; they influence filtering only (§4.5 Step C/D).
func (t *Table) AddImport(file types.FileID, name string) {
	if t.frozen.Load() {
		panic("symtab: AddImport after Freeze")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.importsInFile[file]
	if !ok {
		set = make(map[string]struct{})
		t.importsInFile[file] = set
	}
	set[name] = struct{}{}
}

// Freeze marks the table read-only. Read operations are undefined
// before Freeze is called.
func (t *Table) Freeze() {
	t.frozen.Store(true)
}

// Site returns the site record for id.
func (t *Table) Site(id types.SiteID) (types.Site, bool) {
	t.sitesMu.RLock()
	defer t.sitesMu.RUnlock()
	s, ok := t.sitesByID[id]
	return s, ok
}

// SitesIn returns the ids of every site in file, in source order.
func (t *Table) SitesIn(file types.FileID) []types.SiteID {
	return append([]types.SiteID(nil), t.sitesByFile[file]...)
}

// LookupDefs returns the ids of every DEF site named name.
func (t *Table) LookupDefs(name string) []types.SiteID {
	sh := t.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return append([]types.SiteID(nil), sh.defsByName[name]...)
}

// LookupRefs returns the ids of every REF site named name.
func (t *Table) LookupRefs(name string) []types.SiteID {
	sh := t.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return append([]types.SiteID(nil), sh.refsByName[name]...)
}

// LookupSites returns the ids of every site (any kind) named name.
func (t *Table) LookupSites(name string) []types.SiteID {
	sh := t.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return append([]types.SiteID(nil), sh.sitesByName[name]...)
}

// ImportsIn returns the set of names file imports.
func (t *Table) ImportsIn(file types.FileID) map[string]struct{} {
	out := make(map[string]struct{})
	for name := range t.importsInFile[file] {
		out[name] = struct{}{}
	}
	return out
}

// DocFrequency returns the number of distinct files containing a DEF
// or REF site of name, used by the history analyzer's idf (spec
// §4.4).
func (t *Table) DocFrequency(name string) int {
	seen := make(map[types.FileID]struct{})
	for _, id := range t.LookupSites(name) {
		if s, ok := t.Site(id); ok && s.Kind != types.SiteKindImport {
			seen[s.File] = struct{}{}
		}
	}
	return len(seen)
}
