// Package driver wires the rule registry, extractor, symbol table,
// history analyzer, and graph engine into the single end-to-end run
// described by spec §5: file discovery, parallel extraction, a
// concurrent history walk, and sequential graph assembly.
package driver

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/williamfzc/gossiphs/internal/cache"
	"github.com/williamfzc/gossiphs/internal/extractor"
	"github.com/williamfzc/gossiphs/internal/gitlog"
	"github.com/williamfzc/gossiphs/internal/graph"
	"github.com/williamfzc/gossiphs/internal/history"
	"github.com/williamfzc/gossiphs/internal/rules"
	"github.com/williamfzc/gossiphs/internal/symtab"
	"github.com/williamfzc/gossiphs/internal/types"
	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// Options controls one run, mirroring the subset of spec §6's
// configuration surface the driver itself consumes.
type Options struct {
	ProjectPath          string
	Strict               bool
	MaxCommits           int
	CommitSizeLimitRatio float64
	ExcludeFileRegex     *regexp.Regexp
	ExcludeAuthorRegex   *regexp.Regexp
	Cache                cache.Backend // nil defaults to cache.NopBackend
	Registry             *rules.Registry // nil defaults to rules.Default()
}

// Result bundles the frozen graph with the run's aggregated error
// counts, per spec §7's "aggregate counts... available through the
// query surface."
type Result struct {
	Graph *graph.Graph
	Stats *xerrors.Stats
}

// Run discovers every rule-matched tracked file under opts.ProjectPath,
// extracts symbol sites in parallel while the history analyzer walks
// commits concurrently, then builds the graph sequentially once both
// finish, per spec §5.
func Run(ctx context.Context, opts Options) (*Result, error) {
	backend := opts.Cache
	if backend == nil {
		backend = cache.NopBackend{}
	}
	registry := opts.Registry
	if registry == nil {
		registry = rules.Default()
	}

	repo, err := gitlog.Open(opts.ProjectPath)
	if err != nil {
		return nil, err // ConfigError, fatal per spec §7
	}

	tracked, err := repo.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}

	stats := xerrors.NewStats()

	type discovered struct {
		path string
		rule *rules.Rule
	}
	var files []discovered
	for _, path := range tracked {
		rule, ok := registry.RuleForExtension(filepath.Ext(path))
		if !ok {
			stats.Record(xerrors.New(xerrors.KindUnsupportedFile, "discover", errUnsupported).WithFile(path))
			continue
		}
		files = append(files, discovered{path: path, rule: rule})
	}

	table := symtab.New()
	typedFiles := make([]types.File, len(files))
	for i, f := range files {
		typedFiles[i] = types.File{ID: types.FileID(i), Path: f.path, Language: f.rule.Language}
	}

	var histResult *history.Result
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		res, err := history.Analyze(gctx, repo, tracked, history.Config{
			MaxCommits:           opts.MaxCommits,
			CommitSizeLimitRatio: opts.CommitSizeLimitRatio,
			ExcludeFileRegex:     opts.ExcludeFileRegex,
			ExcludeAuthorRegex:   opts.ExcludeAuthorRegex,
		})
		if err != nil {
			return err
		}
		histResult = res
		return nil
	})

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int, len(typedFiles))
	for i := range typedFiles {
		jobs <- i
	}
	close(jobs)

	var statsMu sync.Mutex
	for w := 0; w < workers; w++ {
		grp.Go(func() error {
			for i := range jobs {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				if err := extractOne(gctx, registry, backend, repo.Root(), &typedFiles[i], table); err != nil {
					statsMu.Lock()
					stats.Record(err)
					statsMu.Unlock()
				}
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		if xe, ok := err.(*xerrors.Error); ok && xe.Kind.Fatal() {
			return nil, err
		}
		stats.Record(err)
	}

	table.Freeze()
	if histResult != nil {
		for k, v := range histResult.Stats().Snapshot() {
			for i := 0; i < v; i++ {
				stats.Record(xerrors.New(k, "history", errHistoryDegraded))
			}
		}
	}

	g, err := graph.Build(ctx, typedFiles, table, histResult, graph.Options{Strict: opts.Strict})
	if err != nil {
		return nil, err
	}

	return &Result{Graph: g, Stats: stats}, nil
}

func extractOne(ctx context.Context, registry *rules.Registry, backend cache.Backend, repoRoot string, f *types.File, table *symtab.Table) error {
	content, err := os.ReadFile(filepath.Join(repoRoot, f.Path))
	if err != nil {
		return xerrors.New(xerrors.KindIoError, "read", err).WithFile(f.Path)
	}

	rule, ok := registry.RuleForExtension(filepath.Ext(f.Path))
	if !ok {
		return xerrors.New(xerrors.KindUnsupportedFile, "extract", errUnsupported).WithFile(f.Path)
	}

	key := cache.Key{Language: rule.Language, Hash: cache.HashContent(content)}
	f.Hash = key.Hash
	if entry, hit, err := backend.Get(ctx, key); err == nil && hit {
		for _, site := range entry.Sites {
			site.File = f.ID
			site.ID = table.NextSiteID() // cached ids are from a prior run's counter
			recordSite(table, site)
		}
		return nil
	}

	sites, err := extractor.Extract(rule, f.ID, content, table.NextSiteID)
	if err != nil {
		return err
	}

	for _, site := range sites {
		recordSite(table, site)
	}

	_ = backend.Put(ctx, key, &cache.Entry{Sites: sites})
	return nil
}

// recordSite files an IMPORT site under both indexes: AddImport feeds
// the imports_in_file auxiliary set Step C/D filtering reads, and
// AddSite keeps it a first-class site so SitesIn/file_metadata() still
// surface it, per spec §3's site model (IMPORT is additionally, not
// exclusively, recorded in imports_in_file).
func recordSite(table *symtab.Table, site types.Site) {
	if site.Kind == types.SiteKindImport {
		table.AddImport(site.File, site.Name)
	}
	table.AddSite(site)
}

type unsupportedFile string

func (u unsupportedFile) Error() string { return string(u) }

const errUnsupported = unsupportedFile("no rule registered for extension")

type historyDegraded string

func (h historyDegraded) Error() string { return string(h) }

const errHistoryDegraded = historyDegraded("history analysis degraded")
