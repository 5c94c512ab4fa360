package export

import (
	"context"
	"sort"

	"github.com/williamfzc/gossiphs/internal/driver"
	"github.com/williamfzc/gossiphs/internal/gitlog"
	"github.com/williamfzc/gossiphs/internal/graph"
)

// FileDiff is one anchor file's edge changes between two revisions,
// the `{file, added, deleted, kept}` shape spec §6 assigns the diff
// exporter.
type FileDiff struct {
	File    string   `json:"file"`
	Added   []string `json:"added"`
	Deleted []string `json:"deleted"`
	Kept    []string `json:"kept"`
}

// Diff builds the reference graph at revA and at revB, each in its own
// disposable worktree snapshot (internal/gitlog.Worktree), and reports
// per anchor file present in either graph which related-file edges
// were added, deleted, or kept between the two revisions.
func Diff(ctx context.Context, repo *gitlog.Repo, revA, revB string) ([]FileDiff, error) {
	graphA, err := graphAtRevision(ctx, repo, revA)
	if err != nil {
		return nil, err
	}
	graphB, err := graphAtRevision(ctx, repo, revB)
	if err != nil {
		return nil, err
	}

	anchors := make(map[string]struct{})
	for _, f := range graphA.Files() {
		anchors[f.Path] = struct{}{}
	}
	for _, f := range graphB.Files() {
		anchors[f.Path] = struct{}{}
	}

	paths := make([]string, 0, len(anchors))
	for path := range anchors {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	diffs := make([]FileDiff, 0, len(paths))
	for _, path := range paths {
		fd := FileDiff{File: path}
		before := relatedNames(graphA, path)
		after := relatedNames(graphB, path)

		for name := range after {
			if !before[name] {
				fd.Added = append(fd.Added, name)
			}
		}
		for name := range before {
			if !after[name] {
				fd.Deleted = append(fd.Deleted, name)
			}
		}
		for name := range before {
			if after[name] {
				fd.Kept = append(fd.Kept, name)
			}
		}
		sort.Strings(fd.Added)
		sort.Strings(fd.Deleted)
		sort.Strings(fd.Kept)
		diffs = append(diffs, fd)
	}
	return diffs, nil
}

func graphAtRevision(ctx context.Context, repo *gitlog.Repo, rev string) (*graph.Graph, error) {
	dir, cleanup, err := repo.Worktree(ctx, rev)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := driver.Run(ctx, driver.Options{ProjectPath: dir})
	if err != nil {
		return nil, err
	}
	return result.Graph, nil
}

func relatedNames(g *graph.Graph, path string) map[string]bool {
	names := make(map[string]bool)
	for _, rel := range g.RelatedFiles(path) {
		names[rel.Name] = true
	}
	return names
}
