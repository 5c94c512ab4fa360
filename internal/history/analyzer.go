// Package history implements the git history analyzer of spec §4.4:
// it walks commits in first-parent order, derives per-file touch sets,
// and computes pairwise co-change counts with a fat-commit noise
// filter. It also exposes the jaccard and idf statistics the graph
// engine uses during scoring (spec §4.5 Step D).
package history

import (
	"context"
	"math"
	"regexp"

	"github.com/williamfzc/gossiphs/internal/gitlog"
	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// Config controls the history walk, matching spec §6's configuration
// surface.
type Config struct {
	MaxCommits            int     // 0 = full history
	CommitSizeLimitRatio  float64 // fat-commit filter, default 0.2
	ExcludeFileRegex      *regexp.Regexp
	ExcludeAuthorRegex    *regexp.Regexp
}

// PairKey identifies an unordered file pair for the co-change matrix.
type PairKey struct {
	A, B string // A < B lexicographically
}

func pairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Result is the output of one history analysis run.
type Result struct {
	CommitsOfFile map[string]map[string]struct{} // file -> set of commit hashes
	Cochange      map[PairKey]int
	totalFiles    int
	stats         *xerrors.Stats
}

// Stats returns the error counts accumulated during the walk.
func (r *Result) Stats() *xerrors.Stats { return r.stats }

// Jaccard returns |A∩B| / |A∪B| for the commit sets of a and b, 0 if
// either has no history.
func (r *Result) Jaccard(a, b string) float64 {
	setA, okA := r.CommitsOfFile[a]
	setB, okB := r.CommitsOfFile[b]
	if !okA || !okB || len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for h := range setA {
		if _, ok := setB[h]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// CommonCommitCount returns |commits_of_file[a] ∩ commits_of_file[b]|,
// used directly (not normalized) by the graph engine's Step E
// collision mitigation.
func (r *Result) CommonCommitCount(a, b string) int {
	setA, okA := r.CommitsOfFile[a]
	setB, okB := r.CommitsOfFile[b]
	if !okA || !okB {
		return 0
	}
	inter := 0
	for h := range setA {
		if _, ok := setB[h]; ok {
			inter++
		}
	}
	return inter
}

// IDF computes log(1 + N / (1 + df)) for a symbol observed in df
// files out of N analyzed files, per spec §4.4. Monotone-decreasing in
// df for any fixed N ≥ 0.
func IDF(n, df int) float64 {
	return math.Log(1 + float64(n)/(1+float64(df)))
}

// Analyze walks repo's commit history and returns the co-change
// statistics. trackedFiles bounds totalFiles for the fat-commit ratio
// check; history analysis runs concurrently with extraction in the
// driver (spec §5), so it receives its own file list rather than
// reading the symbol table.
func Analyze(ctx context.Context, repo *gitlog.Repo, trackedFiles []string, cfg Config) (*Result, error) {
	stats := xerrors.NewStats()
	res := &Result{
		CommitsOfFile: make(map[string]map[string]struct{}),
		Cochange:      make(map[PairKey]int),
		totalFiles:    len(trackedFiles),
		stats:         stats,
	}

	ratio := cfg.CommitSizeLimitRatio
	if ratio <= 0 {
		ratio = 0.2
	}
	limit := int(ratio * float64(len(trackedFiles)))
	if limit < 1 {
		limit = 1
	}

	commits, err := repo.FirstParentLog(ctx, cfg.MaxCommits)
	if err != nil {
		stats.Record(xerrors.New(xerrors.KindHistoryError, "first-parent log", err))
		return res, nil // degrade gracefully: jaccard=0 for all files
	}

	for _, commit := range commits {
		select {
		case <-ctx.Done():
			return res, nil
		default:
		}

		if cfg.ExcludeAuthorRegex != nil && cfg.ExcludeAuthorRegex.MatchString(commit.AuthorName) {
			continue
		}

		touched, err := repo.ChangedFiles(ctx, commit.Hash)
		if err != nil {
			stats.Record(xerrors.New(xerrors.KindHistoryError, "diff-tree", err).WithFile(commit.Hash))
			continue
		}

		filtered := touched[:0:0]
		for _, f := range touched {
			if cfg.ExcludeFileRegex != nil && cfg.ExcludeFileRegex.MatchString(f) {
				continue
			}
			if isChurnExcluded(f) {
				continue
			}
			filtered = append(filtered, f)
		}

		if len(filtered) > limit {
			// Fat-commit noise filter (spec §4.4): this commit
			// contributes nothing to cochange or commits_of_file.
			continue
		}

		for _, f := range filtered {
			set, ok := res.CommitsOfFile[f]
			if !ok {
				set = make(map[string]struct{})
				res.CommitsOfFile[f] = set
			}
			set[commit.Hash] = struct{}{}
		}

		for i := 0; i < len(filtered); i++ {
			for j := i + 1; j < len(filtered); j++ {
				key := pairKey(filtered[i], filtered[j])
				res.Cochange[key]++
			}
		}
	}

	return res, nil
}
