package history

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/williamfzc/gossiphs/internal/gitlog"
)

func TestIDFMonotoneDecreasingInDocFrequency(t *testing.T) {
	n := 100
	prev := IDF(n, 0)
	for df := 1; df <= n; df++ {
		cur := IDF(n, df)
		require.Less(t, cur, prev)
		prev = cur
	}
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	require.Equal(t, pairKey("a.go", "b.go"), pairKey("b.go", "a.go"))
}

func TestJaccardAndCommonCommitCount(t *testing.T) {
	res := &Result{
		CommitsOfFile: map[string]map[string]struct{}{
			"a.go": {"c1": {}, "c2": {}, "c3": {}},
			"b.go": {"c2": {}, "c3": {}, "c4": {}},
			"c.go": {},
		},
		Cochange: map[PairKey]int{},
	}

	require.InDelta(t, 2.0/4.0, res.Jaccard("a.go", "b.go"), 1e-9)
	require.Equal(t, 2, res.CommonCommitCount("a.go", "b.go"))
	require.Equal(t, 0.0, res.Jaccard("a.go", "c.go"))
	require.Equal(t, 0.0, res.Jaccard("a.go", "missing.go"))
}

func TestIsChurnExcluded(t *testing.T) {
	require.True(t, isChurnExcluded("CHANGELOG.md"))
	require.True(t, isChurnExcluded("web/package-lock.json"))
	require.True(t, isChurnExcluded("vendor/foo/bar.go"))
	require.False(t, isChurnExcluded("internal/graph/engine.go"))
}

// runGit runs a git command in dir with a fixed committer identity so
// the test doesn't depend on the host's git config.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=tester", "GIT_AUTHOR_EMAIL=tester@example.com",
		"GIT_COMMITTER_NAME=tester", "GIT_COMMITTER_EMAIL=tester@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func writeAndCommit(t *testing.T, dir, path, content, message string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	runGit(t, dir, "add", path)
	runGit(t, dir, "commit", "-m", message)
}

func TestAnalyzeComputesCochangeAcrossCommits(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")

	writeAndCommit(t, dir, "a.go", "package a\n", "add a")
	writeAndCommit(t, dir, "b.go", "package b\n", "add b")

	// a.go and b.go change together in one commit.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\nfunc A() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b\nfunc B() {}\n"), 0o644))
	runGit(t, dir, "add", "a.go", "b.go")
	runGit(t, dir, "commit", "-m", "wire a and b together")

	repo, err := gitlog.Open(dir)
	require.NoError(t, err)

	// With only two tracked files the default 0.2 ratio would treat the
	// two-file commit as fat; a ratio of 1 keeps it.
	res, err := Analyze(context.Background(), repo, []string{"a.go", "b.go"}, Config{CommitSizeLimitRatio: 1})
	require.NoError(t, err)
	require.NotNil(t, res.Stats())

	require.Greater(t, res.CommonCommitCount("a.go", "b.go"), 0)
	require.Greater(t, res.Jaccard("a.go", "b.go"), 0.0)
}

func TestAnalyzeDegradesGracefullyOutsideGitRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := gitlog.Open(dir)
	require.Error(t, err, "a non-repo directory must fail to open, not panic history analysis")
}
