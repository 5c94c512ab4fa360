// Package gitlog is a thin wrapper over the git CLI, shelling out with
// exec.CommandContext the way standardbeagle/lci's internal/git
// package does, rather than linking an in-process git implementation.
// Both the history analyzer and the diff exporter build on it.
package gitlog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// Repo wraps a resolved repository root.
type Repo struct {
	root string
}

// Open resolves dir to its repository root via `git rev-parse
// --show-toplevel`, so callers can point at any subdirectory.
func Open(dir string) (*Repo, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, xerrors.New(xerrors.KindConfigError, "resolve path", err).WithFile(dir)
	}
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absDir
	out, err := cmd.Output()
	if err != nil {
		return nil, xerrors.New(xerrors.KindConfigError, "not a git repository", err).WithFile(absDir)
	}
	return &Repo{root: strings.TrimSpace(string(out))}, nil
}

// Root returns the repository's top-level directory.
func (r *Repo) Root() string { return r.root }

func (r *Repo) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	out, err := cmd.Output()
	if err != nil {
		return nil, xerrors.New(xerrors.KindHistoryError, "git "+strings.Join(args, " "), err)
	}
	return out, nil
}

// TrackedFiles lists every file git tracks, repository-relative with
// forward slashes.
func (r *Repo) TrackedFiles(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "ls-files")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Commit is one commit on the first-parent chain.
type Commit struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
}

// FirstParentLog walks up to maxCommits commits in first-parent order
// from HEAD, per spec §4.4.
func (r *Repo) FirstParentLog(ctx context.Context, maxCommits int) ([]Commit, error) {
	args := []string{"log", "--first-parent", "--format=%H\x1f%an\x1f%ae"}
	if maxCommits > 0 {
		args = append(args, fmt.Sprintf("-n%d", maxCommits))
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var commits []Commit
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) < 3 {
			continue
		}
		commits = append(commits, Commit{Hash: parts[0], AuthorName: parts[1], AuthorEmail: parts[2]})
	}
	return commits, nil
}

// ChangedFiles returns the set of files a commit touched (added,
// modified, or deleted), with renames collapsed to the new name, per
// spec §4.4.
func (r *Repo) ChangedFiles(ctx context.Context, commitHash string) ([]string, error) {
	out, err := r.run(ctx, "diff-tree", "--root", "--no-commit-id", "--name-status", "-r", "-M", commitHash)
	if err != nil {
		return nil, err
	}
	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		if strings.HasPrefix(status, "R") && len(fields) >= 3 {
			files = append(files, fields[2]) // renames collapse to new name
			continue
		}
		files = append(files, fields[1])
	}
	return files, nil
}

// Worktree checks out rev into a detached, disposable worktree so
// callers can run a full file-tree analysis (e.g. a driver pass)
// against a historical revision without disturbing the caller's own
// checkout. The returned cleanup removes the worktree and its backing
// directory; callers must invoke it once done.
func (r *Repo) Worktree(ctx context.Context, rev string) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "gossiphs-worktree-*")
	if err != nil {
		return "", nil, xerrors.New(xerrors.KindIoError, "mkdtemp", err)
	}
	if _, err := r.run(ctx, "worktree", "add", "--detach", "--force", dir, rev); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	cleanup = func() {
		exec.Command("git", "-C", r.root, "worktree", "remove", "--force", dir).Run()
		os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

func splitLines(out []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
