package driver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/williamfzc/gossiphs/internal/types"
)

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

// TestRunBuildsGraphFromTwoFileRustRepo exercises the full pipeline
// end to end on the two-file Rust toy example spec §8 names: main.rs
// calls a helper function defined and imported from helpers.rs.
func TestRunBuildsGraphFromTwoFileRustRepo(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")

	mainSrc := "mod helpers;\nuse crate::helpers;\n\nfn main() {\n    helpers::helper();\n}\n"
	helpersSrc := "pub fn helper() {\n    println!(\"hi\");\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.rs"), []byte(mainSrc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.rs"), []byte(helpersSrc), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	result, err := Run(context.Background(), Options{ProjectPath: dir})
	require.NoError(t, err)
	require.NotNil(t, result.Graph)

	files := result.Graph.Files()
	require.Len(t, files, 2)

	related := result.Graph.RelatedFiles("main.rs")
	require.NotEmpty(t, related, "main.rs should reference helpers.rs through helper()")
	require.Equal(t, "helpers.rs", related[0].Name)

	var sawImport bool
	for _, sym := range result.Graph.FileMetadata("main.rs") {
		if sym.Kind == types.SiteKindImport {
			sawImport = true
		}
	}
	require.True(t, sawImport, "file_metadata should surface the use crate::helpers import as a first-class site")
}

func TestRunRecordsUnsupportedFilesWithoutFailingTheRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi\n"), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	result, err := Run(context.Background(), Options{ProjectPath: dir})
	require.NoError(t, err)
	require.Len(t, result.Graph.Files(), 1)
}
