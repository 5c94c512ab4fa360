package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteObsidianVault(t *testing.T) {
	g := buildToyGraph(t)
	dir := t.TempDir()

	require.NoError(t, WriteObsidianVault(dir, g))

	mainNote, err := os.ReadFile(filepath.Join(dir, "main.md"))
	require.NoError(t, err)
	content := string(mainNote)
	require.Contains(t, content, "source: main.rs")
	require.Contains(t, content, "[[helpers]]")

	helpersNote, err := os.ReadFile(filepath.Join(dir, "helpers.md"))
	require.NoError(t, err)
	require.Contains(t, string(helpersNote), "No related files.")
}

func TestNotePathAndWikiName(t *testing.T) {
	require.Equal(t, "pkg/util.md", notePathFor("pkg/util.rs"))
	require.Equal(t, "pkg/util", wikiName("pkg/util.rs"))
}
