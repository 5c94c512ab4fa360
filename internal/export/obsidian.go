package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/williamfzc/gossiphs/internal/graph"
)

// WriteObsidianVault renders one Markdown note per analyzed file under
// dir, with frontmatter scores and [[wikilinks]] to every related
// file, per spec §6's Obsidian exporter.
func WriteObsidianVault(dir string, g *graph.Graph) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range g.Files() {
		related := g.RelatedFiles(f.Path)
		notePath := filepath.Join(dir, notePathFor(f.Path))
		if err := os.MkdirAll(filepath.Dir(notePath), 0o755); err != nil {
			return err
		}
		content := renderNote(f.Path, related)
		if err := os.WriteFile(notePath, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func notePathFor(repoPath string) string {
	return strings.TrimSuffix(repoPath, filepath.Ext(repoPath)) + ".md"
}

func wikiName(repoPath string) string {
	return strings.TrimSuffix(repoPath, filepath.Ext(repoPath))
}

func renderNote(path string, related []graph.RelatedFile) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "source: %s\n", path)
	if len(related) > 0 {
		fmt.Fprintf(&b, "top_score: %d\n", related[0].Score)
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", path)
	if len(related) == 0 {
		b.WriteString("No related files.\n")
		return b.String()
	}
	b.WriteString("## Related files\n\n")
	for _, r := range related {
		fmt.Fprintf(&b, "- [[%s]] (score %d)", wikiName(r.Name), r.Score)
		if len(r.RelatedSymbols) > 0 {
			fmt.Fprintf(&b, " — %s", strings.Join(r.RelatedSymbols, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
