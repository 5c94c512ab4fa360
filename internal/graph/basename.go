package graph

import (
	"path/filepath"
	"strings"
)

// BaseName extracts the last path segment after splitting on ".",
// "::", or "/", per spec §4.5 Step B. It is used both to bridge
// dotted/path-qualified reference text and to compare an import's
// textual target against a candidate definition file.
func BaseName(name string) string {
	name = strings.Trim(name, `"`)
	cutAt := -1
	sepLen := 0
	for _, sep := range []string{".", "::", "/"} {
		if idx := strings.LastIndex(name, sep); idx > cutAt {
			cutAt = idx
			sepLen = len(sep)
		}
	}
	if cutAt == -1 {
		return name
	}
	return name[cutAt+sepLen:]
}

// fileStem returns a file's path with its directory and extension
// stripped — e.g. "pkg/util.go" -> "util" — used to compare a
// candidate definition file against the textual target of an import.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// fileDirName returns the base name of a file's parent directory —
// e.g. "pkg/util/parse.go" -> "util" — covering languages (Go,
// Python packages) whose import text names a directory rather than a
// single file.
func fileDirName(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// importMatchesFile reports whether any import name in imports
// base-name-matches the candidate file's stem or parent directory
// name, i.e. whether the import is "physical" ground truth for a
// reference resolving into that file (spec §4.5 Step D's physical(a,b)
// and Step C's "explicitly imports by name").
func importMatchesFile(imports map[string]struct{}, filePath string) bool {
	stem := fileStem(filePath)
	dir := fileDirName(filePath)
	for imp := range imports {
		b := BaseName(imp)
		if b == stem || b == dir {
			return true
		}
	}
	return false
}
