package history

import "github.com/bmatcuk/doublestar/v4"

// excludedChurnPatterns lists glob patterns for paths that should never
// count toward co-change statistics even when a commit touches them:
// lockfiles, build output, vendored dependencies, and binary/media
// assets churn constantly without reflecting a meaningful coupling
// between source files. Grounded on standardbeagle/lci's
// frequency_analyzer.go excludedFilePatterns list.
var excludedChurnPatterns = []string{
	"**/CHANGELOG*", "**/HISTORY*", "**/*.md", "**/*.rst",
	"**/*.min.js", "**/*.min.css", "**/*.bundle.js", "**/*.d.ts",
	"**/package-lock.json", "**/yarn.lock", "**/pnpm-lock.yaml",
	"**/Gemfile.lock", "**/poetry.lock", "**/Cargo.lock", "**/go.sum",
	"**/composer.lock",
	"dist/**", "build/**", "out/**", "target/**", ".next/**", "bin/**",
	"obj/**", "vendor/**", "node_modules/**", "__pycache__/**", ".cache/**",
	"**/*.exe", "**/*.dll", "**/*.so", "**/*.dylib", "**/*.jar", "**/*.wasm",
	"**/*.png", "**/*.jpg", "**/*.jpeg", "**/*.gif", "**/*.ico", "**/*.svg",
	"**/*.woff", "**/*.woff2", "**/*.ttf",
	"**/*.zip", "**/*.tar", "**/*.gz",
}

// isChurnExcluded reports whether path should be excluded from
// co-change statistics.
func isChurnExcluded(path string) bool {
	for _, pattern := range excludedChurnPatterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
