// Package config loads the typed run configuration of spec §6 from a
// .gossiphs.kdl file, following standardbeagle/lci's hand-rolled KDL
// AST walk (internal/config/kdl_config.go) rather than a generic
// struct-tag unmarshaler — the teacher's config shape is irregular
// enough (nested blocks, size-suffixed strings) that a direct walk
// stays simpler than reflection.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// Config is the full run configuration, merging .gossiphs.kdl values
// with CLI overrides (spec §6).
type Config struct {
	ProjectPath          string
	Strict               bool
	MaxCommits           int     // 0 = full history ("depth" in the KDL file)
	CommitSizeLimitRatio float64
	ExcludeFileRegex     *regexp.Regexp
	ExcludeAuthorRegex   *regexp.Regexp
	CacheDir             string // "" disables the local cache backend

	// CacheDisabled is an override-only escape hatch: Default already
	// points CacheDir at <project_path>/.gossiphs/cache, so an override
	// with a merely-empty CacheDir can't be distinguished from "no
	// override given." Setting this explicitly clears CacheDir to "".
	CacheDisabled bool

	CacheBackend    string // "local" (default), "s3", or "valkey"
	CacheS3Bucket   string
	CacheS3Prefix   string
	CacheS3Region   string
	CacheValkeyAddr string
	CacheValkeyPass string
}

// Default returns the configuration used when no .gossiphs.kdl exists
// and no overrides are given. Per spec §6, the local cache is on by
// default, rooted under the project path; disabling it is an explicit
// opt-out (a CacheDisabled override or an empty cache_dir KDL value).
func Default(projectPath string) Config {
	return Config{
		ProjectPath:          projectPath,
		Strict:               false,
		MaxCommits:           0,
		CommitSizeLimitRatio: 0.2,
		CacheDir:             filepath.Join(projectPath, ".gossiphs", "cache"),
		CacheBackend:         "local",
	}
}

// Load resolves configuration for projectPath: it starts from Default,
// applies .gossiphs.kdl if present, then applies overrides (typically
// CLI flags) on top. A malformed KDL file or an invalid regex is a
// ConfigError, which is fatal per spec §7.
func Load(projectPath string, overrides Config) (Config, error) {
	cfg := Default(projectPath)

	kdlPath := filepath.Join(projectPath, ".gossiphs.kdl")
	if content, err := os.ReadFile(kdlPath); err == nil {
		if err := applyKDL(&cfg, string(content)); err != nil {
			return Config{}, xerrors.New(xerrors.KindConfigError, "parse .gossiphs.kdl", err).WithFile(kdlPath)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, xerrors.New(xerrors.KindConfigError, "read .gossiphs.kdl", err).WithFile(kdlPath)
	}

	mergeOverrides(&cfg, overrides)

	if cfg.ProjectPath == "" {
		return Config{}, xerrors.New(xerrors.KindConfigError, "validate", errEmptyProjectPath)
	}
	if cfg.CommitSizeLimitRatio <= 0 || cfg.CommitSizeLimitRatio > 1 {
		return Config{}, xerrors.New(xerrors.KindConfigError, "validate", errBadRatio)
	}
	return cfg, nil
}

func mergeOverrides(cfg *Config, o Config) {
	if o.ProjectPath != "" {
		cfg.ProjectPath = o.ProjectPath
	}
	if o.Strict {
		cfg.Strict = true
	}
	if o.MaxCommits != 0 {
		cfg.MaxCommits = o.MaxCommits
	}
	if o.CommitSizeLimitRatio != 0 {
		cfg.CommitSizeLimitRatio = o.CommitSizeLimitRatio
	}
	if o.ExcludeFileRegex != nil {
		cfg.ExcludeFileRegex = o.ExcludeFileRegex
	}
	if o.ExcludeAuthorRegex != nil {
		cfg.ExcludeAuthorRegex = o.ExcludeAuthorRegex
	}
	if o.CacheDir != "" {
		cfg.CacheDir = o.CacheDir
	}
	if o.CacheDisabled {
		cfg.CacheDir = ""
	}
	if o.CacheBackend != "" {
		cfg.CacheBackend = o.CacheBackend
	}
	if o.CacheS3Bucket != "" {
		cfg.CacheS3Bucket = o.CacheS3Bucket
	}
	if o.CacheS3Prefix != "" {
		cfg.CacheS3Prefix = o.CacheS3Prefix
	}
	if o.CacheS3Region != "" {
		cfg.CacheS3Region = o.CacheS3Region
	}
	if o.CacheValkeyAddr != "" {
		cfg.CacheValkeyAddr = o.CacheValkeyAddr
	}
	if o.CacheValkeyPass != "" {
		cfg.CacheValkeyPass = o.CacheValkeyPass
	}
}

// applyKDL walks the parsed document the way LoadKDL/parseKDL does for
// its own node shapes, translated to gossiphs's schema:
//
//	project { path "."; strict true }
//	history { depth 500; commit_size_limit_ratio 0.2 }
//	exclude { file_regex ".*_test\.go$"; author_regex "dependabot" }
//	cache_dir ".gossiphs-cache"
//	cache { backend "s3"; s3_bucket "ci-gossiphs-cache"; s3_region "us-east-1" }
func applyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("parse kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "path":
					if s, ok := firstStringArg(cn); ok {
						cfg.ProjectPath = s
					}
				case "strict":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Strict = b
					}
				}
			}
		case "history":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.MaxCommits = v
					}
				case "commit_size_limit_ratio":
					if v, ok := firstFloatArg(cn); ok {
						cfg.CommitSizeLimitRatio = v
					}
				}
			}
		case "exclude":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "file_regex":
					if s, ok := firstStringArg(cn); ok {
						re, err := regexp.Compile(s)
						if err != nil {
							return fmt.Errorf("exclude.file_regex: %w", err)
						}
						cfg.ExcludeFileRegex = re
					}
				case "author_regex":
					if s, ok := firstStringArg(cn); ok {
						re, err := regexp.Compile(s)
						if err != nil {
							return fmt.Errorf("exclude.author_regex: %w", err)
						}
						cfg.ExcludeAuthorRegex = re
					}
				}
			}
		case "cache_dir":
			if s, ok := firstStringArg(n); ok {
				cfg.CacheDir = s
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "backend":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheBackend = s
					}
				case "s3_bucket":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheS3Bucket = s
					}
				case "s3_prefix":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheS3Prefix = s
					}
				case "s3_region":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheS3Region = s
					}
				case "valkey_addr":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheValkeyAddr = s
					}
				case "valkey_password":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheValkeyPass = s
					}
				}
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

type configError string

func (c configError) Error() string { return string(c) }

const (
	errEmptyProjectPath = configError("project path must not be empty")
	errBadRatio         = configError("commit_size_limit_ratio must be in (0, 1]")
)
