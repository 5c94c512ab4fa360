// Command gossiphs is the CLI entry point: it loads configuration,
// runs the driver pipeline, and dispatches to the export/serve/mcp
// surfaces described by spec §6, grounded on standardbeagle/lci's
// cmd/lci main (urfave/cli/v2 app with root-level flags plus
// subcommands).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/williamfzc/gossiphs/internal/cache"
	"github.com/williamfzc/gossiphs/internal/config"
	"github.com/williamfzc/gossiphs/internal/driver"
	"github.com/williamfzc/gossiphs/internal/export"
	"github.com/williamfzc/gossiphs/internal/gitlog"
	"github.com/williamfzc/gossiphs/internal/httpapi"
	"github.com/williamfzc/gossiphs/internal/mcpserver"
	"github.com/williamfzc/gossiphs/internal/rules"
)

func main() {
	app := &cli.App{
		Name:                   "gossiphs",
		Usage:                  "weighted file-reference graphs from source and git history",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "project root directory", Value: "."},
			&cli.BoolFlag{Name: "strict", Usage: "keep only unambiguous reference resolutions"},
			&cli.IntFlag{Name: "depth", Usage: "max commits to walk for history (0=full history)"},
			&cli.StringFlag{Name: "cache-dir", Usage: "local extraction cache directory (default <root>/.gossiphs/cache)"},
			&cli.BoolFlag{Name: "no-cache", Usage: "disable the extraction cache entirely"},
			&cli.StringFlag{Name: "cache-backend", Value: "local", Usage: "local, s3, or valkey"},
			&cli.StringFlag{Name: "cache-s3-bucket", Usage: "s3 backend: bucket name"},
			&cli.StringFlag{Name: "cache-s3-prefix", Usage: "s3 backend: key prefix"},
			&cli.StringFlag{Name: "cache-s3-region", Usage: "s3 backend: region"},
			&cli.StringFlag{Name: "cache-valkey-addr", Usage: "valkey backend: host:port"},
			&cli.StringFlag{Name: "cache-valkey-pass", Usage: "valkey backend: password"},
			&cli.StringFlag{Name: "exclude-file", Usage: "regex of file paths excluded from history"},
			&cli.StringFlag{Name: "exclude-author", Usage: "regex of commit authors excluded from history"},
		},
		Commands: []*cli.Command{
			graphCommand(),
			diffCommand(),
			serveCommand(),
			mcpCommand(),
			cacheCommand(),
			languagesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gossiphs:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	overrides := config.Config{
		ProjectPath:     c.String("root"),
		Strict:          c.Bool("strict"),
		MaxCommits:      c.Int("depth"),
		CacheDir:        c.String("cache-dir"),
		CacheDisabled:   c.Bool("no-cache"),
		CacheBackend:    c.String("cache-backend"),
		CacheS3Bucket:   c.String("cache-s3-bucket"),
		CacheS3Prefix:   c.String("cache-s3-prefix"),
		CacheS3Region:   c.String("cache-s3-region"),
		CacheValkeyAddr: c.String("cache-valkey-addr"),
		CacheValkeyPass: c.String("cache-valkey-pass"),
	}
	if s := c.String("exclude-file"); s != "" {
		re, err := regexp.Compile(s)
		if err != nil {
			return config.Config{}, fmt.Errorf("exclude-file: %w", err)
		}
		overrides.ExcludeFileRegex = re
	}
	if s := c.String("exclude-author"); s != "" {
		re, err := regexp.Compile(s)
		if err != nil {
			return config.Config{}, fmt.Errorf("exclude-author: %w", err)
		}
		overrides.ExcludeAuthorRegex = re
	}
	return config.Load(c.String("root"), overrides)
}

func buildGraph(ctx context.Context, cfg config.Config) (*driver.Result, error) {
	backend, err := buildCacheBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return driver.Run(ctx, driver.Options{
		ProjectPath:          cfg.ProjectPath,
		Strict:               cfg.Strict,
		MaxCommits:           cfg.MaxCommits,
		CommitSizeLimitRatio: cfg.CommitSizeLimitRatio,
		ExcludeFileRegex:     cfg.ExcludeFileRegex,
		ExcludeAuthorRegex:   cfg.ExcludeAuthorRegex,
		Cache:                backend,
	})
}

// buildCacheBackend picks the extraction cache backend named by
// cfg.CacheBackend. The local backend is disabled only when cache-dir
// is explicitly cleared (--no-cache or an empty cache_dir in
// .gossiphs.kdl); s3 and valkey ignore cache-dir entirely.
func buildCacheBackend(ctx context.Context, cfg config.Config) (cache.Backend, error) {
	if cfg.CacheDir == "" && (cfg.CacheBackend == "" || cfg.CacheBackend == "local") {
		return cache.NopBackend{}, nil
	}
	switch cfg.CacheBackend {
	case "", "local":
		return cache.NewLocalBackend(cfg.CacheDir)
	case "s3":
		return cache.NewS3Backend(ctx, cache.S3Config{
			Bucket: cfg.CacheS3Bucket,
			Prefix: cfg.CacheS3Prefix,
			Region: cfg.CacheS3Region,
		})
	case "valkey":
		return cache.NewValkeyBackend(cfg.CacheValkeyAddr, cfg.CacheValkeyPass, "gossiphs")
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "build the reference graph and export it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "csv-scores", Usage: "csv-scores, csv-symbols, or obsidian"},
			&cli.StringFlag{Name: "out", Usage: "output file (csv formats) or vault directory (obsidian)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			result, err := buildGraph(c.Context, cfg)
			if err != nil {
				return err
			}

			switch c.String("format") {
			case "csv-scores":
				return writeToOut(c.String("out"), func(w *os.File) error {
					return export.WriteScoresCSV(w, result.Graph)
				})
			case "csv-symbols":
				return writeToOut(c.String("out"), func(w *os.File) error {
					return export.WriteSymbolsCSV(w, result.Graph)
				})
			case "obsidian":
				dir := c.String("out")
				if dir == "" {
					dir = "gossiphs-vault"
				}
				return export.WriteObsidianVault(dir, result.Graph)
			default:
				return fmt.Errorf("unknown format %q", c.String("format"))
			}
		},
	}
}

func writeToOut(path string, write func(*os.File) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "report added/deleted/kept related-file edges between two revisions",
		ArgsUsage: "<rev-a> <rev-b>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("diff requires exactly two revisions")
			}
			repo, err := gitlog.Open(c.String("root"))
			if err != nil {
				return err
			}
			diffs, err := export.Diff(c.Context, repo, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(diffs)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the graph's query surface over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8089", Usage: "listen address"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			result, err := buildGraph(c.Context, cfg)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			router := httpapi.NewRouter(logger, result.Graph)
			logger.Info("serving", "addr", c.String("addr"))
			return http.ListenAndServe(c.String("addr"), router)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve the graph's query surface as an MCP stdio server",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			result, err := buildGraph(c.Context, cfg)
			if err != nil {
				return err
			}
			return mcpserver.New(result.Graph).Run(c.Context)
		},
	}
}

func languagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "list every file extension with a registered extraction rule",
		Action: func(c *cli.Context) error {
			exts := rules.Default().AllExtensions()
			sorted := make([]string, 0, len(exts))
			for ext := range exts {
				sorted = append(sorted, ext)
			}
			sort.Strings(sorted)
			for _, ext := range sorted {
				fmt.Println(ext)
			}
			return nil
		},
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "manage the extraction cache",
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "remove every entry from the local cache directory",
				Action: func(c *cli.Context) error {
					dir := c.String("cache-dir")
					if dir == "" {
						return fmt.Errorf("--cache-dir is required")
					}
					return os.RemoveAll(dir)
				},
			},
		},
	}
}
