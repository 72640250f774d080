// Command codecortex indexes a source tree and serves the query surface
// over MCP. Mirrors the teacher's cmd/uispec command-switch shape
// (gnana997-uispec/cmd/uispec/main.go), replaced with codecortex's
// index/serve/version subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codecortex/codecortex/pkg/bm25"
	"github.com/codecortex/codecortex/pkg/cache"
	"github.com/codecortex/codecortex/pkg/config"
	"github.com/codecortex/codecortex/pkg/extractor"
	"github.com/codecortex/codecortex/pkg/lru"
	"github.com/codecortex/codecortex/pkg/mcplog"
	"github.com/codecortex/codecortex/pkg/mcpserver"
	"github.com/codecortex/codecortex/pkg/parser"
	"github.com/codecortex/codecortex/pkg/pipeline"
	"github.com/codecortex/codecortex/pkg/query"
	"github.com/codecortex/codecortex/pkg/store"
	"github.com/codecortex/codecortex/pkg/util"
	"github.com/codecortex/codecortex/pkg/watcher"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "index":
		runIndex(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("codecortex %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: codecortex <index|serve|version> [path]")
}

func loadConfigOrExit() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(cfg config.Config) *slog.Logger {
	return util.NewLogger(util.LoggerConfig{
		Level:  toUtilLevel(cfg.LogLevel),
		Format: util.FormatJSON,
		Output: os.Stderr,
	})
}

func toUtilLevel(level slog.Level) util.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return util.LevelDebug
	case level <= slog.LevelInfo:
		return util.LevelInfo
	case level <= slog.LevelWarn:
		return util.LevelWarn
	default:
		return util.LevelError
	}
}

// bootstrap wires every component per the layering §5 describes: any
// existing cache is read first, then the BM25 index (restored or fresh)
// and the store, which the cache is restored into, then the LRU manager
// attached back onto the store, then the parser/extractor pair, then the
// pipeline.
type system struct {
	cfg      config.Config
	logger   *slog.Logger
	bmIdx    *bm25.Index
	st       *store.Store
	lruMgr   *lru.Manager
	sources  util.FileCache
	pipeline *pipeline.Pipeline
}

func bootstrap(root string, cfg config.Config, logger *slog.Logger) (*system, error) {
	var payload *cache.Payload
	if cachePath, err := cache.PathFor(root, cfg.CacheDir); err != nil {
		logger.Warn("cache path resolution failed", "error", err)
	} else if p, err := cache.Read(cachePath); err == nil {
		payload = p
		logger.Info("warm start from cache", "path", cachePath, "files", len(p.Files))
	}

	var bmIdx *bm25.Index
	if payload != nil {
		bmIdx = bm25.Restore(payload.BM25)
	} else {
		bmIdx = bm25.New()
	}
	st := store.New(bmIdx)
	if payload != nil {
		cache.RestoreInto(payload, st)
	}

	lruMgr, err := lru.New(cfg.MaxMemoryBytes(), cfg.EvictionThreshold, st, 5*time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create lru manager: %w", err)
	}
	st.AttachLRU(lruMgr)

	parsers := parser.NewManager(util.GetOptimalPoolSize())
	ex := extractor.New(parsers, logger)
	p := pipeline.New(st, ex, 0, nil, logger)
	sources := util.NewFileCache(util.DefaultFileCacheConfig())

	return &system{cfg: cfg, logger: logger, bmIdx: bmIdx, st: st, lruMgr: lruMgr, sources: sources, pipeline: p}, nil
}

func (s *system) saveCache(root string) {
	payload := cache.BuildPayload(root, s.st, s.bmIdx)
	path, err := cache.PathFor(root, s.cfg.CacheDir)
	if err != nil {
		s.logger.Warn("cache path resolution failed", "error", err)
		return
	}
	if err := cache.Write(path, payload); err != nil {
		s.logger.Warn("cache write failed", "error", err)
	}
}

func runIndex(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: codecortex index <path>")
		os.Exit(1)
	}
	root := args[0]
	cfg := loadConfigOrExit()
	logger := newLogger(cfg)

	sys, err := bootstrap(root, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		os.Exit(1)
	}
	defer sys.lruMgr.Close()
	defer sys.sources.Close()

	summary, err := sys.pipeline.Run(context.Background(), root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "index error: %v\n", err)
		os.Exit(1)
	}
	sys.saveCache(root)

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

func runServe(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: codecortex serve <path>")
		os.Exit(1)
	}
	root := args[0]
	cfg := loadConfigOrExit()
	logger := newLogger(cfg)

	sys, err := bootstrap(root, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		os.Exit(1)
	}
	defer sys.lruMgr.Close()
	defer sys.sources.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := sys.pipeline.Run(ctx, root); err != nil {
		fmt.Fprintf(os.Stderr, "index error: %v\n", err)
		os.Exit(1)
	}

	fileWatcher, err := watcher.New(sys.pipeline, sys.st, 0, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		os.Exit(1)
	}
	if err := fileWatcher.Start(ctx, root); err != nil {
		fmt.Fprintf(os.Stderr, "watcher start error: %v\n", err)
		os.Exit(1)
	}
	defer fileWatcher.Stop()

	qs := query.New(sys.st, sys.bmIdx, sys.pipeline, sys.sources)

	logPath := os.Getenv("CODECORTEXT_MCP_LOG")
	mcpLogger, err := mcplog.NewLogger(logPath)
	if err != nil {
		logger.Warn("mcp tool-call logging disabled", "error", err)
	}

	srv := mcpserver.NewServer(qs, mcpLogger)
	defer srv.Close()

	go func() {
		<-ctx.Done()
		sys.saveCache(root)
	}()

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
