// Command docrank extracts document outlines and ranks the sections of a
// document collection against a persona's task.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/docrank/internal/challenge"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/outline"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/relevance"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const (
	modeAnalyze = "analyze"
	modeOutline = "outline"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	mode := flag.String("mode", modeAnalyze, "run mode: analyze or outline")
	flag.StringVar(&cfg.InputDir, "input", cfg.InputDir, "directory holding the documents and challenge file")
	flag.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "directory for result files")
	flag.StringVar(&cfg.ChallengeFile, "challenge", cfg.ChallengeFile, "challenge file name inside the input directory")
	flag.StringVar(&cfg.RankingTables, "tables", cfg.RankingTables, "YAML ranking tables (default: built-in)")
	flag.StringVar(&cfg.Embedder, "embedder", cfg.Embedder, "embedding provider: tfidf, ollama or openai")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch *mode {
	case modeAnalyze:
		err = runAnalyze(ctx, cfg, log)
	case modeOutline:
		err = runOutline(cfg, log)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Error("run failed", "mode", *mode, "error", err)
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func runAnalyze(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	start := time.Now()

	in, err := challenge.Load(filepath.Join(cfg.InputDir, cfg.ChallengeFile))
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	tables, err := relevance.Load(cfg.RankingTables)
	if err != nil {
		return err
	}

	stats := embed.NewStats(cfg.StatsWindow)
	provider, err := embed.New(cfg.EmbedOptions(stats, log))
	if err != nil {
		return fmt.Errorf("load embedding model: %w", err)
	}
	log.Info("starting analysis",
		"documents", len(in.Documents),
		"persona", in.Persona.Role,
		"embedder", provider.Name(),
		"tables", tables.Source,
	)

	analyzer := pipeline.NewAnalyzer(rank.New(provider, tables, log), tables, cfg.ParserOptions(), log)
	obs := newBarObserver(len(in.Documents))
	out, err := analyzer.Analyze(ctx, in, pipeline.DirSource(cfg.InputDir), obs)
	obs.finish()
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.OutputDir, cfg.OutputFile)
	if err := report.Save(path, out, log); err != nil {
		return err
	}

	snap := stats.Snapshot()
	attrs := []any{
		"calls", snap.Count,
		"avg_ms", snap.AvgMs,
		"p95_ms", snap.P95Ms,
	}
	if hits, misses, ok := embed.CacheCounts(provider); ok {
		attrs = append(attrs, "cache_hits", hits, "cache_misses", misses)
	}
	log.Info("embedding stats", attrs...)
	fmt.Println(renderSummary(out, path, time.Since(start)))
	return nil
}

func runOutline(cfg config.Config, log *slog.Logger) error {
	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("read input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && parser.IsSupportedExtension(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		color.Yellow("no supported documents in %s", cfg.InputDir)
		return nil
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	bar := newProgressBar(len(files), "Extracting outlines")
	var errs []error
	for _, name := range files {
		doc := parser.ExtractFile(filepath.Join(cfg.InputDir, name), cfg.ParserOptions(), log)
		if err := writeOutline(filepath.Join(cfg.OutputDir, stem(name)+".json"), doc); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		log.Debug("outline extracted", "document", name, "sections", len(doc.Sections))
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err := errors.Join(errs...); err != nil {
		return err
	}
	color.Green("✓ wrote %d outlines to %s", len(files), cfg.OutputDir)
	return nil
}

func writeOutline(path string, doc *outline.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Encode(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
