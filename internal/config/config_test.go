package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/embed"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"INPUT_DIR", "EMBEDDER", "EMBED_BATCH_SIZE", "EMBED_RPS", "MAX_QUEUE_SIZE", "JOB_TTL", "PDF_FALLBACK_PDFTOTEXT"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.InputDir != "/app/input" {
		t.Errorf("expected default input dir, got %q", cfg.InputDir)
	}
	if cfg.Embedder != embed.KindTFIDF {
		t.Errorf("expected %q embedder, got %q", embed.KindTFIDF, cfg.Embedder)
	}
	if cfg.EmbedBatchSize != 32 {
		t.Errorf("expected batch size 32, got %d", cfg.EmbedBatchSize)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %s", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMBEDDER", "ollama")
	t.Setenv("EMBED_RPS", "2.5")
	t.Setenv("EMBED_BATCH_SIZE", "-4")
	t.Setenv("JOB_TTL", "90s")
	t.Setenv("MAX_QUEUE_SIZE", "not-a-number")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "true")
	cfg := Load()

	if cfg.EmbedRPS != 2.5 {
		t.Errorf("expected rps 2.5, got %v", cfg.EmbedRPS)
	}
	if cfg.EmbedBatchSize != 32 {
		t.Errorf("expected invalid batch size to reset to 32, got %d", cfg.EmbedBatchSize)
	}
	if cfg.JobTTL != 90*time.Second {
		t.Errorf("expected 90s TTL, got %s", cfg.JobTTL)
	}
	if cfg.MaxQueueSize != 16 {
		t.Errorf("expected unparsable queue size to fall back to 16, got %d", cfg.MaxQueueSize)
	}
	if !cfg.ParserOptions().FallbackPdftotext {
		t.Error("expected parser options to carry the pdftotext fallback")
	}

	opts := cfg.EmbedOptions(nil, nil)
	if opts.Kind != "ollama" || opts.RPS != 2.5 || opts.BatchSize != 32 {
		t.Errorf("unexpected embed options %+v", opts)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Embedder: "word2vec"}
	if err := cfg.Validate(); !errors.Is(err, embed.ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}

	cfg = Config{Embedder: "openai"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing OpenAI key to fail")
	}

	cfg = Config{Embedder: "tfidf", RankingTables: filepath.Join(t.TempDir(), "missing.yaml")}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing tables file to fail")
	}
}

func TestValidateServer(t *testing.T) {
	cfg := Config{Embedder: "tfidf"}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("expected missing DOCRANK_API_KEY to fail")
	}
	cfg.DocrankAPIKey = "secret"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
