// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/parser"
)

type Config struct {
	// Batch run
	InputDir      string
	OutputDir     string
	ChallengeFile string
	OutputFile    string

	// Ranking tables; empty means the built-in tables.
	RankingTables string

	// Embeddings
	Embedder       string
	EmbedModel     string
	EmbedBaseURL   string
	OpenAIAPIKey   string
	EmbedBatchSize int
	EmbedRPS       float64
	MaxInputTokens int
	StatsWindow    time.Duration

	// HTTP server
	Port          string
	DocrankAPIKey string
	MaxQueueSize  int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		InputDir:      envOr("INPUT_DIR", "/app/input"),
		OutputDir:     envOr("OUTPUT_DIR", "/app/output"),
		ChallengeFile: envOr("CHALLENGE_FILE", "challenge_input.json"),
		OutputFile:    envOr("OUTPUT_FILE", "challenge_output.json"),

		RankingTables: os.Getenv("RANKING_TABLES"),

		Embedder:       envOr("EMBEDDER", embed.KindTFIDF),
		EmbedModel:     os.Getenv("EMBED_MODEL"),
		EmbedBaseURL:   os.Getenv("EMBED_BASE_URL"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		EmbedBatchSize: envInt("EMBED_BATCH_SIZE", 32),
		EmbedRPS:       envFloat("EMBED_RPS", 0),
		MaxInputTokens: envInt("EMBED_MAX_INPUT_TOKENS", 0),
		StatsWindow:    envDuration("EMBED_STATS_WINDOW", 10*time.Minute),

		Port:          envOr("PORT", "8090"),
		DocrankAPIKey: os.Getenv("DOCRANK_API_KEY"),
		MaxQueueSize:  envInt("MAX_QUEUE_SIZE", 16),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),
	}

	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	if cfg.EmbedRPS < 0 {
		cfg.EmbedRPS = 0
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 10 * time.Minute
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings shared by the CLI and the server.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Embedder) {
	case embed.KindTFIDF, embed.KindOllama:
	case embed.KindOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required for EMBEDDER=openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMBEDDER: %w: %q", embed.ErrUnknownProvider, c.Embedder))
	}
	if c.RankingTables != "" {
		if _, err := os.Stat(c.RankingTables); err != nil {
			errs = append(errs, fmt.Errorf("RANKING_TABLES: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ValidateServer adds the checks only the HTTP server needs.
func (c Config) ValidateServer() error {
	err := c.Validate()
	if c.DocrankAPIKey == "" {
		err = errors.Join(err, fmt.Errorf("DOCRANK_API_KEY is required"))
	}
	return err
}

// EmbedOptions converts the embedding settings for embed.New.
func (c Config) EmbedOptions(stats *embed.Stats, log *slog.Logger) embed.Options {
	return embed.Options{
		Kind:      c.Embedder,
		Model:     c.EmbedModel,
		BaseURL:   c.EmbedBaseURL,
		APIKey:    c.OpenAIAPIKey,
		BatchSize: c.EmbedBatchSize,
		RPS:       c.EmbedRPS,
		Stats:     stats,
		Log:       log,

		MaxInputTokens: c.MaxInputTokens,
	}
}

// ParserOptions converts the document decoding settings.
func (c Config) ParserOptions() parser.Options {
	return parser.Options{FallbackPdftotext: c.PDFFallbackPdftotext}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
