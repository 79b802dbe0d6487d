package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

const (
	defaultOllamaModel = "nomic-embed-text:latest"
	defaultOllamaURL   = "http://localhost:11434"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultBatchSize   = 32
)

// Remote embeds through a model server reached via langchaingo. Calls are
// paced by a token-bucket limiter and retried with backoff.
type Remote struct {
	name     string
	embedder embeddings.Embedder
	limiter  *rate.Limiter
	log      *slog.Logger

	// maxTokens bounds each input; longer texts are clipped.
	maxTokens int

	// wait is the retry sleep; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewOllama connects to an Ollama server.
func NewOllama(opts Options) (*Remote, error) {
	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("initialize ollama model %s: %w", model, err)
	}
	return newRemote(KindOllama+":"+model, llm, opts)
}

// NewOpenAI connects to an OpenAI-compatible embeddings endpoint.
func NewOpenAI(opts Options) (*Remote, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("initialize openai embeddings: api key is required")
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	clientOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithEmbeddingModel(model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialize openai model %s: %w", model, err)
	}
	return newRemote(KindOpenAI+":"+model, llm, opts)
}

func newRemote(name string, client embeddings.EmbedderClient, opts Options) (*Remote, error) {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	emb, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batch))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	r := NewRemote(name, emb, opts.RPS, opts.Log)
	if opts.MaxInputTokens > 0 {
		r.maxTokens = opts.MaxInputTokens
	}
	return r, nil
}

// NewRemote wraps an existing langchaingo embedder. rps <= 0 disables pacing.
func NewRemote(name string, e embeddings.Embedder, rps float64, log *slog.Logger) *Remote {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Remote{
		name:     name,
		embedder: e,
		limiter:  rate.NewLimiter(limit, 1),
		log:      log,
		wait:     sleepCtx,

		maxTokens: defaultMaxInputTokens,
	}
}

func (r *Remote) Name() string { return r.name }

func (r *Remote) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	clipped := make([]string, len(texts))
	for i, t := range texts {
		clipped[i] = Clip(t, r.maxTokens)
	}

	var out [][]float32
	err := r.retry(ctx, "embed documents", func() error {
		var err error
		out, err = r.embedder.EmbedDocuments(ctx, clipped)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(out), len(texts))
	}
	return out, nil
}

func (r *Remote) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.retry(ctx, "embed query", func() error {
		var err error
		out, err = r.embedder.EmbedQuery(ctx, Clip(text, r.maxTokens))
		return err
	})
	return out, err
}

func (r *Remote) retry(ctx context.Context, op string, call func() error) error {
	var err error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt - 1)
			r.log.Warn("retrying embedding call", "provider", r.name, "op", op, "attempt", attempt, "delay", delay, "error", err)
			if werr := r.wait(ctx, delay); werr != nil {
				return fmt.Errorf("%s: %w", op, werr)
			}
		}
		if werr := r.limiter.Wait(ctx); werr != nil {
			return fmt.Errorf("%s: %w", op, werr)
		}
		if err = call(); err == nil {
			return nil
		}
		if !IsRetryable(err) {
			break
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
