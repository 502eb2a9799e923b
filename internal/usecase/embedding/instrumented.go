// Package embedding wraps the provider with per-attempt timeouts, bounded retries and logging.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest batch sent in one provider request.
const DefaultMaxAPIBatchSize = 256

// maxBackoff caps the delay between attempts.
const maxBackoff = 10 * time.Second

// RetryPolicy bounds provider calls.
type RetryPolicy struct {
	// Timeout applies to each attempt; zero means no per-attempt deadline.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first.
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles on each further retry.
	Backoff time.Duration
}

// InstrumentedEmbedder wraps Embedder with retries and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	policy   RetryPolicy
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewInstrumentedEmbedder wraps an embedder with retries and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	policy RetryPolicy, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		policy:   policy,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Embed delegates to the inner embedder, retrying retryable failures.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	var result domain.EmbeddingResult
	err := p.retry(ctx, func(ctx context.Context) error {
		var err error
		result, err = p.inner.Embed(ctx, text)
		return err
	})

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbed splits texts into provider-sized chunks and retries each chunk independently.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	var allEmbeddings [][]float32
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		chunk := texts[offset:min(offset+DefaultMaxAPIBatchSize, len(texts))]

		var chunkResult domain.BatchEmbeddingResult
		err := p.retry(ctx, func(ctx context.Context) error {
			var err error
			chunkResult, err = domain.EmbedMany(ctx, p.inner, chunk)
			return err
		})
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		allEmbeddings = append(allEmbeddings, chunkResult.Embeddings...)
		totalPrompt += chunkResult.PromptTokens
		totalTokens += chunkResult.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// retry runs fn until it succeeds, fails with a non-retryable error, or attempts run out.
// A per-attempt deadline that expires while the caller's context is alive counts as retryable.
func (p *InstrumentedEmbedder) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := p.policy.Backoff
	var err error
	for attempt := 0; ; attempt++ {
		err = p.attempt(ctx, fn)
		if err == nil || !domain.IsRetryable(err) || attempt >= p.policy.MaxRetries {
			return err
		}

		metrics.EmbeddingRetriesTotal.WithLabelValues(p.provider, p.model).Inc()
		p.logger.Warn("Retrying embedding request",
			zap.String("provider", p.provider),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if serr := p.sleep(ctx, backoff); serr != nil {
			return domain.NewEmbeddingUnavailable(serr)
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (p *InstrumentedEmbedder) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.policy.Timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.policy.Timeout)
	defer cancel()

	err := fn(attemptCtx)
	if err != nil && attemptCtx.Err() != nil && ctx.Err() == nil && !domain.IsRetryable(err) {
		return domain.NewEmbeddingUnavailable(fmt.Errorf("attempt timed out after %s: %w", p.policy.Timeout, err))
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
