package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig configures a Retrier.
type RetryConfig struct {
	// Attempts is the total number of tries before giving up. Default: 5.
	Attempts int `json:"attempts" yaml:"attempts"`

	// InitialDelay is the sleep before the second attempt; it doubles after
	// every rate-limited attempt. Default: 2s.
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`

	// Sleep is the sleep function, injectable for tests.
	// Default sleeps on a timer, honouring context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error `json:"-" yaml:"-"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *RetryConfig) defaults() {
	if c.Attempts <= 0 {
		c.Attempts = 5
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 2 * time.Second
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Retrier wraps an Embedder with bounded exponential backoff on rate-limit
// failures. Any other failure kind propagates immediately: retrying a
// malformed request or a permanent backend error only wastes the budget.
type Retrier struct {
	inner Embedder
	cfg   RetryConfig
}

// NewRetrier wraps inner with the retry policy.
func NewRetrier(inner Embedder, cfg RetryConfig) *Retrier {
	cfg.defaults()
	return &Retrier{inner: inner, cfg: cfg}
}

// Embed calls the wrapped embedder, sleeping and doubling the delay on each
// rate-limited attempt. After the budget is spent the last error is wrapped
// in ErrExhausted.
func (r *Retrier) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := r.retry(ctx, func(ctx context.Context) ([][]float32, error) {
		v, err := r.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return [][]float32{v}, nil
	})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch applies the same policy to batch calls.
func (r *Retrier) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return r.retry(ctx, func(ctx context.Context) ([][]float32, error) {
		return r.inner.EmbedBatch(ctx, texts)
	})
}

func (r *Retrier) retry(ctx context.Context, call func(context.Context) ([][]float32, error)) ([][]float32, error) {
	delay := r.cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		vecs, err := call(ctx)
		if err == nil {
			return vecs, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		lastErr = err

		if attempt == r.cfg.Attempts {
			break
		}
		r.cfg.Logger.Warn("embed: rate limited, backing off",
			"attempt", attempt, "delay", delay)
		if serr := r.cfg.Sleep(ctx, delay); serr != nil {
			return nil, fmt.Errorf("embed: backoff interrupted: %w", serr)
		}
		delay *= 2
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, r.cfg.Attempts, lastErr)
}

func (r *Retrier) Dimension() int { return r.inner.Dimension() }
func (r *Retrier) Model() string  { return r.inner.Model() }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
