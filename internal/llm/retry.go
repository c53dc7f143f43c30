package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient failures with jittered exponential
// backoff. Schema violations get a single extra attempt; auth failures,
// rejected requests and truncation are returned immediately.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *slog.Logger
	jitter func() float64 // in [0, 1)

	// timeout, when set, bounds the whole call including waits.
	timeout time.Duration
}

func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{
		inner:  p,
		config: cfg,
		logger: slog.Default().With("component", "llm"),
		jitter: rand.Float64,
	}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	attempts := max(r.config.MaxAttempts, 1)
	invalidRetried := false

	var lastErr error
	for attempt := range attempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err, &invalidRetried) || attempt == attempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			// Sleeping would only end in DeadlineExceeded.
			break
		}
		r.logger.Warn("retrying llm call",
			"purpose", PurposeFrom(ctx),
			"request_id", RequestIDFrom(ctx),
			"attempt", attempt+1,
			"wait", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func retryable(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var (
		maxTok   *ErrMaxTokensExceeded
		rejected *ErrRequestRejected
		notConf  *ErrNotConfigured
		invalid  *ErrInvalidResponse
	)
	switch {
	case errors.As(err, &maxTok), errors.As(err, &rejected), errors.As(err, &notConf):
		return false
	case errors.As(err, &invalid):
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}
	// Rate limits, 5xx and network errors.
	return true
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if r.config.MaxWait > 0 {
		wait = math.Min(wait, float64(r.config.MaxWait))
	}
	// ±20%
	wait += wait * 0.2 * (2*r.jitter() - 1)
	return time.Duration(math.Max(wait, 0))
}
