package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(inner Provider, attempts int) *RetryProvider {
	p := WithRetry(inner, RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}).(*RetryProvider)
	p.jitter = func() float64 { return 0.5 }
	return p
}

func okResponse() MockResponse { return MockResponse{Content: json.RawMessage(`{"ok":true}`)} }

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		responses []MockResponse
		wantCalls int
		wantErr   any
	}{
		{"first attempt succeeds", 3, []MockResponse{okResponse()}, 1, nil},
		{"transient then success", 3, []MockResponse{{Err: &ErrProviderUnavailable{}}, {Err: &ErrRateLimit{}}, okResponse()}, 3, nil},
		{"gives up after max attempts", 3, []MockResponse{{Err: &ErrProviderUnavailable{}}, {Err: &ErrProviderUnavailable{}}, {Err: &ErrProviderUnavailable{}}, okResponse()}, 3, new(*ErrProviderUnavailable)},
		{"zero attempts still calls once", 0, []MockResponse{okResponse()}, 1, nil},
		{"max tokens not retried", 3, []MockResponse{{Err: &ErrMaxTokensExceeded{}}, okResponse()}, 1, new(*ErrMaxTokensExceeded)},
		{"rejected request not retried", 3, []MockResponse{{Err: &ErrRequestRejected{Status: 400}}, okResponse()}, 1, new(*ErrRequestRejected)},
		{"bad key not retried", 3, []MockResponse{{Err: &ErrNotConfigured{Reason: "401"}}, okResponse()}, 1, new(*ErrNotConfigured)},
		{"invalid response retried once", 5, []MockResponse{{Err: &ErrInvalidResponse{}}, {Err: &ErrInvalidResponse{}}, okResponse()}, 2, new(*ErrInvalidResponse)},
		{"invalid then success", 3, []MockResponse{{Err: &ErrInvalidResponse{}}, okResponse()}, 2, nil},
		{"plain network error retried", 2, []MockResponse{{Err: errors.New("connection reset")}, okResponse()}, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			resp, err := fastRetry(mock, tt.attempts).Generate(context.Background(), Request{})

			assert.Equal(t, tt.wantCalls, mock.CallCount())
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.JSONEq(t, `{"ok":true}`, string(resp.Content))
				return
			}
			assert.ErrorAs(t, err, tt.wantErr)
		})
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}}, okResponse())
	p := fastRetry(mock, 3)
	p.config.InitialWait = time.Minute
	p.config.MaxWait = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_StopsWhenDeadlineTooClose(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}}, okResponse())
	p := fastRetry(mock, 3)
	p.config.InitialWait = time.Minute
	p.config.MaxWait = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(ctx, Request{})

	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail, "the provider error is returned, not DeadlineExceeded")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_ContextErrorNotRetried(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: context.DeadlineExceeded}}, okResponse())
	_, err := fastRetry(mock, 3).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_Backoff(t *testing.T) {
	p := fastRetry(NewMockProvider(), 3)
	p.config = RetryConfig{InitialWait: time.Second, MaxWait: 3 * time.Second, Multiplier: 2}

	unavail := &ErrProviderUnavailable{}
	assert.Equal(t, time.Second, p.backoff(0, unavail))
	assert.Equal(t, 2*time.Second, p.backoff(1, unavail))
	assert.Equal(t, 3*time.Second, p.backoff(4, unavail), "capped at MaxWait")

	assert.Equal(t, 7*time.Second, p.backoff(0, &ErrRateLimit{RetryAfter: 7 * time.Second}))

	p.jitter = func() float64 { return 0 }
	assert.Equal(t, 800*time.Millisecond, p.backoff(0, unavail))
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	assert.Equal(t, "mock", fastRetry(NewMockProvider(), 1).ModelID())
}

func TestRetry_TimeoutBoundsCall(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Minute})
	p := fastRetry(mock, 3)
	p.timeout = 20 * time.Millisecond

	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.CallCount())
}
