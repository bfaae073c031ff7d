// Package robusthttp builds the HTTP client used for all upstream Xtream API
// and icon traffic: pooled transport, bounded retries with backoff, and retry
// logging routed through slog.
package robusthttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type leveledSlog struct {
	inner *slog.Logger
}

// re-writes client ERROR to WARN level, since failures here get retried
func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

type Option func(*retryablehttp.Client)

// WithMaxRetries caps the retry count per request.
func WithMaxRetries(n int) Option {
	return func(client *retryablehttp.Client) {
		client.RetryMax = n
	}
}

// WithTimeout bounds each individual attempt. The assembled client keeps its
// own overall 30s deadline across retries.
func WithTimeout(d time.Duration) Option {
	return func(client *retryablehttp.Client) {
		client.HTTPClient.Timeout = d
	}
}

// WithLogger routes retry logging somewhere other than slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(client *retryablehttp.Client) {
		client.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: logger})
	}
}

// NewClient returns an *http.Client with retryablehttp logic inside. It
// retries connection errors and 5xx responses (except 501) with backoff, and
// logs intermediate failures at WARN.
//
// 429 is treated as terminal: IPTV panels rate-limit aggressively and ban
// clients that keep hammering, so retrying inside the client would only make
// things worse. Callers see the 429 and the cache keeps serving whatever it
// has.
func NewClient(options ...Option) *http.Client {
	logger := leveledSlog{inner: slog.Default().With("subsystem", "robusthttp")}
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(cleanhttp.DefaultPooledTransport())
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(logger)
	retryClient.CheckRetry = RetryPolicy

	for _, option := range options {
		option(retryClient)
	}

	client := retryClient.StandardClient()
	client.Timeout = 30 * time.Second
	return client
}

// RetryPolicy wraps retryablehttp.DefaultRetryPolicy but never retries 429.
func RetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
