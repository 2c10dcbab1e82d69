package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrEmbeddingUnavailable means the embedding backend is unreachable or misconfigured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	// ErrEmbeddingRateLimited means the embedding backend throttled the request. Retrying later may succeed.
	ErrEmbeddingRateLimited = errors.New("embedding service rate limited")
	// ErrGenerationUnavailable means the generation backend failed or is unreachable.
	ErrGenerationUnavailable = errors.New("generation service unavailable")
	// ErrProviderTimeout means a provider call exceeded its deadline. Retrying later may succeed.
	ErrProviderTimeout = errors.New("provider timeout")
)

// Operation names used in ProviderError.
const (
	OpEmbed    = "embed"
	OpGenerate = "generate"
)

// ProviderError describes a failed provider call.
// errors.Is matches both Kind (one of the sentinels above) and Cause.
type ProviderError struct {
	Kind       error
	Provider   string
	Op         string
	StatusCode int
	RetryAfter time.Duration
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Retryable reports whether err is a rate limit or a timeout.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbeddingRateLimited) || errors.Is(err, ErrProviderTimeout)
}

func unavailableKind(op string) error {
	if op == OpGenerate {
		return ErrGenerationUnavailable
	}
	return ErrEmbeddingUnavailable
}

// statusError classifies a non-200 response.
func statusError(provider, op string, resp *http.Response, body []byte) error {
	pe := &ProviderError{
		Kind:       unavailableKind(op),
		Provider:   provider,
		Op:         op,
		StatusCode: resp.StatusCode,
		Cause:      fmt.Errorf("bad status %d: %s", resp.StatusCode, string(body)),
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if op == OpEmbed {
			pe.Kind = ErrEmbeddingRateLimited
		}
		pe.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		pe.Kind = ErrProviderTimeout
	}
	return pe
}

// transportError classifies a failure to complete the HTTP exchange.
// Cancellation by the caller is returned unchanged.
func transportError(ctx context.Context, provider, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	kind := unavailableKind(op)
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = ErrProviderTimeout
	}
	return &ProviderError{Kind: kind, Provider: provider, Op: op, Cause: err}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
