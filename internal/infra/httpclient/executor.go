package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/streakerapp/supacheck/internal/domain"
)

const defaultMaxBodyBytes = 256 * 1024 // 256KB

// Executor executes HTTP requests with timing and a bounded body read.
type Executor struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
}

// ExecutorOption allows configuring an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the default timeout applied to requests.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = timeout }
}

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) ExecutorOption {
	return func(e *Executor) { e.client = client }
}

// WithMaxBodyBytes caps how much of a response body is kept.
func WithMaxBodyBytes(n int64) ExecutorOption {
	return func(e *Executor) { e.maxBodyBytes = n }
}

// NewExecutor builds an Executor with a default client and timeout.
func NewExecutor(opts ...ExecutorOption) *Executor {
	cfg := DefaultConfig()
	e := &Executor{
		client:       New(cfg),
		timeout:      cfg.Timeout,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do builds and executes spec. Non-2xx statuses are not errors.
func (e *Executor) Do(ctx context.Context, spec domain.APIRequest) (domain.APIResponse, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := BuildRequest(ctx, spec)
	if err != nil {
		return domain.APIResponse{}, err
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	lat := time.Since(start)
	if err != nil {
		return domain.APIResponse{LatencyMS: lat.Milliseconds()}, err
	}
	defer resp.Body.Close()

	out := domain.APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    cloneHeaders(resp.Header),
	}

	body, truncated, readErr := readBounded(resp.Body, e.maxBodyBytes)
	out.LatencyMS = time.Since(start).Milliseconds()
	if readErr != nil {
		return out, readErr
	}

	out.Body = body
	out.Truncated = truncated
	return out, nil
}

func readBounded(r io.Reader, maxBytes int64) ([]byte, bool, error) {
	lim := io.LimitReader(r, maxBytes+1)
	b, err := io.ReadAll(lim)
	if err != nil {
		return nil, false, err
	}
	if int64(len(b)) > maxBytes {
		return b[:maxBytes], true, nil
	}
	return b, false, nil
}

func cloneHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
