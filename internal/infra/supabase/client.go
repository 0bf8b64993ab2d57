// Package supabase implements the auth and table gateways against a hosted
// Supabase project (GoTrue under /auth/v1, PostgREST under /rest/v1).
package supabase

import (
	"context"
	"errors"
	"strings"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/httpclient"
)

const (
	authPrefix = "/auth/v1"
	restPrefix = "/rest/v1"
)

// Doer executes a domain request. *httpclient.Executor satisfies it.
type Doer interface {
	Do(ctx context.Context, req domain.APIRequest) (domain.APIResponse, error)
}

// Client holds the project URL and the key sent as `apikey`.
type Client struct {
	baseURL string
	apiKey  string
	doer    Doer
}

type Option func(*Client)

// WithDoer replaces the default executor.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// NewClient validates the project URL and key.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, &domain.OpError{
			Op:   "supabase.client",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("project url is required"),
		}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, &domain.OpError{
			Op:   "supabase.client",
			Kind: domain.KindInvalidConfig,
			Err:  domain.ErrMissingCredentials,
		}
	}

	c := &Client{
		baseURL: base,
		apiKey:  apiKey,
		doer:    httpclient.NewExecutor(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized project URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(prefix, path string) string {
	return c.baseURL + prefix + "/" + strings.TrimLeft(path, "/")
}

// headers returns the key header plus a bearer token (the key itself when token is empty).
func (c *Client) headers(bearer string) domain.Headers {
	h := domain.Headers{"apikey": c.apiKey}
	if bearer != "" {
		h["Authorization"] = "Bearer " + bearer
	}
	return h
}
