package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/streakerapp/supacheck/internal/domain"
)

// Config tunes the transport shared by the auth and table gateways.
type Config struct {
	// Timeout bounds a whole request including the body read.
	// A shorter context deadline still wins.
	Timeout time.Duration

	DialTimeout     time.Duration
	KeepAlive       time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConnsPerHost int

	// UserAgent is sent on every request when set.
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshake:        5 * time.Second,
		ResponseHeader:      15 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 2,
	}
}

// FromConfig applies the user-facing HTTP settings on top of the defaults.
func FromConfig(h domain.HTTPConfig, userAgent string) Config {
	cfg := DefaultConfig()
	if h.Timeout > 0 {
		cfg.Timeout = h.Timeout
		if h.Timeout < cfg.ResponseHeader {
			cfg.ResponseHeader = h.Timeout
		}
	}
	cfg.UserAgent = userAgent
	return cfg
}

// New builds a client for a single project host. All requests go to one
// origin, so the idle pool stays small.
func New(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}
	if cfg.UserAgent != "" {
		rt = userAgentTransport{next: rt, ua: cfg.UserAgent}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
	}
}

type userAgentTransport struct {
	next http.RoundTripper
	ua   string
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") == "" {
		r = r.Clone(r.Context())
		r.Header.Set("User-Agent", t.ua)
	}
	return t.next.RoundTrip(r)
}
