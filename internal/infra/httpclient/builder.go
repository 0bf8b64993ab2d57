package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/streakerapp/supacheck/internal/domain"
)

// BuildRequest builds an HTTP request from a domain APIRequest.
func BuildRequest(ctx context.Context, spec domain.APIRequest) (*http.Request, error) {
	if strings.TrimSpace(spec.URL) == "" {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  domain.ErrInvalidRequest,
		}
	}

	u, err := url.Parse(spec.URL)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}
	if len(spec.Query) > 0 {
		q := u.Query()
		for k, v := range spec.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	bodyReader := bytes.NewReader(nil)
	if spec.JSON != nil {
		payload, err := json.Marshal(spec.JSON)
		if err != nil {
			return nil, &domain.OpError{
				Op:   "httpclient.build",
				Kind: domain.KindInvalidConfig,
				Err:  err,
			}
		}
		bodyReader = bytes.NewReader(payload)
	}

	method := spec.Method
	if method == "" {
		method = domain.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, string(method), u.String(), bodyReader)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}

	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	if spec.JSON != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}
