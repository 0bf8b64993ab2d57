package supabase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

// allRowsSentinel matches every row with a uuid primary key in a delete filter.
const allRowsSentinel = "00000000-0000-0000-0000-000000000000"

// Rest is the PostgREST gateway.
type Rest struct {
	c *Client
}

func NewRest(c *Client) *Rest {
	return &Rest{c: c}
}

var _ ports.TableGateway = (*Rest)(nil)

func (r *Rest) bearer(accessToken string) string {
	if accessToken != "" {
		return accessToken
	}
	return r.c.apiKey
}

func (r *Rest) SelectEq(ctx context.Context, accessToken, table, column, value string) (domain.APIResponse, error) {
	return r.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodGet,
		URL:     r.c.url(restPrefix, table),
		Query:   map[string]string{column: "eq." + value},
		Headers: r.c.headers(r.bearer(accessToken)),
	})
}

func (r *Rest) Upsert(ctx context.Context, accessToken, table, onConflict string, row domain.ProfilePayload) (domain.APIResponse, error) {
	h := r.c.headers(r.bearer(accessToken))
	h["Prefer"] = "resolution=merge-duplicates"

	var q map[string]string
	if onConflict != "" {
		q = map[string]string{"on_conflict": onConflict}
	}

	return r.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodPost,
		URL:     r.c.url(restPrefix, table),
		Query:   q,
		Headers: h,
		JSON:    map[string]any(row),
	})
}

func (r *Rest) DeleteAll(ctx context.Context, table string) (domain.APIResponse, error) {
	return r.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodDelete,
		URL:     r.c.url(restPrefix, table),
		Query:   map[string]string{"id": "neq." + allRowsSentinel},
		Headers: r.c.headers(r.c.apiKey),
	})
}

// Count issues a HEAD with an exact count and parses Content-Range.
func (r *Rest) Count(ctx context.Context, table string) (int64, domain.APIResponse, error) {
	h := r.c.headers(r.c.apiKey)
	h["Prefer"] = "count=exact"

	resp, err := r.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodHead,
		URL:     r.c.url(restPrefix, table),
		Query:   map[string]string{"select": "*"},
		Headers: h,
	})
	if err != nil {
		return 0, resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, resp, nil
	}

	n, err := ParseContentRangeTotal(headerValue(resp.Headers, "Content-Range"))
	if err != nil {
		return 0, resp, &domain.OpError{
			Op:   "supabase.count",
			Kind: domain.KindExecution,
			Err:  err,
		}
	}
	return n, resp, nil
}

// ParseContentRangeTotal reads the total from "0-9/10" or "*/0".
func ParseContentRangeTotal(v string) (int64, error) {
	v = strings.TrimSpace(v)
	i := strings.LastIndex(v, "/")
	if i < 0 || i == len(v)-1 {
		return 0, fmt.Errorf("content-range %q has no total", v)
	}
	total := v[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("content-range %q has unknown total", v)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("content-range %q: %w", v, err)
	}
	return n, nil
}

func headerValue(h map[string][]string, name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
