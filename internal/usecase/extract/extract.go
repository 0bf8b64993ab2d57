package extract

import (
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	json "github.com/goccy/go-json"

	"github.com/streakerapp/supacheck/internal/domain"
)

// FirstOf tries each expression in order and keeps the first non-empty value.
// Signup responses carry the user under $.user when a session is issued and at
// the root when confirmation is pending.
func FirstOf(body []byte, name string, exprs ...string) (string, domain.ExtractResult) {
	doc, err := parseJSON(body)
	if err != nil {
		return "", domain.ExtractResult{
			Name:    name,
			Success: false,
			Message: fmt.Sprintf("extract %q: response body is not valid JSON", name),
		}
	}

	var last domain.ExtractResult
	for _, expr := range exprs {
		v, res := one(doc, name, expr)
		if res.Success {
			return v, res
		}
		last = res
	}
	if len(exprs) == 0 {
		last = domain.ExtractResult{Name: name, Message: fmt.Sprintf("extract %q: no expressions", name)}
	}
	return "", last
}

// Rows decodes a PostgREST array response.
func Rows(body []byte) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Message pulls a human-readable error message from an auth or REST error body.
func Message(body []byte) string {
	doc, err := parseJSON(body)
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, expr := range []string{"$.message", "$.msg", "$.error_description", "$.error"} {
		if v, res := one(doc, "message", expr); res.Success {
			return v
		}
	}
	return strings.TrimSpace(string(body))
}

func one(doc any, name, rawExpr string) (string, domain.ExtractResult) {
	expr := strings.TrimSpace(rawExpr)
	if expr == "" {
		return "", domain.ExtractResult{
			Name:    name,
			Success: false,
			Message: fmt.Sprintf("extract %q: empty jsonpath expression", name),
		}
	}

	val, getErr := jsonpath.Get(expr, doc)
	if getErr != nil {
		return "", domain.ExtractResult{
			Name:    name,
			Success: false,
			Message: fmt.Sprintf("extract %q (%s): jsonpath error: %v", name, expr, getErr),
		}
	}

	if isEmptyValue(val) {
		return "", domain.ExtractResult{
			Name:    name,
			Success: false,
			Message: fmt.Sprintf("extract %q (%s): no value found", name, expr),
		}
	}

	s, convErr := toString(val)
	if convErr != nil {
		return "", domain.ExtractResult{
			Name:    name,
			Success: false,
			Message: fmt.Sprintf("extract %q (%s): cannot convert value to string: %v", name, expr, convErr),
		}
	}

	return s, domain.ExtractResult{
		Name:    name,
		Success: true,
		Message: fmt.Sprintf("extracted %q", name),
	}
}

func parseJSON(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func toString(v any) (string, error) {
	// Common case: jsonpath returns a slice with 1 element
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return "", fmt.Errorf("empty array")
		}
		if len(arr) == 1 {
			return toString(arr[0])
		}
		b, err := json.Marshal(arr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	switch t := v.(type) {
	case string:
		return t, nil
	case float64, bool, int, int64, uint64:
		return fmt.Sprint(t), nil
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(t), nil
	}
}
