package assert

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/streakerapp/supacheck/internal/domain"
)

// Status passes when got is one of the accepted codes.
func Status(accepted []int, got int) domain.AssertionResult {
	if slices.Contains(accepted, got) {
		return domain.AssertionResult{Name: "status", Passed: true, Message: fmt.Sprintf("status %d", got)}
	}
	return domain.AssertionResult{
		Name:    "status",
		Message: fmt.Sprintf("expected status %s, got %d", joinCodes(accepted), got),
	}
}

// MaxLatency passes when the round trip took at most maxMs.
func MaxLatency(maxMs int, latencyMs int64) domain.AssertionResult {
	res := domain.AssertionResult{Name: "max_ms", Passed: latencyMs <= int64(maxMs)}
	if res.Passed {
		res.Message = fmt.Sprintf("latency %dms <= %dms", latencyMs, maxMs)
	} else {
		res.Message = fmt.Sprintf("expected latency <= %dms, got %dms", maxMs, latencyMs)
	}
	return res
}

// Evaluate applies the assertions spec against the observed response.
// It parses JSON only if JSONPath assertions are present.
func Evaluate(spec domain.AssertionsSpec, resp domain.APIResponse) []domain.AssertionResult {
	var out []domain.AssertionResult

	if len(spec.Status) > 0 {
		out = append(out, Status(spec.Status, resp.StatusCode))
	}
	if spec.MaxLatencyMS != nil {
		out = append(out, MaxLatency(*spec.MaxLatencyMS, resp.LatencyMS))
	}

	if len(spec.JSONPath) == 0 {
		return out
	}

	exprs := make([]string, 0, len(spec.JSONPath))
	for expr := range spec.JSONPath {
		exprs = append(exprs, expr)
	}
	sort.Strings(exprs)

	doc, err := parseJSON(resp.Body)
	if err != nil {
		for _, expr := range exprs {
			out = append(out, jsonPathChecks(expr, spec.JSONPath[expr], nil,
				fmt.Errorf("response body is not valid JSON"))...)
		}
		return out
	}

	for _, expr := range exprs {
		val, getErr := jsonpath.Get(expr, doc)
		out = append(out, jsonPathChecks(expr, spec.JSONPath[expr], val, getErr)...)
	}

	return out
}

func joinCodes(codes []int) string {
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		parts = append(parts, strconv.Itoa(c))
	}
	return strings.Join(parts, "|")
}

func jsonPathChecks(expr string, a domain.JSONPathAssertion, val any, getErr error) []domain.AssertionResult {
	var out []domain.AssertionResult
	if a.Exists {
		out = append(out, checkExists(expr, val, getErr))
	}
	for _, c := range valueChecks(a) {
		out = append(out, c.run(expr, val, getErr))
	}
	return out
}

func checkExists(expr string, val any, getErr error) domain.AssertionResult {
	res := domain.AssertionResult{Name: "jsonpath.exists"}
	switch {
	case getErr != nil:
		res.Message = fmt.Sprintf("invalid jsonpath %q: %v", expr, getErr)
	case isEmptyJSONPathValue(val):
		res.Message = fmt.Sprintf("jsonpath %q: expected value to exist, got empty", expr)
	default:
		res.Passed = true
		res.Message = fmt.Sprintf("jsonpath %q exists", expr)
	}
	return res
}

// valueCheck compares the scalar at a path against one expectation.
type valueCheck struct {
	op   string
	want string
	test func(got string) (bool, error)
}

// valueChecks lists the configured comparisons in a fixed order: eq, contains,
// matches, gt, lt.
func valueChecks(a domain.JSONPathAssertion) []valueCheck {
	var out []valueCheck
	if a.Eq != nil {
		want := *a.Eq
		out = append(out, valueCheck{op: "eq", want: want, test: func(got string) (bool, error) {
			return got == want, nil
		}})
	}
	if a.Contains != nil {
		want := *a.Contains
		out = append(out, valueCheck{op: "contains", want: want, test: func(got string) (bool, error) {
			return strings.Contains(got, want), nil
		}})
	}
	if a.Matches != nil {
		want := *a.Matches
		re, reErr := regexp.Compile(want)
		out = append(out, valueCheck{op: "matches", want: want, test: func(got string) (bool, error) {
			if reErr != nil {
				return false, fmt.Errorf("invalid regex %q: %v", want, reErr)
			}
			return re.MatchString(got), nil
		}})
	}
	if a.Gt != nil {
		out = append(out, numericCheck("gt", *a.Gt, func(c int) bool { return c > 0 }))
	}
	if a.Lt != nil {
		out = append(out, numericCheck("lt", *a.Lt, func(c int) bool { return c < 0 }))
	}
	return out
}

// numericCheck compares by decimal value so "175.50" and 175.5 agree.
func numericCheck(op string, threshold float64, ok func(cmp int) bool) valueCheck {
	limit := decimal.NewFromFloat(threshold)
	return valueCheck{op: op, want: limit.String(), test: func(got string) (bool, error) {
		d, err := decimal.NewFromString(got)
		if err != nil {
			return false, fmt.Errorf("value %q is not numeric", got)
		}
		return ok(d.Cmp(limit)), nil
	}}
}

func (c valueCheck) run(expr string, val any, getErr error) domain.AssertionResult {
	res := domain.AssertionResult{Name: "jsonpath." + c.op}
	if getErr != nil {
		res.Message = fmt.Sprintf("jsonpath %q: %v", expr, getErr)
		return res
	}

	got, err := scalar(val)
	if err == nil {
		res.Passed, err = c.test(got)
	}
	switch {
	case err != nil:
		res.Message = fmt.Sprintf("jsonpath %q: %v", expr, err)
	case res.Passed:
		res.Message = fmt.Sprintf("jsonpath %q %s %q", expr, c.op, c.want)
	default:
		res.Message = fmt.Sprintf("jsonpath %q: expected %s %q, got %q", expr, c.op, c.want, got)
	}
	return res
}

// scalar renders a jsonpath result as text. Filter expressions yield a
// one-element slice, which is unwrapped.
func scalar(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("value is null")
	case []any:
		if len(v) == 1 {
			return scalar(v[0])
		}
		return "", fmt.Errorf("expected one value, got %d", len(v))
	default:
		return fmt.Sprint(v), nil
	}
}

func parseJSON(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func isEmptyJSONPathValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
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
