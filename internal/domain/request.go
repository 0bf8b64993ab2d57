package domain

// HTTPMethod represents an HTTP method (e.g., GET, POST).
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodDelete HTTPMethod = "DELETE"
	MethodHead   HTTPMethod = "HEAD"
)

// Headers is a map representation of HTTP headers.
type Headers map[string]string

// APIRequest describes a single call against the hosted backend.
// JSON is marshalled as the body when non-nil.
type APIRequest struct {
	Method  HTTPMethod
	URL     string
	Query   map[string]string
	Headers Headers
	JSON    any
}

// APIResponse stores a bounded view of the response.
// Keep it generic so the domain does not depend on net/http types.
type APIResponse struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	Truncated  bool
	LatencyMS  int64
}

// IsSuccess reports whether the status is one of the accepted codes.
func (r APIResponse) IsSuccess(accepted ...int) bool {
	for _, c := range accepted {
		if r.StatusCode == c {
			return true
		}
	}
	return false
}

// JSONPathAssertion defines a JSONPath-based check.
type JSONPathAssertion struct {
	Exists   bool
	Eq       *string
	Contains *string
	Matches  *string
	Gt       *float64
	Lt       *float64
}

// AssertionsSpec defines the functional checks applied to a step's response.
type AssertionsSpec struct {
	// Status lists accepted HTTP status codes (optional).
	Status []int

	// MaxLatencyMS is a maximum allowed latency in milliseconds (optional).
	MaxLatencyMS *int

	// JSONPath contains JSONPath assertions keyed by expression (optional).
	JSONPath map[string]JSONPathAssertion
}
