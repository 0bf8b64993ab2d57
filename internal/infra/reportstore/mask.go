package reportstore

import (
	"strings"

	json "github.com/goccy/go-json"
)

const maskValue = "********"

// maskFile masks sensitive details and JSON body fields in place.
// toFile already copied everything it touches.
func maskFile(f *reportFile) {
	for i := range f.Steps {
		s := &f.Steps[i]
		for j := range s.Details {
			if isSensitiveKey(s.Details[j].Key) {
				s.Details[j].Value = maskValue
			}
		}
		if len(s.Body) > 0 {
			s.Body = maskJSON(s.Body)
		}
	}
}

// maskJSON replaces values of sensitive keys at any depth.
func maskJSON(raw json.RawMessage) json.RawMessage {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw
	}
	b, err := json.Marshal(maskValueTree(doc))
	if err != nil {
		return raw
	}
	return b
}

func maskValueTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			if isSensitiveKey(k) {
				t[k] = maskValue
				continue
			}
			t[k] = maskValueTree(vv)
		}
		return t
	case []any:
		for i := range t {
			t[i] = maskValueTree(t[i])
		}
		return t
	default:
		return v
	}
}

func isSensitiveKey(k string) bool {
	kk := strings.ToLower(k)
	return strings.Contains(kk, "token") ||
		strings.Contains(kk, "secret") ||
		strings.Contains(kk, "password") ||
		strings.Contains(kk, "apikey") ||
		strings.Contains(kk, "api-key") ||
		kk == "authorization"
}
