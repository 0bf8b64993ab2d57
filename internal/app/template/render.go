// Package template fills {{name}} placeholders in scaffold files.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/streakerapp/supacheck/internal/domain"
)

// RenderString replaces {{VAR}} placeholders with vars values.
// A placeholder whose name is in keep is copied through unchanged so
// run-time variables like {{user_id}} survive scaffolding.
func RenderString(input string, vars map[string]string, keep ...string) (string, error) {
	if input == "" {
		return "", nil
	}

	var out strings.Builder
	rest := input
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			out.WriteString(rest)
			return out.String(), nil
		}

		out.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end == -1 {
			return "", &domain.OpError{
				Op:   "template.render",
				Kind: domain.KindInvalidConfig,
				Err:  fmt.Errorf("unclosed template expression: %w", domain.ErrInvalidConfig),
			}
		}

		key := strings.TrimSpace(rest[:end])
		if key == "" {
			return "", &domain.OpError{
				Op:   "template.render",
				Kind: domain.KindInvalidConfig,
				Err:  errors.Join(errors.New("empty template expression"), domain.ErrInvalidConfig),
			}
		}

		value, ok := vars[key]
		switch {
		case ok:
			out.WriteString(value)
		case contains(keep, key):
			out.WriteString("{{" + rest[:end] + "}}")
		default:
			return "", &domain.OpError{
				Op:   "template.render",
				Kind: domain.KindMissingVar,
				Err:  fmt.Errorf("%w: %q", domain.ErrMissingVar, key),
			}
		}
		rest = rest[end+2:]
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
