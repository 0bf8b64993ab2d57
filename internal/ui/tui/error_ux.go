package tui

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/streakerapp/supacheck/internal/domain"
)

var reLine = regexp.MustCompile(`(?i)\bline\s+(\d+)\b`)

// UserMessage turns an error into a one-line message for the screen.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, domain.ErrMissingCredentials) {
		return "Missing project credentials (set SUPABASE_URL and SUPABASE_ANON_KEY)"
	}

	var oe *domain.OpError
	if errors.As(err, &oe) {
		switch oe.Kind {
		case domain.KindNotFound:
			if strings.Contains(oe.Op, "yamlprofile") {
				return "Profile fixture not found"
			}
			if strings.Contains(oe.Op, "config") {
				return "Config file not found"
			}
			return "Not found"

		case domain.KindMissingVar:
			v := extractMissingVarName(err.Error())
			if v == "" {
				return "Missing variable"
			}
			return "Missing variable " + v

		case domain.KindInvalidConfig:
			base := "config"
			if strings.TrimSpace(oe.Path) != "" {
				base = filepath.Base(oe.Path)
			}

			line := extractLine(err.Error())
			if line != "" {
				return "Invalid YAML at " + base + " line " + line
			}
			if looksLikeYAMLProblem(err.Error()) {
				return "Invalid YAML at " + base
			}
			return "Invalid config"

		default:
			return "Unexpected error (see logs)"
		}
	}

	if looksLikeYAMLProblem(err.Error()) {
		if line := extractLine(err.Error()); line != "" {
			return "Invalid YAML line " + line
		}
		return "Invalid YAML"
	}

	return "Unexpected error (see logs)"
}

func looksLikeYAMLProblem(s string) bool {
	ls := strings.ToLower(s)
	return strings.Contains(ls, "yaml:") || strings.Contains(ls, "did not find expected") || strings.Contains(ls, "cannot unmarshal")
}

func extractLine(s string) string {
	m := reLine.FindStringSubmatch(s)
	if len(m) == 2 {
		return m[1]
	}
	return ""
}

func extractMissingVarName(s string) string {
	ls := strings.ToLower(s)

	i := strings.LastIndex(ls, "missing variable:")
	if i < 0 {
		return ""
	}
	fields := strings.Fields(strings.TrimSpace(s[i+len("missing variable:"):]))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], " .,:;\"'")
}
