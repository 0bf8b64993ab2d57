package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/streakerapp/supacheck/internal/domain"
)

func mapConfig(path string, fc fileConfig) (domain.Config, error) {
	cfg := domain.Config{
		Project: domain.ProjectConfig{
			URL:            strings.TrimSpace(fc.Project.URL),
			AnonKey:        strings.TrimSpace(fc.Project.AnonKey),
			ServiceRoleKey: strings.TrimSpace(fc.Project.ServiceRoleKey),
			DatabaseURL:    strings.TrimSpace(fc.Project.DatabaseURL),
		},
		Check: domain.CheckConfig{
			EmailPrefix:    fc.Check.EmailPrefix,
			EmailDomain:    strings.TrimSpace(fc.Check.EmailDomain),
			Password:       fc.Check.Password,
			ProfileTable:   strings.TrimSpace(fc.Check.ProfileTable),
			ConflictColumn: strings.TrimSpace(fc.Check.ConflictColumn),
			ProfileFile:    strings.TrimSpace(fc.Check.ProfileFile),
		},
		Clear: domain.ClearConfig{
			Tables: fc.Clear.Tables,
		},
		Output: domain.OutputConfig{
			ReportsDir: strings.TrimSpace(fc.Output.ReportsDir),
			Masking:    fc.Output.Masking,
			Save:       fc.Output.Save,
		},
		HTTP: domain.HTTPConfig{
			Timeout: fc.HTTP.Timeout,
		},
	}

	if strings.Contains(cfg.Check.EmailDomain, "@") {
		return domain.Config{}, invalidField(path, "check.email_domain", "must not contain @")
	}
	if cfg.HTTP.Timeout < 0 {
		return domain.Config{}, invalidField(path, "http.timeout", "must not be negative")
	}
	for i, t := range cfg.Clear.Tables {
		if strings.TrimSpace(t) == "" {
			return domain.Config{}, invalidField(path, fmt.Sprintf("clear.tables[%d]", i), "table name is empty")
		}
	}
	assertions, err := mapAssertions(path, fc.Check.Assertions)
	if err != nil {
		return domain.Config{}, err
	}
	cfg.Check.Assertions = assertions

	if cfg.Output.ReportsDir == "" {
		cfg.Output.ReportsDir = domain.DefaultConfig().Output.ReportsDir
	}

	return cfg, nil
}

func mapAssertions(path string, in []assertionDTO) (map[domain.StepName]map[string]domain.JSONPathAssertion, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[domain.StepName]map[string]domain.JSONPathAssertion)
	for i, a := range in {
		field := fmt.Sprintf("check.assertions[%d]", i)
		step := domain.StepName(strings.TrimSpace(a.Step))
		if !slices.Contains(domain.CheckSteps, step) {
			return nil, invalidField(path, field+".step", fmt.Sprintf("unknown step %q", a.Step))
		}
		expr := strings.TrimSpace(a.Path)
		if !strings.HasPrefix(expr, "$") {
			return nil, invalidField(path, field+".path", "must be a jsonpath starting with $")
		}
		if !a.Exists && a.Eq == nil && a.Contains == nil && a.Matches == nil && a.Gt == nil && a.Lt == nil {
			return nil, invalidField(path, field, "no check set (exists, eq, contains, matches, gt, lt)")
		}
		if a.Matches != nil {
			if _, err := regexp.Compile(*a.Matches); err != nil {
				return nil, invalidField(path, field+".matches", err.Error())
			}
		}
		if out[step] == nil {
			out[step] = make(map[string]domain.JSONPathAssertion)
		}
		if _, dup := out[step][expr]; dup {
			return nil, invalidField(path, field+".path", fmt.Sprintf("duplicate path %q for step %s", expr, step))
		}
		out[step][expr] = domain.JSONPathAssertion{
			Exists:   a.Exists,
			Eq:       a.Eq,
			Contains: a.Contains,
			Matches:  a.Matches,
			Gt:       a.Gt,
			Lt:       a.Lt,
		}
	}
	return out, nil
}

// RequireProject checks the settings every backend command needs.
func RequireProject(cfg domain.Config, serviceRole bool) error {
	var missing []string
	if cfg.Project.URL == "" {
		missing = append(missing, "project url (SUPABASE_URL)")
	}
	if serviceRole {
		if cfg.Project.ServiceRoleKey == "" {
			missing = append(missing, "service role key (SUPABASE_SERVICE_ROLE_KEY)")
		}
	} else if cfg.Project.AnonKey == "" {
		missing = append(missing, "anon key (SUPABASE_ANON_KEY)")
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.OpError{
		Op:   "config.require",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("%w: missing %s", domain.ErrMissingCredentials, strings.Join(missing, ", ")),
	}
}

// RequireDatabase checks for the direct Postgres connection string.
func RequireDatabase(cfg domain.Config) error {
	if cfg.Project.DatabaseURL != "" {
		return nil
	}
	return &domain.OpError{
		Op:   "config.require",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("%w: missing database url (SUPABASE_DB_URL)", domain.ErrMissingCredentials),
	}
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "config.map",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig),
	}
}
