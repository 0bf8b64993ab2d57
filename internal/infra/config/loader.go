// Package config layers supacheck.yaml, SUPABASE_* environment variables and
// built-in defaults into a domain.Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/streakerapp/supacheck/internal/domain"
)

// FileName is the config file searched for in the project root.
const FileName = "supacheck.yaml"

// envBindings maps config keys to the variable names the app's tooling already uses.
var envBindings = map[string]string{
	"project.url":              "SUPABASE_URL",
	"project.anon_key":         "SUPABASE_ANON_KEY",
	"project.service_role_key": "SUPABASE_SERVICE_ROLE_KEY",
	"project.database_url":     "SUPABASE_DB_URL",
}

// Options selects where configuration is read from.
type Options struct {
	// Root is the directory searched for supacheck.yaml.
	Root string
	// File is an explicit config path; it must exist.
	File string
}

// Loaded is the merged configuration and the file it came from, if any.
type Loaded struct {
	Config domain.Config
	Path   string
}

// Load merges defaults < file < environment. Flags are applied by the caller.
func Load(opts Options) (Loaded, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, domain.DefaultConfig())

	// SUPACHECK_CHECK_PASSWORD and friends, plus the SUPABASE_* names.
	v.SetEnvPrefix("SUPACHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Loaded{}, &domain.OpError{Op: "config.env", Kind: domain.KindInvalidConfig, Err: err}
		}
	}

	path, err := resolvePath(opts)
	if err != nil {
		return Loaded{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Loaded{}, &domain.OpError{
				Op:   "config.read",
				Kind: domain.KindInvalidConfig,
				Path: path,
				Err:  err,
			}
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return Loaded{}, &domain.OpError{
			Op:   "config.decode",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	cfg, err := mapConfig(path, fc)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{Config: cfg, Path: path}, nil
}

func resolvePath(opts Options) (string, error) {
	if f := strings.TrimSpace(opts.File); f != "" {
		if _, err := os.Stat(f); err != nil {
			return "", &domain.OpError{
				Op:   "config.find",
				Kind: domain.KindNotFound,
				Path: f,
				Err:  fmt.Errorf("%w: %v", domain.ErrNotFound, err),
			}
		}
		return f, nil
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	p := filepath.Join(root, FileName)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", &domain.OpError{Op: "config.find", Kind: domain.KindExecution, Path: p, Err: err}
	}
	return p, nil
}

func setDefaults(v *viper.Viper, d domain.Config) {
	v.SetDefault("project.url", d.Project.URL)
	v.SetDefault("project.anon_key", d.Project.AnonKey)
	v.SetDefault("project.service_role_key", d.Project.ServiceRoleKey)
	v.SetDefault("project.database_url", d.Project.DatabaseURL)

	v.SetDefault("check.email_prefix", d.Check.EmailPrefix)
	v.SetDefault("check.email_domain", d.Check.EmailDomain)
	v.SetDefault("check.password", d.Check.Password)
	v.SetDefault("check.profile_table", d.Check.ProfileTable)
	v.SetDefault("check.conflict_column", d.Check.ConflictColumn)
	v.SetDefault("check.profile_file", d.Check.ProfileFile)

	v.SetDefault("clear.tables", d.Clear.Tables)

	v.SetDefault("output.reports_dir", d.Output.ReportsDir)
	v.SetDefault("output.masking", d.Output.Masking)
	v.SetDefault("output.save", d.Output.Save)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
}
