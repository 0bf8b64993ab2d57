// Package yamlprofile reads the profile row written by the upsert step.
package yamlprofile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

// Loader reads a YAML fixture of the form:
//
//	columns:
//	  id: "{{user_id}}"
//	  name: Test User
//
// A sibling "<name>.local.yaml" overrides individual columns when present.
type Loader struct {
	rootDir string
}

func NewLoader(root string) *Loader {
	return &Loader{rootDir: root}
}

var _ ports.ProfileSource = (*Loader)(nil)

// LoadProfile returns the built-in onboarding row when path is empty.
func (l *Loader) LoadProfile(path string) (domain.ProfilePayload, error) {
	if strings.TrimSpace(path) == "" {
		return domain.DefaultProfilePayload(), nil
	}
	if !filepath.IsAbs(path) && l.rootDir != "" {
		path = filepath.Join(l.rootDir, path)
	}
	path = filepath.Clean(path)

	base, err := readColumns(path)
	if err != nil {
		return nil, err
	}

	local, err := readColumnsOptional(localPath(path))
	if err != nil {
		return nil, err
	}
	for k, v := range local {
		base[k] = v
	}

	if len(base) == 0 {
		return nil, &domain.OpError{
			Op:   "yamlprofile.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  fmt.Errorf("%w: no columns defined", domain.ErrInvalidConfig),
		}
	}
	return base, nil
}

func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

type yamlProfile struct {
	Columns map[string]any `yaml:"columns"`
}

func readColumns(path string) (domain.ProfilePayload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlprofile.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y yamlProfile
	if err := yaml.Unmarshal(b, &y); err != nil {
		return nil, &domain.OpError{
			Op:   "yamlprofile.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	out := domain.ProfilePayload{}
	for k, v := range y.Columns {
		out[k] = v
	}
	return out, nil
}

func readColumnsOptional(path string) (domain.ProfilePayload, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return domain.ProfilePayload{}, nil
		}
		return nil, &domain.OpError{
			Op:   "yamlprofile.local",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	p, err := readColumns(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load local overrides: %w", err)
	}
	return p, nil
}
