// Package fsproject scaffolds a supacheck project directory.
package fsproject

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/streakerapp/supacheck/internal/app/template"
	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

//go:embed templates/*
var templatesFS embed.FS

// runtimeVars are resolved per check run, not at scaffold time.
var runtimeVars = []string{"user_id", "email"}

type Initializer struct{}

func NewInitializer() *Initializer {
	return &Initializer{}
}

var _ ports.ProjectInitializer = (*Initializer)(nil)

// Init writes supacheck.yaml, profile.yaml and profile.local.yaml under spec.Root.
// Existing files are kept unless force is set.
func (i *Initializer) Init(spec domain.ProjectSpec, force bool) error {
	root := filepath.Clean(spec.Root)

	dirs := []string{
		filepath.Join(root, domain.DefaultConfig().Output.ReportsDir),
		filepath.Join(root, ".supacheck", "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return initErr(d, err)
		}
	}

	if err := ensureGitignore(root); err != nil {
		return initErr(filepath.Join(root, ".gitignore"), err)
	}

	vars := map[string]string{
		"project_url":   strings.TrimSpace(spec.ProjectURL),
		"profile_table": domain.DefaultConfig().Check.ProfileTable,
	}

	return fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".tmpl")
		dst := filepath.Join(root, rel)

		if !force {
			if _, statErr := os.Stat(dst); statErr == nil {
				return nil
			}
		}

		b, err := fs.ReadFile(templatesFS, p)
		if err != nil {
			return initErr(p, err)
		}
		out, err := template.RenderString(string(b), vars, runtimeVars...)
		if err != nil {
			return err
		}

		mode := fs.FileMode(0o644)
		if strings.Contains(rel, ".local.") {
			mode = 0o600
		}
		if err := os.WriteFile(dst, []byte(out), mode); err != nil {
			return initErr(dst, err)
		}
		return nil
	})
}

func initErr(path string, err error) error {
	return &domain.OpError{Op: "project.init", Kind: domain.KindExecution, Path: path, Err: err}
}

func ensureGitignore(root string) error {
	const header = "# supacheck"
	entries := []string{
		"reports/",
		".supacheck/",
		"profile.local.yaml",
	}

	path := filepath.Join(root, ".gitignore")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			lines := append([]string{header}, entries...)
			lines = append(lines, "")
			return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
		}
		return err
	}

	existing := string(b)
	present := map[string]bool{}
	for _, line := range strings.Split(existing, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		present[trimmed] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var out strings.Builder
	out.Grow(len(existing) + 64)

	out.WriteString(existing)
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		out.WriteByte('\n')
	}
	out.WriteByte('\n')
	if !present[header] {
		out.WriteString(header)
		out.WriteByte('\n')
	}
	for _, e := range missing {
		out.WriteString(e)
		out.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(out.String()), 0o644)
}
