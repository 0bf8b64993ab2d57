package ports

import "github.com/streakerapp/supacheck/internal/domain"

// ProjectInitializer scaffolds supacheck.yaml and its fixtures into a directory.
type ProjectInitializer interface {
	Init(spec domain.ProjectSpec, force bool) error
}
