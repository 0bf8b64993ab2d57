package usecase

import (
	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

type InitProject struct {
	initializer ports.ProjectInitializer
}

func NewInitProject(initializer ports.ProjectInitializer) *InitProject {
	return &InitProject{initializer: initializer}
}

func (uc *InitProject) Execute(root, projectURL string, force bool) error {
	return uc.initializer.Init(domain.ProjectSpec{Root: root, ProjectURL: projectURL}, force)
}
