package tui

import (
	"context"
	"log/slog"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/usecase"
)

// CheckFunc runs a check and reports every step event through progress.
type CheckFunc func(ctx context.Context, progress func(usecase.StepEvent)) (domain.CheckReport, error)

type Deps struct {
	Check      CheckFunc
	ProjectURL string

	Logger *slog.Logger
	Debug  bool
}
