package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

// SchemaInput is the DDL to run. Relax statements run after the base script.
type SchemaInput struct {
	Statements     []string
	Relax          []string
	RelaxedColumns []string
}

type ApplySchema struct {
	applier ports.SchemaApplier
	log     *slog.Logger
}

func NewApplySchema(applier ports.SchemaApplier, log *slog.Logger) *ApplySchema {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &ApplySchema{applier: applier, log: log}
}

func (uc *ApplySchema) Execute(ctx context.Context, in SchemaInput) (domain.SchemaResult, error) {
	all := make([]string, 0, len(in.Statements)+len(in.Relax))
	all = append(all, in.Statements...)
	all = append(all, in.Relax...)
	if len(all) == 0 {
		return domain.SchemaResult{}, &domain.OpError{
			Op:   "schema.validate",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("%w: no statements", domain.ErrInvalidConfig),
		}
	}

	uc.log.Info("schema.apply.start", "statements", len(all), "relaxed", len(in.RelaxedColumns))
	if err := uc.applier.Apply(ctx, all); err != nil {
		uc.log.Error("schema.apply.error", "err", err)
		return domain.SchemaResult{}, err
	}
	uc.log.Info("schema.apply.done", "statements", len(all))

	return domain.SchemaResult{
		Statements: len(all),
		Relaxed:    append([]string(nil), in.RelaxedColumns...),
	}, nil
}

// OnboardingColumns are the profile columns the app fills after signup and
// which must therefore accept NULL on the first insert.
func OnboardingColumns(p domain.ProfilePayload) []string {
	out := make([]string, 0, len(p))
	for _, c := range p.Columns() {
		if c == "id" || c == "email" {
			continue
		}
		out = append(out, c)
	}
	return out
}
