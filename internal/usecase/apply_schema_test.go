package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/streakerapp/supacheck/internal/domain"
)

type recordingApplier struct {
	got []string
	err error
}

func (r *recordingApplier) Apply(_ context.Context, statements []string) error {
	r.got = statements
	return r.err
}

func TestApplySchema_AppendsRelaxStatements(t *testing.T) {
	ap := &recordingApplier{}
	res, err := NewApplySchema(ap, nil).Execute(context.Background(), SchemaInput{
		Statements:     []string{"CREATE TABLE a (id INT)"},
		Relax:          []string{"ALTER TABLE a ALTER COLUMN id DROP NOT NULL"},
		RelaxedColumns: []string{"id"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Statements != 2 || len(res.Relaxed) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if ap.got[1] != "ALTER TABLE a ALTER COLUMN id DROP NOT NULL" {
		t.Fatalf("expected relax statement last, got %q", ap.got)
	}
}

func TestApplySchema_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewApplySchema(&recordingApplier{err: boom}, nil).Execute(context.Background(), SchemaInput{
		Statements: []string{"SELECT 1"},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestApplySchema_Empty(t *testing.T) {
	_, err := NewApplySchema(&recordingApplier{}, nil).Execute(context.Background(), SchemaInput{})
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestOnboardingColumns(t *testing.T) {
	cols := OnboardingColumns(domain.DefaultProfilePayload())
	if len(cols) != 11 {
		t.Fatalf("expected 11 onboarding columns, got %d: %v", len(cols), cols)
	}
	for _, c := range cols {
		if c == "id" || c == "email" {
			t.Fatalf("identity column %q must not be relaxed", c)
		}
	}
}
