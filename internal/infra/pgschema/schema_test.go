package pgschema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/streakerapp/supacheck/internal/domain"
)

func TestSplit_DollarQuotedBodyStaysWhole(t *testing.T) {
	script := `
-- leading comment; with a semicolon
CREATE TABLE a (id INT);
DO $$
BEGIN
  CREATE POLICY "p" ON a FOR ALL USING (true);
EXCEPTION WHEN duplicate_object THEN
  NULL;
END $$;
INSERT INTO a VALUES ('x;y');
`
	got := Split(script)
	if len(got) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INT)" {
		t.Fatalf("unexpected first statement: %q", got[0])
	}
	if !strings.HasPrefix(got[1], "DO $$") || !strings.HasSuffix(got[1], "END $$") {
		t.Fatalf("expected DO block intact, got %q", got[1])
	}
	if got[2] != "INSERT INTO a VALUES ('x;y')" {
		t.Fatalf("unexpected insert: %q", got[2])
	}
}

func TestSplit_NamedDollarTag(t *testing.T) {
	got := Split("SELECT $fn$ a; b $fn$; SELECT 1")
	if len(got) != 2 || got[0] != "SELECT $fn$ a; b $fn$" {
		t.Fatalf("unexpected split: %q", got)
	}
}

func TestStatements_Embedded(t *testing.T) {
	stmts := Statements()
	if len(stmts) < 10 {
		t.Fatalf("expected embedded schema to have statements, got %d", len(stmts))
	}
	if !strings.Contains(stmts[0], "public.profiles") {
		t.Fatalf("expected profiles first, got %q", stmts[0])
	}
	for _, s := range stmts {
		if strings.HasPrefix(s, "--") {
			t.Fatalf("comment leaked into statement: %q", s)
		}
	}
}

func TestRelaxNotNull_QuotesIdentifiers(t *testing.T) {
	got := RelaxNotNull("profiles", []string{"age", "fitness_goal"})
	want := `ALTER TABLE public."profiles" ALTER COLUMN "age" DROP NOT NULL`
	if len(got) != 2 || got[0] != want {
		t.Fatalf("unexpected statements: %q", got)
	}
}

func TestApply_MissingDSN(t *testing.T) {
	err := NewApplier("  ").Apply(context.Background(), []string{"SELECT 1"})
	if !domain.IsKind(err, domain.KindInvalidConfig) || !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected missing credentials, got %v", err)
	}
}
