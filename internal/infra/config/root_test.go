package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/streakerapp/supacheck/internal/domain"
)

func TestFindRoot_FromNestedDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "app")
	nested := filepath.Join(root, "scripts", "supabase")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, root, FileName, "project:\n  url: https://x.supabase.co\n")

	got, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("FindRoot returned error: %v", err)
	}
	if got != root {
		t.Fatalf("expected root=%s, got=%s", root, got)
	}
	if RootOrDir(nested) != root {
		t.Fatalf("expected RootOrDir to find %s", root)
	}
}

func TestFindRoot_NotFound(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_ = os.MkdirAll(dir, 0o755)

	_, err := FindRoot(dir)
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected KindNotFound, got: %v", err)
	}
	if RootOrDir(dir) != dir {
		t.Fatalf("expected RootOrDir to fall back to %s", dir)
	}
}
