package domain

import "testing"

func TestMergeVars(t *testing.T) {
	base := Vars{
		"email":   "base@example.com",
		"user_id": "base",
	}
	override := Vars{
		"user_id": "override",
		"name":    "Test User",
	}

	merged := Merge(base, override)

	if merged["email"] != "base@example.com" {
		t.Fatalf("expected base value to remain")
	}
	if merged["user_id"] != "override" {
		t.Fatalf("expected override value to win")
	}
	if merged["name"] != "Test User" {
		t.Fatalf("expected new override key to be present")
	}
	if base["user_id"] != "base" {
		t.Fatalf("expected base to remain unchanged")
	}
}
