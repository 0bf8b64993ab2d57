package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// --- helpers ---

func testRuntime(t *testing.T, vars Vars, now func() time.Time, uuidFn func() (string, error)) *RuntimeResolver {
	t.Helper()
	if now == nil {
		now = func() time.Time { return time.Unix(1700000000, 0) }
	}
	if uuidFn == nil {
		uuidFn = func() (string, error) { return "00000000-0000-0000-0000-000000000000", nil }
	}
	vr := NewVarResolver(WithNow(now), WithUUID(uuidFn))
	rt, err := vr.NewRuntime(vars)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return rt
}

// --- ResolveString ---

func TestResolveString_NoPlaceholders(t *testing.T) {
	rt := testRuntime(t, Vars{}, nil, nil)
	got, err := rt.ResolveString("hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
}

func TestResolveString_SimpleVar(t *testing.T) {
	rt := testRuntime(t, Vars{"email": "test1700000000@example.com"}, nil, nil)
	got, err := rt.ResolveString("{{email}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "test1700000000@example.com" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestResolveString_MissingVar(t *testing.T) {
	rt := testRuntime(t, Vars{"email": "x"}, nil, nil)

	_, err := rt.ResolveString("{{user_id}}")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsKind(err, KindMissingVar) {
		t.Fatalf("expected KindMissingVar, got: %v", err)
	}
	if !errors.Is(err, ErrMissingVar) {
		t.Fatalf("expected ErrMissingVar in chain, got: %v", err)
	}
	if !strings.Contains(err.Error(), "missing variable: user_id") {
		t.Fatalf("expected message to name the variable, got: %v", err)
	}
}

func TestResolveString_Builtins(t *testing.T) {
	rt := testRuntime(t, Vars{}, nil, func() (string, error) {
		return "11111111-1111-1111-1111-111111111111", nil
	})

	got, err := rt.ResolveString("ts={{$timestamp}} uuid={{ $uuid }}")
	if err != nil {
		t.Fatalf("ResolveString: %v", err)
	}
	want := "ts=1700000000 uuid=11111111-1111-1111-1111-111111111111"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestResolveString_UnclosedPlaceholder(t *testing.T) {
	rt := testRuntime(t, Vars{"x": "y"}, nil, nil)

	_, err := rt.ResolveString("{{x")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsKind(err, KindInvalidConfig) {
		t.Fatalf("expected KindInvalidConfig, got: %v", err)
	}
}

func TestResolveString_EmptyPlaceholder(t *testing.T) {
	rt := testRuntime(t, Vars{}, nil, nil)
	_, err := rt.ResolveString("{{  }}")
	if !IsKind(err, KindInvalidConfig) {
		t.Fatalf("expected KindInvalidConfig, got %v", err)
	}
}

// --- ResolvePayload ---

func TestResolvePayload_DefaultProfile(t *testing.T) {
	rt := testRuntime(t, Vars{"user_id": "u-1", "email": "a@example.com"}, nil, nil)

	in := DefaultProfilePayload()
	got, err := rt.ResolvePayload(in)
	if err != nil {
		t.Fatalf("ResolvePayload: %v", err)
	}
	if got["id"] != "u-1" || got["email"] != "a@example.com" {
		t.Fatalf("expected id/email resolved, got %v / %v", got["id"], got["email"])
	}
	if got["height"] != 175.5 || got["has_completed_onboarding"] != true {
		t.Fatalf("expected non-string values untouched")
	}
	if in["id"] != "{{user_id}}" {
		t.Fatalf("expected input payload not mutated")
	}
}

func TestResolvePayload_NestedAndError(t *testing.T) {
	rt := testRuntime(t, Vars{"name": "alice"}, nil, nil)

	got, err := rt.ResolvePayload(ProfilePayload{
		"meta": map[string]any{"tags": []any{"{{name}}", 1.0}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags := got["meta"].(map[string]any)["tags"].([]any)
	if tags[0] != "alice" || tags[1] != 1.0 {
		t.Fatalf("unexpected nested resolution %v", tags)
	}

	_, err = rt.ResolvePayload(ProfilePayload{"id": "{{user_id}}"})
	if !IsKind(err, KindMissingVar) {
		t.Fatalf("expected KindMissingVar, got %v", err)
	}
	if !strings.Contains(err.Error(), "profile.id") {
		t.Fatalf("expected field context in error, got %v", err)
	}
}

func TestWithUUID_Error(t *testing.T) {
	vr := NewVarResolver(WithUUID(func() (string, error) { return "", errors.New("entropy") }))
	_, err := vr.NewRuntime(Vars{})
	if !IsKind(err, KindExecution) {
		t.Fatalf("expected KindExecution, got %v", err)
	}
}

func TestDefaultUUIDIsV4(t *testing.T) {
	u, err := newUUID()
	if err != nil {
		t.Fatalf("newUUID: %v", err)
	}
	if len(u) != 36 || u[14] != '4' {
		t.Fatalf("expected v4 uuid, got %q", u)
	}
}
