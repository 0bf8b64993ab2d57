package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestOpErrorWrapUnwrap(t *testing.T) {
	root := errors.New("root")
	err := &OpError{
		Op:   "config.load",
		Kind: KindInvalidConfig,
		Path: "supacheck.yaml",
		Err:  root,
	}

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}

	var got *OpError
	if !errors.As(err, &got) {
		t.Fatalf("expected errors.As to match OpError")
	}
	if got.Kind != KindInvalidConfig {
		t.Fatalf("expected kind %s", KindInvalidConfig)
	}

	msg := err.Error()
	if !strings.Contains(msg, "config.load: invalid_config") || !strings.Contains(msg, "path=supacheck.yaml") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", &OpError{Op: "x", Kind: KindMissingVar})

	if !IsKind(err, KindMissingVar) {
		t.Fatalf("expected IsKind to see through fmt wrapping")
	}
	if IsKind(err, KindNotFound) {
		t.Fatalf("expected kind mismatch")
	}
	if IsKind(errors.New("plain"), KindExecution) {
		t.Fatalf("plain errors have no kind")
	}
}

func TestNilOpErrorString(t *testing.T) {
	var e *OpError
	if e.Error() != "<nil>" {
		t.Fatalf("expected <nil>, got %q", e.Error())
	}
	if e.Unwrap() != nil {
		t.Fatalf("expected nil unwrap")
	}
}
