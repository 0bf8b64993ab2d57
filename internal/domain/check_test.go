package domain

import (
	"testing"
	"time"
)

func TestCheckReportFailures(t *testing.T) {
	r := CheckReport{
		Steps: []StepResult{
			{Step: StepSignup, Status: StatusPass},
			{Step: StepSignin, Status: StatusFail},
			{Step: StepProfileLookup, Status: StatusWarn},
			{Step: StepProfileUpsert, Status: StatusSkipped, Error: &RunError{Kind: RunErrorTimeout}},
		},
	}
	if n := r.Failures(); n != 2 {
		t.Fatalf("expected 2 failures, got %d", n)
	}
}

func TestCheckReportStepLookup(t *testing.T) {
	r := CheckReport{Steps: []StepResult{{Step: StepSignin, Summary: "ok"}}}

	got, ok := r.Step(StepSignin)
	if !ok || got.Summary != "ok" {
		t.Fatalf("expected signin step, got %+v ok=%v", got, ok)
	}
	if _, ok := r.Step(StepProfileVerify); ok {
		t.Fatalf("expected verify step to be absent")
	}
}

func TestCheckReportDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := CheckReport{StartedAt: start}
	if r.Duration() != 0 {
		t.Fatalf("expected zero duration for unfinished run")
	}
	r.EndedAt = start.Add(1500 * time.Millisecond)
	if r.Duration() != 1500*time.Millisecond {
		t.Fatalf("unexpected duration %s", r.Duration())
	}
}

func TestStepTitles(t *testing.T) {
	for _, s := range CheckSteps {
		if s.Title() == string(s) {
			t.Fatalf("expected a human title for %s", s)
		}
	}
	if StepName("custom").Title() != "custom" {
		t.Fatalf("expected unknown steps to fall back to their name")
	}
}

func TestAPIResponseIsSuccess(t *testing.T) {
	r := APIResponse{StatusCode: 201}
	if !r.IsSuccess(200, 201) {
		t.Fatalf("expected 201 to be accepted")
	}
	if r.IsSuccess(200) {
		t.Fatalf("expected 201 to be rejected when only 200 is accepted")
	}
}
