package usecase

import (
	"context"
	"testing"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/supabase/supabasetest"
)

func findingStatuses(s domain.AuthSettings) map[string]domain.StepStatus {
	out := make(map[string]domain.StepStatus, len(s.Findings))
	for _, f := range s.Findings {
		out[f.Name] = f.Status
	}
	return out
}

func TestReadAuthSettings_ReadyProject(t *testing.T) {
	srv := supabasetest.New()
	defer srv.Close()

	auth, _ := gateways(t, srv)
	s, err := NewReadAuthSettings(auth, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if s.StatusCode != 200 || !s.EmailEnabled || s.SignupDisabled || !s.MailerAutoconfirm {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if len(s.Providers) != 1 || s.Providers[0] != "email" {
		t.Fatalf("expected only email provider, got %v", s.Providers)
	}
	if s.Failures() != 0 {
		t.Fatalf("expected no failures, got %+v", s.Findings)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].Method != "GET" || reqs[0].Path != "/auth/v1/settings" {
		t.Fatalf("expected one settings request, got %+v", reqs)
	}
}

func TestReadAuthSettings_BlockingSettings(t *testing.T) {
	srv := supabasetest.New(func(s *supabasetest.Server) {
		s.RequireConfirmation = true
		s.DisableSignup = true
		s.DisableEmail = true
	})
	defer srv.Close()

	auth, _ := gateways(t, srv)
	s, err := NewReadAuthSettings(auth, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := findingStatuses(s)
	for _, name := range []string{"email provider", "signup", "email confirmation"} {
		if got[name] != domain.StatusFail {
			t.Errorf("expected %s to fail, got %s", name, got[name])
		}
	}
	if s.Failures() != 3 {
		t.Fatalf("expected 3 failures, got %d", s.Failures())
	}
	if s.Findings[2].Diagnosis.Code != domain.DiagEmailConfirmationRequired {
		t.Fatalf("unexpected confirmation diagnosis: %+v", s.Findings[2])
	}
}

func TestReadAuthSettings_Non200AndTransportError(t *testing.T) {
	auth := okAuth()
	auth.settings = domain.APIResponse{StatusCode: 401, Body: []byte(`{"message":"Invalid API key"}`)}

	s, err := NewReadAuthSettings(auth, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(s.Findings) != 1 || s.Findings[0].Message != "status 401: Invalid API key" {
		t.Fatalf("unexpected findings: %+v", s.Findings)
	}

	s, err = NewReadAuthSettings(stubAuth{err: context.DeadlineExceeded}, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if s.Error == nil || s.Error.Kind != domain.RunErrorTimeout || s.Failures() != 1 {
		t.Fatalf("expected timeout run error, got %+v", s)
	}
}

func TestReadAuthSettings_NestedProviderShape(t *testing.T) {
	auth := okAuth()
	auth.settings = domain.APIResponse{
		StatusCode: 200,
		Body:       []byte(`{"external":{"email":{"enabled":true},"github":{"enabled":false},"apple":true},"mailer_autoconfirm":true}`),
	}

	s, err := NewReadAuthSettings(auth, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !s.EmailEnabled || len(s.Providers) != 2 || s.Providers[0] != "apple" || s.Providers[1] != "email" {
		t.Fatalf("unexpected providers: %+v", s)
	}
	if s.Failures() != 0 {
		t.Fatalf("expected no failures, got %+v", s.Findings)
	}
}
