package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/supabase"
	"github.com/streakerapp/supacheck/internal/infra/supabase/supabasetest"
	"github.com/streakerapp/supacheck/internal/ports"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func gateways(t *testing.T, srv *supabasetest.Server) (*supabase.Auth, *supabase.Rest) {
	t.Helper()
	c, err := supabase.NewClient(srv.URL(), supabasetest.AnonKey)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return supabase.NewAuth(c), supabase.NewRest(c)
}

func checkInput(url string) CheckInput {
	cfg := domain.DefaultConfig()
	return CheckInput{
		ProjectURL: url,
		Check:      cfg.Check,
		Profile:    domain.DefaultProfilePayload(),
	}
}

func newTestRunCheck(auth ports.AuthGateway, tables ports.TableGateway, opts ...RunCheckOption) *RunCheck {
	base := []RunCheckOption{
		WithClock(func() time.Time { return fixedNow }),
		WithReportID(func() string { return "report-1" }),
	}
	return NewRunCheck(auth, tables, append(base, opts...)...)
}

func statuses(r domain.CheckReport) []domain.StepStatus {
	out := make([]domain.StepStatus, 0, len(r.Steps))
	for _, s := range r.Steps {
		out = append(out, s.Status)
	}
	return out
}

func wantStatuses(t *testing.T, r domain.CheckReport, want ...domain.StepStatus) {
	t.Helper()
	got := statuses(r)
	if len(got) != len(want) {
		t.Fatalf("expected %d steps, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d (%s): expected %s, got %s (all=%v)", i, r.Steps[i].Step, want[i], got[i], got)
		}
	}
}

func TestTestEmail(t *testing.T) {
	got := TestEmail(domain.DefaultConfig().Check, fixedNow)
	want := "test1773480600@example.com"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRunCheck_HappyPathWithTrigger(t *testing.T) {
	srv := supabasetest.New(func(s *supabasetest.Server) { s.ProfileTrigger = true })
	defer srv.Close()

	auth, rest := gateways(t, srv)
	var events []StepEvent
	uc := newTestRunCheck(auth, rest, WithProgress(func(ev StepEvent) { events = append(events, ev) }))

	report, err := uc.Execute(context.Background(), checkInput(srv.URL()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusPass, domain.StatusPass, domain.StatusPass, domain.StatusPass, domain.StatusPass)

	if report.ID != "report-1" || report.TestEmail != "test1773480600@example.com" {
		t.Fatalf("unexpected report identity: %+v", report)
	}
	if report.UserID == "" {
		t.Fatalf("expected user id to be extracted")
	}
	if report.EmailConfirmationDisabled == nil || !*report.EmailConfirmationDisabled {
		t.Fatalf("expected email confirmation verdict true")
	}
	if report.ProfileColumnsAccepted == nil || !*report.ProfileColumnsAccepted {
		t.Fatalf("expected profile columns verdict true")
	}
	if report.Failures() != 0 {
		t.Fatalf("expected no failures, got %d", report.Failures())
	}

	lookup, _ := report.Step(domain.StepProfileLookup)
	if lookup.Summary != "profile exists (created by trigger)" {
		t.Fatalf("unexpected lookup summary: %q", lookup.Summary)
	}

	signin, _ := report.Step(domain.StepSignin)
	if len(signin.Details) != 1 || !strings.HasSuffix(signin.Details[0].Value, "...") {
		t.Fatalf("expected truncated token detail, got %+v", signin.Details)
	}
	if n := len(strings.TrimSuffix(signin.Details[0].Value, "...")); n != tokenPreviewLen {
		t.Fatalf("expected %d token chars, got %d", tokenPreviewLen, n)
	}

	// start + done per step
	if len(events) != 10 {
		t.Fatalf("expected 10 progress events, got %d", len(events))
	}
	if events[0].Done || !events[1].Done || events[1].Step != domain.StepSignup {
		t.Fatalf("unexpected event order: %+v", events[:2])
	}

	rows := srv.Rows("profiles")
	if len(rows) != 1 || rows[0]["name"] != "Test User" || rows[0]["email"] != report.TestEmail {
		t.Fatalf("unexpected stored profile: %+v", rows)
	}
}

func TestRunCheck_NoTriggerWarnsButUpsertCreatesProfile(t *testing.T) {
	srv := supabasetest.New()
	defer srv.Close()

	auth, rest := gateways(t, srv)
	report, err := newTestRunCheck(auth, rest).Execute(context.Background(), checkInput(srv.URL()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusPass, domain.StatusPass, domain.StatusWarn, domain.StatusPass, domain.StatusPass)

	lookup, _ := report.Step(domain.StepProfileLookup)
	if lookup.Diagnosis.Code != domain.DiagProfileMissing || lookup.Summary != "no profile found" {
		t.Fatalf("unexpected lookup result: %+v", lookup)
	}

	verify, _ := report.Step(domain.StepProfileVerify)
	got := map[string]string{}
	for _, d := range verify.Details {
		got[d.Key] = d.Value
	}
	if got["name"] != "Test User" || got["age"] != "25" || got["height"] != "175.5" || got["fitness_goal"] != "Lose Weight" {
		t.Fatalf("unexpected verify details: %+v", verify.Details)
	}
	if report.Failures() != 0 {
		t.Fatalf("warnings must not count as failures")
	}
}

func TestRunCheck_EmailConfirmationStopsRun(t *testing.T) {
	srv := supabasetest.New(func(s *supabasetest.Server) { s.RequireConfirmation = true })
	defer srv.Close()

	auth, rest := gateways(t, srv)
	report, err := newTestRunCheck(auth, rest).Execute(context.Background(), checkInput(srv.URL()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusPass, domain.StatusFail, domain.StatusSkipped, domain.StatusSkipped, domain.StatusSkipped)

	if report.UserID == "" {
		t.Fatalf("expected user id from root-level signup body")
	}
	signin, _ := report.Step(domain.StepSignin)
	if signin.Diagnosis.Code != domain.DiagEmailConfirmationRequired {
		t.Fatalf("expected email confirmation diagnosis, got %+v", signin.Diagnosis)
	}
	if report.EmailConfirmationDisabled == nil || *report.EmailConfirmationDisabled {
		t.Fatalf("expected email confirmation verdict false")
	}
	if report.ProfileColumnsAccepted != nil {
		t.Fatalf("expected profile verdict to stay unknown")
	}

	for _, r := range srv.Requests() {
		if strings.HasPrefix(r.Path, "/rest/v1") {
			t.Fatalf("no table request expected after sign in failure, got %s %s", r.Method, r.Path)
		}
	}
}

func TestRunCheck_NotNullViolationContinuesToVerify(t *testing.T) {
	srv := supabasetest.New(func(s *supabasetest.Server) {
		s.ProfileTrigger = true
		s.RequiredColumns = []string{"avatar_url"}
	})
	defer srv.Close()

	auth, rest := gateways(t, srv)
	report, err := newTestRunCheck(auth, rest).Execute(context.Background(), checkInput(srv.URL()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusPass, domain.StatusPass, domain.StatusPass, domain.StatusFail, domain.StatusPass)

	upsert, _ := report.Step(domain.StepProfileUpsert)
	if upsert.Diagnosis.Code != domain.DiagNotNullViolation {
		t.Fatalf("expected not-null diagnosis, got %+v", upsert.Diagnosis)
	}
	var col string
	for _, d := range upsert.Details {
		if d.Key == "column" {
			col = d.Value
		}
	}
	if col != "avatar_url" {
		t.Fatalf("expected offending column avatar_url, got %q", col)
	}
	if report.ProfileColumnsAccepted == nil || *report.ProfileColumnsAccepted {
		t.Fatalf("expected profile verdict false")
	}
	if report.Failures() != 1 {
		t.Fatalf("expected 1 failure, got %d", report.Failures())
	}
}

func TestRunCheck_SignupFailureSkipsRest(t *testing.T) {
	srv := supabasetest.New()
	defer srv.Close()

	c, err := supabase.NewClient(srv.URL(), "wrong-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	report, err := newTestRunCheck(supabase.NewAuth(c), supabase.NewRest(c)).
		Execute(context.Background(), checkInput(srv.URL()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusFail, domain.StatusSkipped, domain.StatusSkipped, domain.StatusSkipped, domain.StatusSkipped)

	signup := report.Steps[0]
	if signup.StatusCode != 401 || !strings.Contains(signup.Summary, "Invalid API key") {
		t.Fatalf("unexpected signup result: %+v", signup)
	}
}

func TestRunCheck_LookupNon200WarnsAndContinues(t *testing.T) {
	srv := supabasetest.New(func(s *supabasetest.Server) { s.FailSelect = "profiles" })
	defer srv.Close()

	auth, rest := gateways(t, srv)
	report, err := newTestRunCheck(auth, rest).Execute(context.Background(), checkInput(srv.URL()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Reads are denied, writes are not: lookup warns, upsert still runs, verify cannot read back.
	wantStatuses(t, report,
		domain.StatusPass, domain.StatusPass, domain.StatusWarn, domain.StatusPass, domain.StatusFail)

	lookup, _ := report.Step(domain.StepProfileLookup)
	if lookup.StatusCode != 403 || !strings.Contains(lookup.Summary, "permission denied for table profiles") {
		t.Fatalf("unexpected lookup result: %+v", lookup)
	}
	if rows := srv.Rows("profiles"); len(rows) != 1 || rows[0]["id"] != report.UserID {
		t.Fatalf("expected upsert to store the profile, got %+v", rows)
	}
}

func TestRunCheck_SigninWithoutTokenFails(t *testing.T) {
	auth := okAuth()
	auth.signin = domain.APIResponse{StatusCode: 200, Body: []byte(`{"user":{"id":"u-1"}}`)}
	tables := &stubTables{}

	report, err := newTestRunCheck(auth, tables).Execute(context.Background(), checkInput("https://x.supabase.co"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusPass, domain.StatusFail, domain.StatusSkipped, domain.StatusSkipped, domain.StatusSkipped)

	signin, _ := report.Step(domain.StepSignin)
	if !strings.HasPrefix(signin.Summary, "sign in returned no access_token") {
		t.Fatalf("unexpected summary %q", signin.Summary)
	}
	if report.EmailConfirmationDisabled != nil {
		t.Fatalf("expected no email confirmation verdict, got %v", *report.EmailConfirmationDisabled)
	}
	if tables.calls != 0 {
		t.Fatalf("expected no table calls without a user token, got %d", tables.calls)
	}
}

func TestRunCheck_ConfiguredAssertionFailsStep(t *testing.T) {
	srv := supabasetest.New(func(s *supabasetest.Server) { s.ProfileTrigger = true })
	defer srv.Close()

	in := checkInput(srv.URL())
	goal := "Build Muscle"
	pattern := `^test\d+@example\.com$`
	in.Check.Assertions = map[domain.StepName]map[string]domain.JSONPathAssertion{
		domain.StepSignup:        {"$.user.email": {Matches: &pattern}},
		domain.StepProfileVerify: {"$[0].fitness_goal": {Eq: &goal}},
	}

	auth, rest := gateways(t, srv)
	report, err := newTestRunCheck(auth, rest).Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusPass, domain.StatusPass, domain.StatusPass, domain.StatusPass, domain.StatusFail)

	signup, _ := report.Step(domain.StepSignup)
	var matched bool
	for _, a := range signup.Assertions {
		if a.Name == "jsonpath.matches" {
			matched = a.Passed
		}
	}
	if !matched {
		t.Fatalf("expected signup email assertion to pass, got %+v", signup.Assertions)
	}

	verify, _ := report.Step(domain.StepProfileVerify)
	if !strings.Contains(verify.Summary, "1 assertion(s) failed") {
		t.Fatalf("unexpected verify summary %q", verify.Summary)
	}
	var detail string
	for _, d := range verify.Details {
		if d.Key == "assertion" {
			detail = d.Value
		}
	}
	if detail != `jsonpath "$[0].fitness_goal": expected eq "Build Muscle", got "Lose Weight"` {
		t.Fatalf("unexpected assertion detail %q", detail)
	}
}

// --- fakes ---

type stubAuth struct {
	signup, signin, settings domain.APIResponse
	err                      error
}

func (s stubAuth) SignUp(context.Context, ports.Credentials) (domain.APIResponse, error) {
	return s.signup, s.err
}

func (s stubAuth) SignInWithPassword(context.Context, ports.Credentials) (domain.APIResponse, error) {
	return s.signin, nil
}

func (s stubAuth) SendOTP(context.Context, ports.OTPRequest) (domain.APIResponse, error) {
	return domain.APIResponse{}, nil
}

func (s stubAuth) Settings(context.Context) (domain.APIResponse, error) {
	return s.settings, s.err
}

type stubTables struct {
	selects []domain.APIResponse
	upsert  domain.APIResponse
	calls   int
	lastRow domain.ProfilePayload
}

func (s *stubTables) SelectEq(context.Context, string, string, string, string) (domain.APIResponse, error) {
	r := s.selects[s.calls]
	s.calls++
	return r, nil
}

func (s *stubTables) Upsert(_ context.Context, _, _, _ string, row domain.ProfilePayload) (domain.APIResponse, error) {
	s.lastRow = row
	return s.upsert, nil
}

func (s *stubTables) DeleteAll(context.Context, string) (domain.APIResponse, error) {
	return domain.APIResponse{}, nil
}

func (s *stubTables) Count(context.Context, string) (int64, domain.APIResponse, error) {
	return 0, domain.APIResponse{}, nil
}

func okAuth() stubAuth {
	return stubAuth{
		signup: domain.APIResponse{StatusCode: 200, Body: []byte(`{"user":{"id":"u-1"}}`)},
		signin: domain.APIResponse{StatusCode: 200, Body: []byte(`{"access_token":"short"}`)},
	}
}

func TestRunCheck_TransportErrorStopsRun(t *testing.T) {
	auth := stubAuth{err: context.DeadlineExceeded}
	report, err := newTestRunCheck(auth, &stubTables{}).Execute(context.Background(), checkInput("https://x.supabase.co"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantStatuses(t, report,
		domain.StatusFail, domain.StatusSkipped, domain.StatusSkipped, domain.StatusSkipped, domain.StatusSkipped)
	if report.Steps[0].Error == nil || report.Steps[0].Error.Kind != domain.RunErrorTimeout {
		t.Fatalf("expected timeout run error, got %+v", report.Steps[0].Error)
	}
}

func TestRunCheck_VerifyMismatchWarns(t *testing.T) {
	tables := &stubTables{
		selects: []domain.APIResponse{
			{StatusCode: 200, Body: []byte(`[{"id":"u-1"}]`)},
			{StatusCode: 200, Body: []byte(`[{"id":"u-1","email":"x","name":"Test User","age":"25.0","height":175.5,"weight":70,` +
				`"activity_level":"Moderately Active","fitness_goal":"Maintain","experience_level":"Intermediate",` +
				`"workout_consistency":"1-2 years","daily_calories_target":2200,"daily_steps_target":10000,"has_completed_onboarding":true}]`)},
		},
		upsert: domain.APIResponse{StatusCode: 201},
	}

	in := checkInput("https://x.supabase.co")
	in.Profile["email"] = "x"

	report, err := newTestRunCheck(okAuth(), tables).Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	verify, _ := report.Step(domain.StepProfileVerify)
	if verify.Status != domain.StatusWarn || verify.Diagnosis.Code != domain.DiagProfileMismatch {
		t.Fatalf("expected mismatch warning, got %+v", verify)
	}
	var mismatches []string
	for _, d := range verify.Details {
		if strings.HasPrefix(d.Key, "mismatch ") {
			mismatches = append(mismatches, strings.TrimPrefix(d.Key, "mismatch "))
		}
	}
	if len(mismatches) != 1 || mismatches[0] != "fitness_goal" {
		t.Fatalf("expected only fitness_goal to mismatch, got %v", mismatches)
	}

	if tables.lastRow["id"] != "u-1" {
		t.Fatalf("expected user id substituted into payload, got %v", tables.lastRow["id"])
	}
}

func TestRunCheck_VerifyNon200Fails(t *testing.T) {
	tables := &stubTables{
		selects: []domain.APIResponse{
			{StatusCode: 200, Body: []byte(`[]`)},
			{StatusCode: 500, Body: []byte(`{"message":"boom"}`)},
		},
		upsert: domain.APIResponse{StatusCode: 201},
	}
	report, err := newTestRunCheck(okAuth(), tables).Execute(context.Background(), checkInput("https://x.supabase.co"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	wantStatuses(t, report,
		domain.StatusPass, domain.StatusPass, domain.StatusWarn, domain.StatusPass, domain.StatusFail)

	signin, _ := report.Step(domain.StepSignin)
	if signin.Details[0].Value != "short..." {
		t.Fatalf("expected short token with ellipsis, got %q", signin.Details[0].Value)
	}
}

func TestRunCheck_LatencyBudgetDemotesToWarn(t *testing.T) {
	auth := okAuth()
	auth.signup.LatencyMS = 900
	tables := &stubTables{
		selects: []domain.APIResponse{
			{StatusCode: 200, Body: []byte(`[{"id":"u-1"}]`)},
			{StatusCode: 200, Body: []byte(`[{"id":"u-1"}]`)},
		},
		upsert: domain.APIResponse{StatusCode: 500, Body: []byte(`{"message":"other"}`)},
	}

	in := checkInput("https://x.supabase.co")
	maxMS := 500
	in.MaxLatencyMS = &maxMS

	report, err := newTestRunCheck(auth, tables).Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	wantStatuses(t, report,
		domain.StatusWarn, domain.StatusPass, domain.StatusPass, domain.StatusFail, domain.StatusPass)

	upsert, _ := report.Step(domain.StepProfileUpsert)
	if upsert.Diagnosis.Code != domain.DiagNone {
		t.Fatalf("expected no diagnosis for a generic failure, got %+v", upsert.Diagnosis)
	}
}

func TestRunCheck_InvalidInput(t *testing.T) {
	in := checkInput("https://x.supabase.co")
	in.Check.ProfileTable = ""

	_, err := newTestRunCheck(okAuth(), &stubTables{}).Execute(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidConfig) || !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestRunCheck_MissingTemplateVarFailsBeforeSignup(t *testing.T) {
	in := checkInput("https://x.supabase.co")
	in.Profile["referrer"] = "{{campaign}}"

	auth := &countingAuth{stubAuth: okAuth()}
	_, err := newTestRunCheck(auth, &stubTables{}).Execute(context.Background(), in)
	if !errors.Is(err, domain.ErrMissingVar) {
		t.Fatalf("expected missing var error, got %v", err)
	}
	if auth.signups != 0 {
		t.Fatalf("expected no signup call, got %d", auth.signups)
	}
}

type countingAuth struct {
	stubAuth
	signups int
}

func (c *countingAuth) SignUp(ctx context.Context, cr ports.Credentials) (domain.APIResponse, error) {
	c.signups++
	return c.stubAuth.SignUp(ctx, cr)
}
