package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
	ucassert "github.com/streakerapp/supacheck/internal/usecase/assert"
	ucextract "github.com/streakerapp/supacheck/internal/usecase/extract"
)

const tokenPreviewLen = 50

var notNullColumnRe = regexp.MustCompile(`null value in column "([^"]+)"`)

// verifyColumns are echoed back after the profile is re-read.
var verifyColumns = []string{"name", "age", "height", "weight", "fitness_goal"}

// StepEvent is emitted when a step starts (Done=false) and when it finishes.
type StepEvent struct {
	Step   domain.StepName
	Email  string
	Done   bool
	Result domain.StepResult
}

// CheckInput carries everything a single run needs besides the gateways.
type CheckInput struct {
	ProjectURL string
	Check      domain.CheckConfig
	Profile    domain.ProfilePayload

	// MaxLatencyMS adds a latency assertion to every step when set.
	MaxLatencyMS *int
}

type RunCheck struct {
	auth     ports.AuthGateway
	tables   ports.TableGateway
	resolver *domain.VarResolver
	now      func() time.Time
	newID    func() string
	progress func(StepEvent)
	log      *slog.Logger
}

type RunCheckOption func(*RunCheck)

func WithClock(now func() time.Time) RunCheckOption {
	return func(uc *RunCheck) { uc.now = now }
}

func WithReportID(gen func() string) RunCheckOption {
	return func(uc *RunCheck) { uc.newID = gen }
}

func WithResolver(r *domain.VarResolver) RunCheckOption {
	return func(uc *RunCheck) { uc.resolver = r }
}

// WithProgress registers a callback invoked synchronously for every step event.
func WithProgress(fn func(StepEvent)) RunCheckOption {
	return func(uc *RunCheck) { uc.progress = fn }
}

func WithLogger(l *slog.Logger) RunCheckOption {
	return func(uc *RunCheck) { uc.log = l }
}

func NewRunCheck(auth ports.AuthGateway, tables ports.TableGateway, opts ...RunCheckOption) *RunCheck {
	uc := &RunCheck{
		auth:     auth,
		tables:   tables,
		resolver: domain.NewVarResolver(),
		now:      time.Now,
		newID:    uuid.NewString,
		log:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// TestEmail builds the throwaway address for a run: {prefix}{unix}@{domain}.
func TestEmail(cfg domain.CheckConfig, at time.Time) string {
	return fmt.Sprintf("%s%d@%s", cfg.EmailPrefix, at.Unix(), cfg.EmailDomain)
}

// checkRun is the mutable state threaded through the steps of one Execute call.
type checkRun struct {
	in      CheckInput
	report  domain.CheckReport
	creds   ports.Credentials
	token   string
	payload domain.ProfilePayload
}

// Execute runs the five steps in order. A returned error means the run could
// not start; backend failures are reported as step results.
func (uc *RunCheck) Execute(ctx context.Context, in CheckInput) (domain.CheckReport, error) {
	if err := validateCheckInput(in); err != nil {
		return domain.CheckReport{}, err
	}

	started := uc.now()
	email := TestEmail(in.Check, started)

	// Catch template errors before anything is created on the backend.
	if _, err := uc.resolvePayload(in.Profile, email, ""); err != nil {
		return domain.CheckReport{}, err
	}

	run := &checkRun{
		in:    in,
		creds: ports.Credentials{Email: email, Password: in.Check.Password},
		report: domain.CheckReport{
			ID:         uc.newID(),
			ProjectURL: in.ProjectURL,
			TestEmail:  email,
			StartedAt:  started,
			Steps:      make([]domain.StepResult, 0, len(domain.CheckSteps)),
		},
	}

	uc.log.Info("check.start", "id", run.report.ID, "project", in.ProjectURL, "email", email)

	steps := []struct {
		name domain.StepName
		fn   func(context.Context, *checkRun) (domain.StepResult, bool)
	}{
		{domain.StepSignup, uc.signup},
		{domain.StepSignin, uc.signin},
		{domain.StepProfileLookup, uc.lookup},
		{domain.StepProfileUpsert, uc.upsert},
		{domain.StepProfileVerify, uc.verify},
	}

	stopped := false
	for _, s := range steps {
		if stopped {
			uc.record(run, domain.StepResult{
				Step:    s.name,
				Status:  domain.StatusSkipped,
				Summary: "skipped after an earlier failure",
			})
			continue
		}

		uc.emit(StepEvent{Step: s.name, Email: email})
		res, cont := s.fn(ctx, run)
		uc.record(run, res)

		if !cont || ctx.Err() != nil {
			stopped = true
		}
	}

	run.report.EndedAt = uc.now()
	uc.log.Info("check.done",
		"id", run.report.ID,
		"failures", run.report.Failures(),
		"duration_ms", run.report.Duration().Milliseconds(),
	)
	return run.report, nil
}

func validateCheckInput(in CheckInput) error {
	var missing []string
	if strings.TrimSpace(in.Check.EmailDomain) == "" {
		missing = append(missing, "email domain")
	}
	if in.Check.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(in.Check.ProfileTable) == "" {
		missing = append(missing, "profile table")
	}
	if len(in.Profile) == 0 {
		missing = append(missing, "profile payload")
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.OpError{
		Op:   "check.validate",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("%w: missing %s", domain.ErrInvalidConfig, strings.Join(missing, ", ")),
	}
}

func (uc *RunCheck) record(run *checkRun, res domain.StepResult) {
	run.report.Steps = append(run.report.Steps, res)
	uc.log.Info("check.step.done",
		"step", string(res.Step),
		"status", string(res.Status),
		"http_status", res.StatusCode,
		"latency_ms", res.LatencyMS,
		"diagnosis", string(res.Diagnosis.Code),
	)
	uc.emit(StepEvent{Step: res.Step, Email: run.report.TestEmail, Done: true, Result: res})
}

func (uc *RunCheck) emit(ev StepEvent) {
	if uc.progress != nil {
		uc.progress(ev)
	}
}

func (uc *RunCheck) resolvePayload(p domain.ProfilePayload, email, userID string) (domain.ProfilePayload, error) {
	rt, err := uc.resolver.NewRuntime(domain.Vars{
		"email":   email,
		"user_id": userID,
	})
	if err != nil {
		return nil, err
	}
	return rt.ResolvePayload(p)
}

// newStep seeds a result with the request line and the response measurements.
func newStep(name domain.StepName, method domain.HTTPMethod, url string, resp domain.APIResponse) domain.StepResult {
	return domain.StepResult{
		Step:       name,
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		LatencyMS:  resp.LatencyMS,
		Body:       resp.Body,
	}
}

// transportFailure marks a step failed because no HTTP response was received.
func transportFailure(res domain.StepResult, err error) domain.StepResult {
	res.Status = domain.StatusFail
	res.Error = domain.NewRunError(err)
	res.Summary = "request failed: " + err.Error()
	if errors.Is(err, context.Canceled) {
		res.Summary = "canceled"
	}
	return res
}

// assertions evaluates the status/latency expectations plus the built-in and
// configured JSONPath checks for the step. A failed JSONPath check fails the
// step; a missed latency budget only demotes a pass to warn.
func assertions(run *checkRun, res *domain.StepResult, accepted []int, resp domain.APIResponse, builtin map[string]domain.JSONPathAssertion) {
	paths := builtin
	if extra := run.in.Check.Assertions[res.Step]; len(extra) > 0 {
		paths = make(map[string]domain.JSONPathAssertion, len(builtin)+len(extra))
		maps.Copy(paths, builtin)
		maps.Copy(paths, extra)
	}

	res.Assertions = ucassert.Evaluate(domain.AssertionsSpec{
		Status:       accepted,
		MaxLatencyMS: run.in.MaxLatencyMS,
		JSONPath:     paths,
	}, resp)

	if res.Status == domain.StatusFail {
		return
	}

	failed := 0
	for _, a := range res.Assertions {
		if !a.Passed && strings.HasPrefix(a.Name, "jsonpath.") {
			failed++
			res.AddDetail("assertion", a.Message)
		}
	}
	if failed > 0 {
		res.Status = domain.StatusFail
		res.Summary = fmt.Sprintf("%s (%d assertion(s) failed)", res.Summary, failed)
		return
	}

	if res.Status != domain.StatusPass {
		return
	}
	for _, a := range res.Assertions {
		if !a.Passed && a.Name == "max_ms" {
			res.Status = domain.StatusWarn
			res.AddDetail("latency", a.Message)
		}
	}
}

func (uc *RunCheck) url(run *checkRun, path string) string {
	return strings.TrimRight(run.in.ProjectURL, "/") + path
}

func (uc *RunCheck) signup(ctx context.Context, run *checkRun) (domain.StepResult, bool) {
	resp, err := uc.auth.SignUp(ctx, run.creds)
	res := newStep(domain.StepSignup, domain.MethodPost, uc.url(run, "/auth/v1/signup"), resp)
	if err != nil {
		return transportFailure(res, err), false
	}

	if !resp.IsSuccess(200) {
		res.Status = domain.StatusFail
		res.Summary = "signup failed: " + ucextract.Message(resp.Body)
		assertions(run, &res, []int{200}, resp, nil)
		return res, false
	}

	uid, ex := ucextract.FirstOf(resp.Body, "user_id", "$.user.id", "$.id")
	res.Extracts = []domain.ExtractResult{ex}
	run.report.UserID = uid

	res.Status = domain.StatusPass
	res.Summary = "user created"
	res.AddDetail("email", run.creds.Email)
	if uid != "" {
		res.AddDetail("user id", uid)
	} else {
		res.AddDetail("user id", "<not returned>")
	}
	assertions(run, &res, []int{200}, resp, nil)
	return res, true
}

func (uc *RunCheck) signin(ctx context.Context, run *checkRun) (domain.StepResult, bool) {
	resp, err := uc.auth.SignInWithPassword(ctx, run.creds)
	res := newStep(domain.StepSignin, domain.MethodPost, uc.url(run, "/auth/v1/token?grant_type=password"), resp)
	if err != nil {
		return transportFailure(res, err), false
	}

	if !resp.IsSuccess(200) {
		res.Status = domain.StatusFail
		msg := ucextract.Message(resp.Body)
		if bytes.Contains(resp.Body, []byte("email_not_confirmed")) {
			run.report.EmailConfirmationDisabled = domain.BoolPtr(false)
			res.Summary = "sign in rejected: email confirmation is still enabled"
			res.Diagnosis = domain.Diagnosis{
				Code: domain.DiagEmailConfirmationRequired,
				Hint: "disable \"Confirm email\" under Authentication > Providers > Email in the project dashboard",
			}
		} else {
			res.Summary = "sign in failed: " + msg
		}
		assertions(run, &res, []int{200}, resp, nil)
		return res, false
	}

	token, ex := ucextract.FirstOf(resp.Body, "access_token", "$.access_token")
	res.Extracts = []domain.ExtractResult{ex}
	if token == "" {
		// Later steps must run as the user, never as the anon key.
		res.Status = domain.StatusFail
		res.Summary = "sign in returned no access_token"
		assertions(run, &res, []int{200}, resp, map[string]domain.JSONPathAssertion{
			"$.access_token": {Exists: true},
		})
		return res, false
	}
	run.token = token
	run.report.EmailConfirmationDisabled = domain.BoolPtr(true)

	res.Status = domain.StatusPass
	res.Summary = "email confirmation is disabled"
	res.AddDetail("access token", previewToken(token))
	assertions(run, &res, []int{200}, resp, map[string]domain.JSONPathAssertion{
		"$.access_token": {Exists: true},
	})
	return res, true
}

func previewToken(token string) string {
	if len(token) > tokenPreviewLen {
		token = token[:tokenPreviewLen]
	}
	return token + "..."
}

func (uc *RunCheck) lookupURL(run *checkRun) string {
	return uc.url(run, fmt.Sprintf("/rest/v1/%s?id=eq.%s", run.in.Check.ProfileTable, run.report.UserID))
}

func (uc *RunCheck) lookup(ctx context.Context, run *checkRun) (domain.StepResult, bool) {
	resp, err := uc.tables.SelectEq(ctx, run.token, run.in.Check.ProfileTable, "id", run.report.UserID)
	res := newStep(domain.StepProfileLookup, domain.MethodGet, uc.lookupURL(run), resp)
	if err != nil {
		return transportFailure(res, err), false
	}

	switch {
	case !resp.IsSuccess(200):
		res.Status = domain.StatusWarn
		res.Summary = "profile lookup failed: " + ucextract.Message(resp.Body)
	default:
		rows, perr := ucextract.Rows(resp.Body)
		if perr != nil {
			res.Status = domain.StatusWarn
			res.Summary = "profile lookup returned a non-array body"
			break
		}
		if len(rows) == 0 {
			res.Status = domain.StatusWarn
			res.Summary = "no profile found"
			res.Diagnosis = domain.Diagnosis{
				Code: domain.DiagProfileMissing,
				Hint: "no trigger creates a profile on signup; the app must insert it",
			}
			break
		}
		res.Status = domain.StatusPass
		res.Summary = "profile exists (created by trigger)"
	}

	assertions(run, &res, []int{200}, resp, nil)
	return res, true
}

func (uc *RunCheck) upsert(ctx context.Context, run *checkRun) (domain.StepResult, bool) {
	table := run.in.Check.ProfileTable
	url := uc.url(run, "/rest/v1/"+table)
	if run.in.Check.ConflictColumn != "" {
		url += "?on_conflict=" + run.in.Check.ConflictColumn
	}

	payload, err := uc.resolvePayload(run.in.Profile, run.creds.Email, run.report.UserID)
	if err != nil {
		res := domain.StepResult{Step: domain.StepProfileUpsert, Method: domain.MethodPost, URL: url}
		res.Status = domain.StatusFail
		res.Summary = "profile payload: " + err.Error()
		return res, true
	}
	run.payload = payload

	resp, err := uc.tables.Upsert(ctx, run.token, table, run.in.Check.ConflictColumn, payload)
	res := newStep(domain.StepProfileUpsert, domain.MethodPost, url, resp)
	if err != nil {
		return transportFailure(res, err), false
	}

	res.AddDetail("columns", strconv.Itoa(len(payload)))

	if resp.IsSuccess(200, 201) {
		run.report.ProfileColumnsAccepted = domain.BoolPtr(true)
		res.Status = domain.StatusPass
		res.Summary = "profile columns accepted"
		assertions(run, &res, []int{200, 201}, resp, nil)
		return res, true
	}

	run.report.ProfileColumnsAccepted = domain.BoolPtr(false)
	res.Status = domain.StatusFail
	msg := ucextract.Message(resp.Body)
	res.Summary = "profile upsert failed: " + msg

	if strings.Contains(string(resp.Body), "null value in column") {
		res.Diagnosis = domain.Diagnosis{
			Code: domain.DiagNotNullViolation,
			Hint: "make the onboarding columns nullable (supacheck schema apply --relax-not-null)",
		}
		if m := notNullColumnRe.FindStringSubmatch(msg); len(m) == 2 {
			res.AddDetail("column", m[1])
		}
	}

	assertions(run, &res, []int{200, 201}, resp, nil)
	return res, true
}

func (uc *RunCheck) verify(ctx context.Context, run *checkRun) (domain.StepResult, bool) {
	resp, err := uc.tables.SelectEq(ctx, run.token, run.in.Check.ProfileTable, "id", run.report.UserID)
	res := newStep(domain.StepProfileVerify, domain.MethodGet, uc.lookupURL(run), resp)
	if err != nil {
		return transportFailure(res, err), false
	}

	if !resp.IsSuccess(200) {
		res.Status = domain.StatusFail
		res.Summary = "profile verification failed: " + ucextract.Message(resp.Body)
		assertions(run, &res, []int{200}, resp, nil)
		return res, true
	}

	rows, perr := ucextract.Rows(resp.Body)
	if perr != nil || len(rows) == 0 {
		res.Status = domain.StatusWarn
		res.Summary = "profile not found after upsert"
		res.Diagnosis = domain.Diagnosis{
			Code: domain.DiagProfileMissing,
			Hint: "check row level security policies allow the user to read their own profile",
		}
		assertions(run, &res, []int{200}, resp, nil)
		return res, true
	}

	row := rows[0]
	res.Status = domain.StatusPass
	res.Summary = "profile saved"
	for _, col := range verifyColumns {
		if v, ok := row[col]; ok {
			res.AddDetail(col, domain.FormatValue(v))
		}
	}

	// A failed upsert leaves whatever the trigger wrote, so only compare a row we wrote.
	if accepted := run.report.ProfileColumnsAccepted; accepted != nil && *accepted {
		if mismatches := domain.CompareProfile(run.payload, row); len(mismatches) > 0 {
			res.Status = domain.StatusWarn
			res.Summary = fmt.Sprintf("profile saved with %d mismatched column(s)", len(mismatches))
			res.Diagnosis = domain.Diagnosis{
				Code: domain.DiagProfileMismatch,
				Hint: "a trigger, default or column type is rewriting submitted values",
			}
			for _, m := range mismatches {
				res.AddDetail("mismatch "+m.Column, fmt.Sprintf("sent %s, stored %s", m.Sent, m.Stored))
			}
		}
	}

	assertions(run, &res, []int{200}, resp, map[string]domain.JSONPathAssertion{
		"$[0].id": {Exists: true},
	})
	return res, true
}
