package domain

import "time"

// StepName identifies one stage of the sign-up/profile check.
type StepName string

const (
	StepSignup        StepName = "signup"
	StepSignin        StepName = "signin"
	StepProfileLookup StepName = "profile_lookup"
	StepProfileUpsert StepName = "profile_upsert"
	StepProfileVerify StepName = "profile_verify"
)

// CheckSteps is the fixed execution order of a check run.
var CheckSteps = []StepName{
	StepSignup,
	StepSignin,
	StepProfileLookup,
	StepProfileUpsert,
	StepProfileVerify,
}

// Title returns the human label used in reports.
func (s StepName) Title() string {
	switch s {
	case StepSignup:
		return "Signup"
	case StepSignin:
		return "Immediate sign in"
	case StepProfileLookup:
		return "Profile lookup"
	case StepProfileUpsert:
		return "Profile upsert"
	case StepProfileVerify:
		return "Verify saved profile"
	default:
		return string(s)
	}
}

// StepStatus is the outcome of a step.
type StepStatus string

const (
	StatusPass    StepStatus = "pass"
	StatusWarn    StepStatus = "warn"
	StatusFail    StepStatus = "fail"
	StatusSkipped StepStatus = "skipped"
)

// DiagnosisCode names a known backend misconfiguration.
type DiagnosisCode string

const (
	DiagNone                      DiagnosisCode = ""
	DiagEmailConfirmationRequired DiagnosisCode = "email_confirmation_required"
	DiagNotNullViolation          DiagnosisCode = "not_null_violation"
	DiagProfileMissing            DiagnosisCode = "profile_missing"
	DiagProfileMismatch           DiagnosisCode = "profile_mismatch"
	DiagOTPSent                   DiagnosisCode = "otp_sent"
	DiagOTPDisabled               DiagnosisCode = "otp_disabled"
	DiagEmailServiceError         DiagnosisCode = "email_service_error"
	DiagMagicLinkConfigured       DiagnosisCode = "magic_link_configured"
	DiagUnexpectedStatus          DiagnosisCode = "unexpected_status"
	DiagEmailProviderDisabled     DiagnosisCode = "email_provider_disabled"
	DiagSignupDisabled            DiagnosisCode = "signup_disabled"
)

// Diagnosis explains a result and what to change on the backend.
type Diagnosis struct {
	Code DiagnosisCode
	Hint string
}

// Detail is an ordered key/value line shown under a step.
type Detail struct {
	Key   string
	Value string
}

// AssertionResult is the output of a single assertion.
type AssertionResult struct {
	Name    string
	Passed  bool
	Message string
}

// ExtractResult is the output of a single extraction rule.
type ExtractResult struct {
	Name    string
	Success bool
	Message string
}

// StepResult represents the result of executing a single step.
type StepResult struct {
	Step       StepName
	Status     StepStatus
	Method     HTTPMethod
	URL        string
	StatusCode int
	LatencyMS  int64

	Summary   string
	Details   []Detail
	Diagnosis Diagnosis

	Assertions []AssertionResult
	Extracts   []ExtractResult

	// Body is the raw response body, kept for failure output.
	Body  []byte
	Error *RunError
}

// AddDetail appends a key/value line.
func (r *StepResult) AddDetail(key, value string) {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
}

// Failed reports whether the step counts as a failure.
func (r StepResult) Failed() bool {
	return r.Status == StatusFail || r.Error != nil
}

// CheckReport is the persisted outcome of a check run.
type CheckReport struct {
	ID         string
	ProjectURL string
	TestEmail  string
	UserID     string

	StartedAt time.Time
	EndedAt   time.Time

	// Verdicts are nil when the run stopped before the step that decides them.
	EmailConfirmationDisabled *bool
	ProfileColumnsAccepted    *bool

	Steps []StepResult
}

// Failures counts failed steps.
func (r CheckReport) Failures() int {
	n := 0
	for _, s := range r.Steps {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Step returns the result for a step name.
func (r CheckReport) Step(name StepName) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Duration is zero when the run has not finished.
func (r CheckReport) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// OTPAttempt is the outcome of a one-time-password request.
type OTPAttempt struct {
	Email      string
	StatusCode int
	LatencyMS  int64
	Message    string
	Body       []byte
	Diagnosis  Diagnosis
	Error      *RunError
}

// TableClearResult is the outcome of wiping one table.
type TableClearResult struct {
	Table      string
	Cleared    bool
	Remaining  *int64
	StatusCode int
	Message    string
	Error      *RunError
}

// SchemaResult is the outcome of applying DDL statements.
type SchemaResult struct {
	Statements int
	Relaxed    []string
}

// ReportRef is a lightweight pointer to a saved report.
type ReportRef struct {
	ID        string
	File      string
	Email     string
	Failures  int
	StartedAt time.Time
}

// BoolPtr is a helper for verdict fields.
func BoolPtr(b bool) *bool { return &b }
