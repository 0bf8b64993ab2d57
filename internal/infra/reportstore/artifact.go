package reportstore

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/streakerapp/supacheck/internal/domain"
)

// reportFile is the on-disk shape of a check report.
type reportFile struct {
	ID         string    `json:"id"`
	ProjectURL string    `json:"project_url"`
	TestEmail  string    `json:"test_email"`
	UserID     string    `json:"user_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	DurationMS int64     `json:"duration_ms"`
	Failures   int       `json:"failures"`

	EmailConfirmationDisabled *bool `json:"email_confirmation_disabled"`
	ProfileColumnsAccepted    *bool `json:"profile_columns_accepted"`

	Steps []stepFile `json:"steps"`
}

type stepFile struct {
	Step       string           `json:"step"`
	Status     string           `json:"status"`
	Method     string           `json:"method,omitempty"`
	URL        string           `json:"url,omitempty"`
	StatusCode int              `json:"status_code,omitempty"`
	LatencyMS  int64            `json:"latency_ms,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	Details    []detailFile     `json:"details,omitempty"`
	Diagnosis  *diagnosisFile   `json:"diagnosis,omitempty"`
	Assertions []assertionFile  `json:"assertions,omitempty"`
	Extracts   []assertionFile  `json:"extracts,omitempty"`
	Body       json.RawMessage  `json:"body,omitempty"`
	BodyText   string           `json:"body_text,omitempty"`
	Error      *domain.RunError `json:"error,omitempty"`
}

type detailFile struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type diagnosisFile struct {
	Code string `json:"code"`
	Hint string `json:"hint,omitempty"`
}

type assertionFile struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

func toFile(r domain.CheckReport) reportFile {
	out := reportFile{
		ID:                        r.ID,
		ProjectURL:                r.ProjectURL,
		TestEmail:                 r.TestEmail,
		UserID:                    r.UserID,
		StartedAt:                 r.StartedAt.UTC(),
		EndedAt:                   r.EndedAt.UTC(),
		DurationMS:                r.Duration().Milliseconds(),
		Failures:                  r.Failures(),
		EmailConfirmationDisabled: r.EmailConfirmationDisabled,
		ProfileColumnsAccepted:    r.ProfileColumnsAccepted,
		Steps:                     make([]stepFile, 0, len(r.Steps)),
	}

	for _, s := range r.Steps {
		sf := stepFile{
			Step:       string(s.Step),
			Status:     string(s.Status),
			Method:     string(s.Method),
			URL:        s.URL,
			StatusCode: s.StatusCode,
			LatencyMS:  s.LatencyMS,
			Summary:    s.Summary,
			Error:      s.Error,
		}
		for _, d := range s.Details {
			sf.Details = append(sf.Details, detailFile{Key: d.Key, Value: d.Value})
		}
		if s.Diagnosis.Code != domain.DiagNone {
			sf.Diagnosis = &diagnosisFile{Code: string(s.Diagnosis.Code), Hint: s.Diagnosis.Hint}
		}
		for _, a := range s.Assertions {
			sf.Assertions = append(sf.Assertions, assertionFile{Name: a.Name, Passed: a.Passed, Message: a.Message})
		}
		for _, e := range s.Extracts {
			sf.Extracts = append(sf.Extracts, assertionFile{Name: e.Name, Passed: e.Success, Message: e.Message})
		}
		if len(s.Body) > 0 {
			if json.Valid(s.Body) {
				sf.Body = append(json.RawMessage(nil), s.Body...)
			} else {
				sf.BodyText = string(s.Body)
			}
		}
		out.Steps = append(out.Steps, sf)
	}
	return out
}
