package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
	ucextract "github.com/streakerapp/supacheck/internal/usecase/extract"
)

// settingsBody is the subset of GET /auth/v1/settings that matters here.
type settingsBody struct {
	External          map[string]any `json:"external"`
	DisableSignup     bool           `json:"disable_signup"`
	MailerAutoconfirm bool           `json:"mailer_autoconfirm"`
}

// providerEnabled accepts both `"email": true` and `"email": {"enabled": true}`.
func providerEnabled(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case map[string]any:
		on, _ := t["enabled"].(bool)
		return on
	default:
		return false
	}
}

// ReadAuthSettings fetches the auth configuration and checks it against the
// email/password onboarding flow before any user is created.
type ReadAuthSettings struct {
	auth ports.AuthGateway
	log  *slog.Logger
}

func NewReadAuthSettings(auth ports.AuthGateway, log *slog.Logger) *ReadAuthSettings {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &ReadAuthSettings{auth: auth, log: log}
}

// Execute never returns an error for backend answers; they become findings.
func (uc *ReadAuthSettings) Execute(ctx context.Context) (domain.AuthSettings, error) {
	resp, err := uc.auth.Settings(ctx)
	out := domain.AuthSettings{StatusCode: resp.StatusCode, LatencyMS: resp.LatencyMS}
	if err != nil {
		out.Error = domain.NewRunError(err)
		uc.log.Warn("settings.transport_error", "err", err)
		return out, nil
	}

	if !resp.IsSuccess(200) {
		out.Findings = []domain.SettingsFinding{{
			Name:    "settings",
			Status:  domain.StatusFail,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, ucextract.Message(resp.Body)),
			Diagnosis: domain.Diagnosis{
				Code: domain.DiagUnexpectedStatus,
				Hint: "check the project url and anon key",
			},
		}}
		return out, nil
	}

	var body settingsBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		out.Findings = []domain.SettingsFinding{{
			Name:    "settings",
			Status:  domain.StatusFail,
			Message: "response is not valid JSON: " + err.Error(),
		}}
		return out, nil
	}

	out.EmailEnabled = providerEnabled(body.External["email"])
	out.SignupDisabled = body.DisableSignup
	out.MailerAutoconfirm = body.MailerAutoconfirm
	for name, v := range body.External {
		if providerEnabled(v) {
			out.Providers = append(out.Providers, name)
		}
	}
	sort.Strings(out.Providers)
	out.Findings = JudgeAuthSettings(out)

	uc.log.Info("settings.done",
		"status", resp.StatusCode,
		"email", out.EmailEnabled,
		"disable_signup", out.SignupDisabled,
		"mailer_autoconfirm", out.MailerAutoconfirm,
	)
	return out, nil
}

// JudgeAuthSettings lists one finding per setting the check depends on.
func JudgeAuthSettings(s domain.AuthSettings) []domain.SettingsFinding {
	email := domain.SettingsFinding{Name: "email provider", Status: domain.StatusPass, Message: "enabled"}
	if !s.EmailEnabled {
		email.Status = domain.StatusFail
		email.Message = "disabled"
		email.Diagnosis = domain.Diagnosis{
			Code: domain.DiagEmailProviderDisabled,
			Hint: "enable the Email provider under Authentication > Providers",
		}
	}

	signup := domain.SettingsFinding{Name: "signup", Status: domain.StatusPass, Message: "allowed"}
	if s.SignupDisabled {
		signup.Status = domain.StatusFail
		signup.Message = "disabled"
		signup.Diagnosis = domain.Diagnosis{
			Code: domain.DiagSignupDisabled,
			Hint: "turn on \"Allow new users to sign up\" under Authentication > Settings",
		}
	}

	confirm := domain.SettingsFinding{Name: "email confirmation", Status: domain.StatusPass, Message: "disabled (autoconfirm on)"}
	if !s.MailerAutoconfirm {
		confirm.Status = domain.StatusFail
		confirm.Message = "required"
		confirm.Diagnosis = domain.Diagnosis{
			Code: domain.DiagEmailConfirmationRequired,
			Hint: "disable \"Confirm email\" under Authentication > Providers > Email in the project dashboard",
		}
	}

	return []domain.SettingsFinding{email, signup, confirm}
}
