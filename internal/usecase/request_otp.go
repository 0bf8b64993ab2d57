package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
	ucextract "github.com/streakerapp/supacheck/internal/usecase/extract"
)

// OTPInput describes a one-time-password attempt.
type OTPInput struct {
	// Email defaults to a fresh test address when empty.
	Email      string
	RedirectTo string
	CreateUser bool
	// UserData is stored as user metadata when the user is created.
	// Nil sends DefaultOTPUserData.
	UserData map[string]any
	Check    domain.CheckConfig
}

// DefaultOTPUserData is the metadata the app attaches to a new OTP user.
func DefaultOTPUserData() map[string]any {
	return map[string]any{"name": "Test User"}
}

// RequestOTP asks the auth service to send a sign-in code and explains the answer.
type RequestOTP struct {
	auth ports.AuthGateway
	now  func() time.Time
	log  *slog.Logger
}

func NewRequestOTP(auth ports.AuthGateway, log *slog.Logger) *RequestOTP {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &RequestOTP{auth: auth, now: time.Now, log: log}
}

func (uc *RequestOTP) Execute(ctx context.Context, in OTPInput) (domain.OTPAttempt, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		if strings.TrimSpace(in.Check.EmailDomain) == "" {
			return domain.OTPAttempt{}, &domain.OpError{
				Op:   "otp.validate",
				Kind: domain.KindInvalidConfig,
				Err:  fmt.Errorf("%w: email or email domain required", domain.ErrInvalidConfig),
			}
		}
		email = TestEmail(in.Check, uc.now())
	}

	data := in.UserData
	if data == nil {
		data = DefaultOTPUserData()
	}

	resp, err := uc.auth.SendOTP(ctx, ports.OTPRequest{
		Email:      email,
		RedirectTo: in.RedirectTo,
		CreateUser: in.CreateUser,
		UserData:   data,
	})

	attempt := domain.OTPAttempt{
		Email:      email,
		StatusCode: resp.StatusCode,
		LatencyMS:  resp.LatencyMS,
		Body:       resp.Body,
	}
	if err != nil {
		attempt.Error = domain.NewRunError(err)
		attempt.Message = err.Error()
		uc.log.Warn("otp.transport_error", "email", email, "err", err)
		return attempt, nil
	}

	attempt.Message = ucextract.Message(resp.Body)
	attempt.Diagnosis = DiagnoseOTP(resp.StatusCode, attempt.Message)

	uc.log.Info("otp.done", "email", email, "status", resp.StatusCode, "diagnosis", string(attempt.Diagnosis.Code))
	return attempt, nil
}

// DiagnoseOTP maps an /otp answer to a known configuration state.
func DiagnoseOTP(status int, message string) domain.Diagnosis {
	if strings.Contains(strings.ToLower(message), "magic link") {
		return domain.Diagnosis{
			Code: domain.DiagMagicLinkConfigured,
			Hint: "the email template sends a magic link; switch it to {{ .Token }} to deliver a code",
		}
	}

	switch status {
	case 200:
		return domain.Diagnosis{
			Code: domain.DiagOTPSent,
			Hint: "check the inbox; the template decides whether it contains a code or a link",
		}
	case 422:
		return domain.Diagnosis{
			Code: domain.DiagOTPDisabled,
			Hint: "enable the email provider and email OTP in Authentication > Providers",
		}
	case 500:
		return domain.Diagnosis{
			Code: domain.DiagEmailServiceError,
			Hint: "the email service failed: check the SMTP settings or wait for the rate limit to reset",
		}
	default:
		return domain.Diagnosis{
			Code: domain.DiagUnexpectedStatus,
			Hint: fmt.Sprintf("unexpected status %d", status),
		}
	}
}
