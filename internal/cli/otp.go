package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/logger"
	"github.com/streakerapp/supacheck/internal/infra/supabase"
	"github.com/streakerapp/supacheck/internal/usecase"
)

func otpCmd(a *app) *cobra.Command {
	var email, redirectTo string
	var createUser bool
	var data map[string]string

	c := &cobra.Command{
		Use:   "otp",
		Short: "Request an email one-time password and diagnose the answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProject()
			if err != nil {
				return err
			}
			client, err := p.client(false)
			if err != nil {
				return err
			}

			uc := usecase.NewRequestOTP(supabase.NewAuth(client), logger.L())
			attempt, err := uc.Execute(cmd.Context(), usecase.OTPInput{
				Email:      email,
				RedirectTo: redirectTo,
				CreateUser: createUser,
				UserData:   userData(data),
				Check:      p.cfg.Check,
			})
			if err != nil {
				return err
			}

			printOTP(cmd, a, attempt)
			if attempt.Error != nil || attempt.Diagnosis.Code != domain.DiagOTPSent {
				return fmt.Errorf("otp attempt: %s", diagnosisOrError(attempt))
			}
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "Recipient (default: a generated test address)")
	c.Flags().StringVar(&redirectTo, "redirect-to", "", "email_redirect_to sent with the request")
	c.Flags().BoolVar(&createUser, "create-user", true, "Create the user when it does not exist")
	c.Flags().StringToStringVar(&data, "data", nil, "User metadata sent as data, e.g. --data name=Ana (default name=Test User)")
	return c
}

func printOTP(cmd *cobra.Command, a *app, p domain.OTPAttempt) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, a.theme.Title.Render("Email OTP attempt"))
	fmt.Fprintf(w, "  email:  %s\n", p.Email)
	if p.Error != nil {
		fmt.Fprintf(w, "  %s %s (%s)\n", a.theme.Fail.Render("error:"), p.Error.Message, p.Error.Kind)
		return
	}
	fmt.Fprintf(w, "  status: %d · %dms\n", p.StatusCode, p.LatencyMS)
	if p.Message != "" {
		fmt.Fprintf(w, "  message: %s\n", p.Message)
	}
	badge := a.theme.Warn
	if p.Diagnosis.Code == domain.DiagOTPSent {
		badge = a.theme.Pass
	}
	fmt.Fprintf(w, "  %s %s\n", badge.Render("diagnosis:"), p.Diagnosis.Code)
	if p.Diagnosis.Hint != "" {
		fmt.Fprintf(w, "  %s %s\n", a.theme.Help.Render("hint:"), p.Diagnosis.Hint)
	}
}

func diagnosisOrError(p domain.OTPAttempt) string {
	if p.Error != nil {
		return string(p.Error.Kind)
	}
	return string(p.Diagnosis.Code)
}

// userData keeps nil when no --data was given so the default metadata applies.
func userData(flags map[string]string) map[string]any {
	if len(flags) == 0 {
		return nil
	}
	out := make(map[string]any, len(flags))
	for k, v := range flags {
		out[k] = v
	}
	return out
}
