package ports

import (
	"context"

	"github.com/streakerapp/supacheck/internal/domain"
)

// Credentials identify a test user.
type Credentials struct {
	Email    string
	Password string
}

// OTPRequest describes a one-time-password / magic-link request.
type OTPRequest struct {
	Email      string
	RedirectTo string
	CreateUser bool
	UserData   map[string]any
}

// AuthGateway talks to the hosted auth service.
// A non-2xx status is returned as a response, not an error; errors are transport failures.
type AuthGateway interface {
	SignUp(ctx context.Context, c Credentials) (domain.APIResponse, error)
	SignInWithPassword(ctx context.Context, c Credentials) (domain.APIResponse, error)
	SendOTP(ctx context.Context, req OTPRequest) (domain.APIResponse, error)
	// Settings reads the public auth configuration (providers, signup, autoconfirm).
	Settings(ctx context.Context) (domain.APIResponse, error)
}
