package supabase

import (
	"context"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

// Auth is the GoTrue gateway.
type Auth struct {
	c *Client
}

func NewAuth(c *Client) *Auth {
	return &Auth{c: c}
}

var _ ports.AuthGateway = (*Auth)(nil)

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *Auth) SignUp(ctx context.Context, cr ports.Credentials) (domain.APIResponse, error) {
	return a.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodPost,
		URL:     a.c.url(authPrefix, "signup"),
		Headers: a.c.headers(""),
		JSON:    credentialsBody{Email: cr.Email, Password: cr.Password},
	})
}

func (a *Auth) SignInWithPassword(ctx context.Context, cr ports.Credentials) (domain.APIResponse, error) {
	return a.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodPost,
		URL:     a.c.url(authPrefix, "token"),
		Query:   map[string]string{"grant_type": "password"},
		Headers: a.c.headers(""),
		JSON:    credentialsBody{Email: cr.Email, Password: cr.Password},
	})
}

type otpBody struct {
	Email      string         `json:"email"`
	CreateUser bool           `json:"create_user"`
	Data       map[string]any `json:"data,omitempty"`
	Options    *otpOptions    `json:"options,omitempty"`
}

type otpOptions struct {
	EmailRedirectTo string `json:"email_redirect_to,omitempty"`
}

func (a *Auth) SendOTP(ctx context.Context, req ports.OTPRequest) (domain.APIResponse, error) {
	body := otpBody{
		Email:      req.Email,
		CreateUser: req.CreateUser,
		Data:       req.UserData,
	}
	if req.RedirectTo != "" {
		body.Options = &otpOptions{EmailRedirectTo: req.RedirectTo}
	}

	return a.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodPost,
		URL:     a.c.url(authPrefix, "otp"),
		Headers: a.c.headers(a.c.apiKey),
		JSON:    body,
	})
}

func (a *Auth) Settings(ctx context.Context) (domain.APIResponse, error) {
	return a.c.doer.Do(ctx, domain.APIRequest{
		Method:  domain.MethodGet,
		URL:     a.c.url(authPrefix, "settings"),
		Headers: a.c.headers(""),
	})
}
