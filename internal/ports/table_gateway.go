package ports

import (
	"context"

	"github.com/streakerapp/supacheck/internal/domain"
)

// TableGateway talks to the hosted tabular data API.
// accessToken is the user's bearer token; empty means the gateway's own key.
type TableGateway interface {
	SelectEq(ctx context.Context, accessToken, table, column, value string) (domain.APIResponse, error)
	Upsert(ctx context.Context, accessToken, table, onConflict string, row domain.ProfilePayload) (domain.APIResponse, error)
	DeleteAll(ctx context.Context, table string) (domain.APIResponse, error)
	Count(ctx context.Context, table string) (int64, domain.APIResponse, error)
}
