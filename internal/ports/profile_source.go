package ports

import "github.com/streakerapp/supacheck/internal/domain"

// ProfileSource loads the payload written during the upsert step.
type ProfileSource interface {
	LoadProfile(path string) (domain.ProfilePayload, error)
}
