package usecase

import (
	"sort"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

type ListReports struct {
	store ports.ReportStore
}

func NewListReports(store ports.ReportStore) *ListReports {
	return &ListReports{store: store}
}

// Execute returns saved reports newest first, capped at limit when limit > 0.
func (uc *ListReports) Execute(limit int) ([]domain.ReportRef, error) {
	refs, err := uc.store.ListReports()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].StartedAt.After(refs[j].StartedAt)
	})
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}
