package usecase

import (
	"testing"
	"time"

	"github.com/streakerapp/supacheck/internal/domain"
)

type fakeReportStore struct {
	refs  []domain.ReportRef
	saved []domain.CheckReport
}

func (f *fakeReportStore) SaveReport(r domain.CheckReport) (string, error) {
	f.saved = append(f.saved, r)
	return r.ID, nil
}

func (f *fakeReportStore) ListReports() ([]domain.ReportRef, error) {
	return f.refs, nil
}

func TestListReports_NewestFirstWithLimit(t *testing.T) {
	store := &fakeReportStore{refs: []domain.ReportRef{
		{ID: "a", StartedAt: fixedNow.Add(-2 * time.Hour)},
		{ID: "b", StartedAt: fixedNow},
		{ID: "c", StartedAt: fixedNow.Add(-time.Hour)},
	}}

	got, err := NewListReports(store).Execute(2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
