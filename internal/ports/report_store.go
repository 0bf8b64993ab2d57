package ports

import "github.com/streakerapp/supacheck/internal/domain"

// ReportStore persists check reports for later comparison.
type ReportStore interface {
	SaveReport(report domain.CheckReport) (id string, err error)
	ListReports() ([]domain.ReportRef, error)
}
