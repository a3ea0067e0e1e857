package repositories

import (
	"context"
	"time"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// ReportingRepository is the pure read surface over the ledger. It
// aggregates and never mutates.
type ReportingRepository interface {
	// GetAgingReport buckets open balances (issued or pending_review
	// statements with balance > 0) by due-date offset from asOf.
	GetAgingReport(ctx context.Context, asOf time.Time) ([]domain.AgingRow, error)

	// GetCollectionsRegister totals posted and verified payments
	// grouped by payment date and method, optionally date-bounded.
	GetCollectionsRegister(ctx context.Context, start, end *time.Time) ([]domain.CollectionsRow, error)

	// GetUnappliedCreditTotals sums open credits per client.
	GetUnappliedCreditTotals(ctx context.Context) ([]domain.UnappliedCreditRow, error)
}
