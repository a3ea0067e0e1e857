package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// GetAgingReport buckets open balances by due-date offset from asOf.
// The CASE ladder mirrors domain.BucketForDueDate.
func (r *reportingRepository) GetAgingReport(ctx context.Context, asOf time.Time) ([]domain.AgingRow, error) {
	query := `
		SELECT
			CASE
				WHEN due_date IS NULL OR due_date >= $1::date THEN '0-30'
				WHEN $1::date - due_date <= 30 THEN '0-30'
				WHEN $1::date - due_date <= 60 THEN '31-60'
				WHEN $1::date - due_date <= 90 THEN '61-90'
				ELSE '90+'
			END AS bucket,
			SUM(balance) AS total_balance
		FROM billing_statements
		WHERE status IN ('issued', 'pending_review')
			AND balance > 0
		GROUP BY bucket
	`

	rows, err := r.Pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("error querying aging data: %w", err)
	}
	defer rows.Close()

	byBucket := make(map[domain.AgingBucket]decimal.Decimal, 4)
	for rows.Next() {
		var bucket string
		var total decimal.Decimal
		if err := rows.Scan(&bucket, &total); err != nil {
			return nil, fmt.Errorf("error scanning aging row: %w", err)
		}
		byBucket[domain.AgingBucket(bucket)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aging rows: %w", err)
	}

	// Every bucket is present in the result, zero when empty.
	buckets := []domain.AgingBucket{domain.Bucket0To30, domain.Bucket31To60, domain.Bucket61To90, domain.BucketOver90}
	result := make([]domain.AgingRow, 0, len(buckets))
	for _, bucket := range buckets {
		total, ok := byBucket[bucket]
		if !ok {
			total = decimal.Zero
		}
		result = append(result, domain.AgingRow{Bucket: bucket, TotalBalance: total})
	}
	return result, nil
}

// GetCollectionsRegister totals posted and verified payments grouped by
// payment date and method.
func (r *reportingRepository) GetCollectionsRegister(ctx context.Context, start, end *time.Time) ([]domain.CollectionsRow, error) {
	query := `
		SELECT
			payment_date::date AS payment_date,
			method,
			SUM(amount_received) AS total_amount
		FROM payments
		WHERE status IN ('posted', 'verified')
			AND ($1::date IS NULL OR payment_date >= $1::date)
			AND ($2::date IS NULL OR payment_date <= $2::date)
		GROUP BY payment_date::date, method
		ORDER BY payment_date::date DESC, method
	`

	rows, err := r.Pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("error querying collections data: %w", err)
	}
	defer rows.Close()

	result := []domain.CollectionsRow{}
	for rows.Next() {
		var row domain.CollectionsRow
		if err := rows.Scan(&row.PaymentDate, &row.Method, &row.TotalAmount); err != nil {
			return nil, fmt.Errorf("error scanning collections row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections rows: %w", err)
	}
	return result, nil
}

// GetUnappliedCreditTotals sums open credits per client.
func (r *reportingRepository) GetUnappliedCreditTotals(ctx context.Context) ([]domain.UnappliedCreditRow, error) {
	query := `
		SELECT
			c.client_id,
			c.name AS client_name,
			SUM(uc.amount) AS total_amount
		FROM unapplied_credits uc
		JOIN clients c ON uc.client_id = c.client_id
		WHERE uc.status = 'open'
		GROUP BY c.client_id, c.name
		ORDER BY c.name
	`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying credit totals: %w", err)
	}
	defer rows.Close()

	result := []domain.UnappliedCreditRow{}
	for rows.Next() {
		var row domain.UnappliedCreditRow
		if err := rows.Scan(&row.ClientID, &row.ClientName, &row.TotalAmount); err != nil {
			return nil, fmt.Errorf("error scanning credit totals row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit totals rows: %w", err)
	}
	return result, nil
}
