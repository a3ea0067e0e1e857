package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

type PgxEngagementRepository struct {
	BaseRepository
}

// newPgxEngagementRepository creates a new repository for engagement data.
func newPgxEngagementRepository(pool *pgxpool.Pool) portsrepo.EngagementRepositoryFacade {
	return &PgxEngagementRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EngagementRepositoryFacade = (*PgxEngagementRepository)(nil)

const engagementColumns = `engagement_id, client_id, type, title, summary, status, start_date, end_date, recurrence, base_fee, default_description, billing_day, last_generated_period, created_at, created_by, last_updated_at, last_updated_by`

func scanEngagement(row pgx.Row) (*domain.Engagement, error) {
	var e domain.Engagement
	err := row.Scan(
		&e.EngagementID,
		&e.ClientID,
		&e.Type,
		&e.Title,
		&e.Summary,
		&e.Status,
		&e.StartDate,
		&e.EndDate,
		&e.Recurrence,
		&e.BaseFee,
		&e.DefaultDescription,
		&e.BillingDay,
		&e.LastGeneratedPeriod,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveEngagement inserts a new engagement row.
func (r *PgxEngagementRepository) SaveEngagement(ctx context.Context, engagement domain.Engagement) error {
	query := `
		INSERT INTO engagements (` + engagementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.Pool.Exec(ctx, query,
		engagement.EngagementID,
		engagement.ClientID,
		engagement.Type,
		engagement.Title,
		engagement.Summary,
		engagement.Status,
		engagement.StartDate,
		engagement.EndDate,
		engagement.Recurrence,
		engagement.BaseFee,
		engagement.DefaultDescription,
		engagement.BillingDay,
		engagement.LastGeneratedPeriod,
		engagement.CreatedAt,
		engagement.CreatedBy,
		engagement.LastUpdatedAt,
		engagement.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert engagement "+engagement.EngagementID, err)
	}
	return nil
}

// FindEngagementByID retrieves an engagement by its ID.
func (r *PgxEngagementRepository) FindEngagementByID(ctx context.Context, engagementID string) (*domain.Engagement, error) {
	query := `SELECT ` + engagementColumns + ` FROM engagements WHERE engagement_id = $1;`
	engagement, err := scanEngagement(r.Pool.QueryRow(ctx, query, engagementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find engagement by ID "+engagementID, err)
	}
	return engagement, nil
}

// ListEngagementsByClient retrieves a client's engagements, newest first.
func (r *PgxEngagementRepository) ListEngagementsByClient(ctx context.Context, clientID string) ([]domain.Engagement, error) {
	query := `SELECT ` + engagementColumns + ` FROM engagements WHERE client_id = $1 ORDER BY start_date DESC, created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query engagements for client "+clientID, err)
	}
	defer rows.Close()
	return collectEngagements(rows)
}

// ListActiveRetainerEngagements retrieves every active retainer whose
// client is active, the selection set for a billing cycle.
func (r *PgxEngagementRepository) ListActiveRetainerEngagements(ctx context.Context) ([]domain.Engagement, error) {
	query := `
		SELECT e.engagement_id, e.client_id, e.type, e.title, e.summary, e.status, e.start_date, e.end_date, e.recurrence, e.base_fee, e.default_description, e.billing_day, e.last_generated_period, e.created_at, e.created_by, e.last_updated_at, e.last_updated_by
		FROM engagements e
		JOIN clients c ON e.client_id = c.client_id
		WHERE e.type = 'retainer'
		  AND e.status = 'active'
		  AND c.status = 'active'
		ORDER BY c.normalized_name, e.title;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query active retainer engagements", err)
	}
	defer rows.Close()
	return collectEngagements(rows)
}

func collectEngagements(rows pgx.Rows) ([]domain.Engagement, error) {
	engagements := []domain.Engagement{}
	for rows.Next() {
		engagement, err := scanEngagement(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan engagement row", err)
		}
		engagements = append(engagements, *engagement)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating engagement rows", err)
	}
	return engagements, nil
}

// UpdateEngagement rewrites the mutable engagement fields.
func (r *PgxEngagementRepository) UpdateEngagement(ctx context.Context, engagement domain.Engagement) error {
	query := `
		UPDATE engagements
		SET title = $2,
		    summary = $3,
		    status = $4,
		    end_date = $5,
		    base_fee = $6,
		    default_description = $7,
		    billing_day = $8,
		    last_generated_period = $9,
		    last_updated_at = $10,
		    last_updated_by = $11
		WHERE engagement_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		engagement.EngagementID,
		engagement.Title,
		engagement.Summary,
		engagement.Status,
		engagement.EndDate,
		engagement.BaseFee,
		engagement.DefaultDescription,
		engagement.BillingDay,
		engagement.LastGeneratedPeriod,
		engagement.LastUpdatedAt,
		engagement.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to update engagement "+engagement.EngagementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteEngagement removes an engagement. A foreign key from
// billing_statements surfaces as a conflict.
func (r *PgxEngagementRepository) DeleteEngagement(ctx context.Context, engagementID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM engagements WHERE engagement_id = $1;`, engagementID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete engagement "+engagementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
