package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates a new repository for the audit log.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

// SaveAuditEntry appends one row. The log is append-only; there is no
// update or delete path.
func (r *PgxAuditRepository) SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (entry_id, actor_id, action, entity_type, entity_id, before, after, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		entry.EntryID,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Before,
		entry.After,
		entry.Metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert audit entry "+entry.EntryID, err)
	}
	return nil
}

// ListAuditEntries retrieves the newest entries.
func (r *PgxAuditRepository) ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	query := `
		SELECT entry_id, actor_id, action, entity_type, entity_id, before, after, metadata, created_at
		FROM audit_log
		ORDER BY created_at DESC, entry_id DESC
		LIMIT $1;
	`
	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query audit entries", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(
			&e.EntryID,
			&e.ActorID,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.Before,
			&e.After,
			&e.Metadata,
			&e.CreatedAt,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan audit entry row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating audit entry rows", err)
	}
	return entries, nil
}
