package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

type PgxSequenceRepository struct {
	BaseRepository
}

// newPgxSequenceRepository creates the document number allocator.
func newPgxSequenceRepository(pool *pgxpool.Pool) portsrepo.SequenceAllocator {
	return &PgxSequenceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceAllocator = (*PgxSequenceRepository)(nil)

// NextNumber allocates the next number for the named sequence. The row
// is created on first use, locked with FOR UPDATE so concurrent
// callers serialize, reset to zero when the annual rule fires on a
// year change, then incremented. Two callers can never observe the
// same counter value.
func (r *PgxSequenceRepository) NextNumber(ctx context.Context, code string, actorID string, today time.Time) (string, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer r.Rollback(ctx, tx)

	year := today.Year()

	// Seed the row on first use. DO NOTHING keeps a concurrent seeder
	// from failing; both then contend on the row lock below.
	seedQuery := `
		INSERT INTO sequences (code, name, prefix, padding, current_value, reset_rule, current_year, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $7, $8)
		ON CONFLICT (code) DO NOTHING;
	`
	prefix := code + "-"
	if _, err := tx.Exec(ctx, seedQuery, code, code+" Sequence", prefix, 4, domain.ResetAnnual, year, today, actorID); err != nil {
		return "", apperrors.NewAppError(500, "failed to seed sequence "+code, err)
	}

	var seq domain.Sequence
	lockQuery := `
		SELECT code, name, prefix, padding, current_value, reset_rule, current_year
		FROM sequences
		WHERE code = $1
		FOR UPDATE;
	`
	if err := tx.QueryRow(ctx, lockQuery, code).Scan(
		&seq.Code,
		&seq.Name,
		&seq.Prefix,
		&seq.Padding,
		&seq.CurrentValue,
		&seq.ResetRule,
		&seq.CurrentYear,
	); err != nil {
		return "", apperrors.NewAppError(500, "failed to lock sequence "+code, err)
	}

	number := seq.Advance(year)

	updateQuery := `
		UPDATE sequences
		SET current_value = $2,
		    current_year = $3,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE code = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, code, seq.CurrentValue, seq.CurrentYear, today, actorID); err != nil {
		return "", apperrors.NewAppError(500, "failed to advance sequence "+code, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return "", err
	}
	return number, nil
}
