package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

type PgxStatementRepository struct {
	BaseRepository
}

// newPgxStatementRepository creates a new repository for statement and
// billing item data.
func newPgxStatementRepository(pool *pgxpool.Pool) portsrepo.StatementRepositoryFacade {
	return &PgxStatementRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.StatementRepositoryFacade = (*PgxStatementRepository)(nil)

const statementColumns = `statement_id, number, client_id, engagement_id, period, issue_date, due_date, currency, notes, status, pdf_path, sub_total, paid_to_date, balance, idempotency_hash, created_at, created_by, last_updated_at, last_updated_by`

func scanStatement(row pgx.Row) (*domain.BillingStatement, error) {
	var s domain.BillingStatement
	err := row.Scan(
		&s.StatementID,
		&s.Number,
		&s.ClientID,
		&s.EngagementID,
		&s.Period,
		&s.IssueDate,
		&s.DueDate,
		&s.Currency,
		&s.Notes,
		&s.Status,
		&s.PDFPath,
		&s.SubTotal,
		&s.PaidToDate,
		&s.Balance,
		&s.IdempotencyHash,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// recalcAndSettleTx recomputes the statement's derived totals from its
// items and allocations, applies the settled/issued toggle on the
// zero-balance boundary, and returns the refreshed row. The CASE
// mirrors domain.SettlementStatus.
func recalcAndSettleTx(ctx context.Context, tx pgx.Tx, statementID string) (*domain.BillingStatement, error) {
	query := `
		WITH totals AS (
			SELECT
				COALESCE((SELECT SUM(line_total) FROM billing_items WHERE statement_id = $1), 0) AS sub_total,
				COALESCE((SELECT SUM(amount_applied) FROM payment_allocations WHERE statement_id = $1), 0) AS paid_to_date
		)
		UPDATE billing_statements s
		SET sub_total = t.sub_total,
		    paid_to_date = t.paid_to_date,
		    balance = t.sub_total - t.paid_to_date,
		    status = CASE
		        WHEN s.status = 'issued' AND t.sub_total - t.paid_to_date <= 0 THEN 'settled'
		        WHEN s.status = 'settled' AND t.sub_total - t.paid_to_date > 0 THEN 'issued'
		        ELSE s.status
		    END
		FROM totals t
		WHERE s.statement_id = $1
		RETURNING ` + prefixedStatementColumns("s") + `;
	`
	statement, err := scanStatement(tx.QueryRow(ctx, query, statementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to recalculate statement "+statementID, err)
	}
	return statement, nil
}

func prefixedStatementColumns(alias string) string {
	return alias + `.statement_id, ` + alias + `.number, ` + alias + `.client_id, ` + alias + `.engagement_id, ` + alias + `.period, ` + alias + `.issue_date, ` + alias + `.due_date, ` + alias + `.currency, ` + alias + `.notes, ` + alias + `.status, ` + alias + `.pdf_path, ` + alias + `.sub_total, ` + alias + `.paid_to_date, ` + alias + `.balance, ` + alias + `.idempotency_hash, ` + alias + `.created_at, ` + alias + `.created_by, ` + alias + `.last_updated_at, ` + alias + `.last_updated_by`
}

// CreateStatement inserts a draft statement, optionally with its first
// item, and recalculates totals inside one transaction.
func (r *PgxStatementRepository) CreateStatement(ctx context.Context, statement domain.BillingStatement, item *domain.BillingItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	insertQuery := `
		INSERT INTO billing_statements (` + statementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err = tx.Exec(ctx, insertQuery,
		statement.StatementID,
		statement.Number,
		statement.ClientID,
		statement.EngagementID,
		statement.Period,
		statement.IssueDate,
		statement.DueDate,
		statement.Currency,
		statement.Notes,
		statement.Status,
		statement.PDFPath,
		statement.SubTotal,
		statement.PaidToDate,
		statement.Balance,
		statement.IdempotencyHash,
		statement.CreatedAt,
		statement.CreatedBy,
		statement.LastUpdatedAt,
		statement.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert statement "+statement.StatementID, err)
	}

	if item != nil {
		if err := saveItemTx(ctx, tx, *item); err != nil {
			return err
		}
	}

	if _, err := recalcAndSettleTx(ctx, tx, statement.StatementID); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindStatementByID retrieves a statement by its ID.
func (r *PgxStatementRepository) FindStatementByID(ctx context.Context, statementID string) (*domain.BillingStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM billing_statements WHERE statement_id = $1;`
	statement, err := scanStatement(r.Pool.QueryRow(ctx, query, statementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find statement by ID "+statementID, err)
	}
	return statement, nil
}

// FindStatementsByIDs retrieves statements keyed by ID. Missing IDs are
// simply absent from the map.
func (r *PgxStatementRepository) FindStatementsByIDs(ctx context.Context, statementIDs []string) (map[string]domain.BillingStatement, error) {
	if len(statementIDs) == 0 {
		return map[string]domain.BillingStatement{}, nil
	}

	query := `SELECT ` + statementColumns + ` FROM billing_statements WHERE statement_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, statementIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query statements by IDs", err)
	}
	defer rows.Close()

	statements := make(map[string]domain.BillingStatement, len(statementIDs))
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan statement row during batch fetch", err)
		}
		statements[statement.StatementID] = *statement
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating statement rows during batch fetch", err)
	}
	return statements, nil
}

// ListStatements retrieves statements matching the filter, newest
// period first.
func (r *PgxStatementRepository) ListStatements(ctx context.Context, filter portsrepo.StatementFilter, limit int, offset int) ([]domain.BillingStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM billing_statements WHERE 1=1`
	args := []interface{}{}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		query += ` AND client_id = $` + strconv.Itoa(len(args))
	}
	if filter.EngagementID != nil {
		args = append(args, *filter.EngagementID)
		query += ` AND engagement_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Period != nil {
		args = append(args, *filter.Period)
		query += ` AND period = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY period DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query statements", err)
	}
	defer rows.Close()

	statements := []domain.BillingStatement{}
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan statement row", err)
		}
		statements = append(statements, *statement)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating statement rows", err)
	}
	return statements, nil
}

const itemColumns = `item_id, statement_id, description, qty, unit, unit_price, line_total, created_at, created_by, last_updated_at, last_updated_by`

func scanItem(row pgx.Row) (*domain.BillingItem, error) {
	var i domain.BillingItem
	err := row.Scan(
		&i.ItemID,
		&i.StatementID,
		&i.Description,
		&i.Qty,
		&i.Unit,
		&i.UnitPrice,
		&i.LineTotal,
		&i.CreatedAt,
		&i.CreatedBy,
		&i.LastUpdatedAt,
		&i.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// FindItemsByStatementID retrieves a statement's items in entry order.
func (r *PgxStatementRepository) FindItemsByStatementID(ctx context.Context, statementID string) ([]domain.BillingItem, error) {
	query := `SELECT ` + itemColumns + ` FROM billing_items WHERE statement_id = $1 ORDER BY created_at, item_id;`
	rows, err := r.Pool.Query(ctx, query, statementID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query items for statement "+statementID, err)
	}
	defer rows.Close()

	items := []domain.BillingItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan item row", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating item rows", err)
	}
	return items, nil
}

// FindItemByID retrieves a single billing item.
func (r *PgxStatementRepository) FindItemByID(ctx context.Context, itemID string) (*domain.BillingItem, error) {
	query := `SELECT ` + itemColumns + ` FROM billing_items WHERE item_id = $1;`
	item, err := scanItem(r.Pool.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find item by ID "+itemID, err)
	}
	return item, nil
}

// UpdateStatementHeader rewrites the mutable header fields.
func (r *PgxStatementRepository) UpdateStatementHeader(ctx context.Context, statement domain.BillingStatement) error {
	query := `
		UPDATE billing_statements
		SET period = $2,
		    notes = $3,
		    idempotency_hash = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE statement_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		statement.StatementID,
		statement.Period,
		statement.Notes,
		statement.IdempotencyHash,
		statement.LastUpdatedAt,
		statement.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to update statement "+statement.StatementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateStatementStatus transitions the status and stamps the actor.
func (r *PgxStatementRepository) UpdateStatementStatus(ctx context.Context, statementID string, status domain.StatementStatus, notes string, actorID string, at time.Time) error {
	query := `
		UPDATE billing_statements
		SET status = $2,
		    notes = $3,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE statement_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, statementID, status, notes, at, actorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status for statement "+statementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkIssued stamps number, dates and issued status in one update.
func (r *PgxStatementRepository) MarkIssued(ctx context.Context, statement domain.BillingStatement) error {
	query := `
		UPDATE billing_statements
		SET number = $2,
		    issue_date = $3,
		    due_date = $4,
		    status = $5,
		    last_updated_at = $6,
		    last_updated_by = $7
		WHERE statement_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		statement.StatementID,
		statement.Number,
		statement.IssueDate,
		statement.DueDate,
		statement.Status,
		statement.LastUpdatedAt,
		statement.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to mark statement "+statement.StatementID+" issued", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdatePDFPath stores the rendered artifact reference.
func (r *PgxStatementRepository) UpdatePDFPath(ctx context.Context, statementID string, pdfPath string, actorID string, at time.Time) error {
	query := `
		UPDATE billing_statements
		SET pdf_path = $2,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE statement_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, statementID, pdfPath, at, actorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to store pdf path for statement "+statementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteStatement removes a statement and its items.
func (r *PgxStatementRepository) DeleteStatement(ctx context.Context, statementID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM billing_items WHERE statement_id = $1;`, statementID); err != nil {
		return apperrors.NewAppError(500, "failed to delete items for statement "+statementID, err)
	}
	cmdTag, err := tx.Exec(ctx, `DELETE FROM billing_statements WHERE statement_id = $1;`, statementID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete statement "+statementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return r.Commit(ctx, tx)
}

func saveItemTx(ctx context.Context, tx pgx.Tx, item domain.BillingItem) error {
	query := `
		INSERT INTO billing_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (item_id) DO UPDATE
		SET description = EXCLUDED.description,
		    qty = EXCLUDED.qty,
		    unit = EXCLUDED.unit,
		    unit_price = EXCLUDED.unit_price,
		    line_total = EXCLUDED.line_total,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := tx.Exec(ctx, query,
		item.ItemID,
		item.StatementID,
		item.Description,
		item.Qty,
		item.Unit,
		item.UnitPrice,
		item.LineTotal,
		item.CreatedAt,
		item.CreatedBy,
		item.LastUpdatedAt,
		item.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save item "+item.ItemID, err)
	}
	return nil
}

// SaveItem upserts an item and recalculates the parent statement in
// the same transaction.
func (r *PgxStatementRepository) SaveItem(ctx context.Context, item domain.BillingItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := saveItemTx(ctx, tx, item); err != nil {
		return err
	}
	if _, err := recalcAndSettleTx(ctx, tx, item.StatementID); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// DeleteItem removes an item and recalculates the parent statement.
func (r *PgxStatementRepository) DeleteItem(ctx context.Context, itemID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var statementID string
	err = tx.QueryRow(ctx, `DELETE FROM billing_items WHERE item_id = $1 RETURNING statement_id;`, itemID).Scan(&statementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to delete item "+itemID, err)
	}
	if _, err := recalcAndSettleTx(ctx, tx, statementID); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// RecalculateAndSettle recomputes derived totals outside any other
// write path and returns the refreshed statement.
func (r *PgxStatementRepository) RecalculateAndSettle(ctx context.Context, statementID string) (*domain.BillingStatement, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	statement, err := recalcAndSettleTx(ctx, tx, statementID)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return statement, nil
}
