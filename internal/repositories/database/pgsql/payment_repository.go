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

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment,
// allocation and credit data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, client_id, payment_date, amount_received, currency, method, manual_invoice_no, reference_no, notes, status, recorded_by, verified_by, verified_at, remaining_unallocated, created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.PaymentID,
		&p.ClientID,
		&p.PaymentDate,
		&p.AmountReceived,
		&p.Currency,
		&p.Method,
		&p.ManualInvoiceNo,
		&p.ReferenceNo,
		&p.Notes,
		&p.Status,
		&p.RecordedBy,
		&p.VerifiedBy,
		&p.VerifiedAt,
		&p.RemainingUnallocated,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePayment inserts a new payment row.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.Pool.Exec(ctx, query,
		payment.PaymentID,
		payment.ClientID,
		payment.PaymentDate,
		payment.AmountReceived,
		payment.Currency,
		payment.Method,
		payment.ManualInvoiceNo,
		payment.ReferenceNo,
		payment.Notes,
		payment.Status,
		payment.RecordedBy,
		payment.VerifiedBy,
		payment.VerifiedAt,
		payment.RemainingUnallocated,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert payment "+payment.PaymentID, err)
	}
	return nil
}

// FindPaymentByID retrieves a payment by its ID.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1;`
	payment, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find payment by ID "+paymentID, err)
	}
	return payment, nil
}

// ListPayments retrieves payments matching the filter, newest first.
func (r *PgxPaymentRepository) ListPayments(ctx context.Context, filter portsrepo.PaymentFilter, limit int, offset int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []interface{}{}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		query += ` AND client_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Method != nil {
		args = append(args, *filter.Method)
		query += ` AND method = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY payment_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan payment row", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating payment rows", err)
	}
	return payments, nil
}

// UpdatePayment rewrites the mutable payment fields.
func (r *PgxPaymentRepository) UpdatePayment(ctx context.Context, payment domain.Payment) error {
	query := `
		UPDATE payments
		SET payment_date = $2,
		    method = $3,
		    reference_no = $4,
		    notes = $5,
		    status = $6,
		    verified_by = $7,
		    verified_at = $8,
		    remaining_unallocated = $9,
		    last_updated_at = $10,
		    last_updated_by = $11
		WHERE payment_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		payment.PaymentID,
		payment.PaymentDate,
		payment.Method,
		payment.ReferenceNo,
		payment.Notes,
		payment.Status,
		payment.VerifiedBy,
		payment.VerifiedAt,
		payment.RemainingUnallocated,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update payment "+payment.PaymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const allocationColumns = `allocation_id, payment_id, statement_id, amount_applied, created_at, created_by, last_updated_at, last_updated_by`

func scanAllocation(row pgx.Row) (*domain.PaymentAllocation, error) {
	var a domain.PaymentAllocation
	err := row.Scan(
		&a.AllocationID,
		&a.PaymentID,
		&a.StatementID,
		&a.AmountApplied,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAllocationsByPaymentID retrieves a payment's allocations.
func (r *PgxPaymentRepository) FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM payment_allocations WHERE payment_id = $1 ORDER BY created_at, allocation_id;`
	rows, err := r.Pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query allocations for payment "+paymentID, err)
	}
	defer rows.Close()

	allocations := []domain.PaymentAllocation{}
	for rows.Next() {
		allocation, err := scanAllocation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan allocation row", err)
		}
		allocations = append(allocations, *allocation)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating allocation rows", err)
	}
	return allocations, nil
}

// FindAllocationByID retrieves a single allocation.
func (r *PgxPaymentRepository) FindAllocationByID(ctx context.Context, allocationID string) (*domain.PaymentAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM payment_allocations WHERE allocation_id = $1;`
	allocation, err := scanAllocation(r.Pool.QueryRow(ctx, query, allocationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find allocation by ID "+allocationID, err)
	}
	return allocation, nil
}

// statementIDsForPayment collects the statements the payment currently
// touches, for transactional recalculation.
func statementIDsForPayment(ctx context.Context, tx pgx.Tx, paymentID string) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT statement_id FROM payment_allocations WHERE payment_id = $1 FOR UPDATE;`, paymentID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query allocated statements for payment "+paymentID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan statement id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating statement ids", err)
	}
	return ids, nil
}

// ReplaceAllocations atomically swaps the payment's full allocation set
// and its leftover credit, recalculating every statement touched by
// either the old or the new set.
func (r *PgxPaymentRepository) ReplaceAllocations(ctx context.Context, payment domain.Payment, allocations []domain.PaymentAllocation, credit *domain.UnappliedCredit) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	oldIDs, err := statementIDsForPayment(ctx, tx, payment.PaymentID)
	if err != nil {
		return err
	}
	touched := make(map[string]bool, len(oldIDs)+len(allocations))
	for _, id := range oldIDs {
		touched[id] = true
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payment_allocations WHERE payment_id = $1;`, payment.PaymentID); err != nil {
		return apperrors.NewAppError(500, "failed to clear allocations for payment "+payment.PaymentID, err)
	}

	batch := &pgx.Batch{}
	insertQuery := `
		INSERT INTO payment_allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, allocation := range allocations {
		touched[allocation.StatementID] = true
		batch.Queue(insertQuery,
			allocation.AllocationID,
			allocation.PaymentID,
			allocation.StatementID,
			allocation.AmountApplied,
			allocation.CreatedAt,
			allocation.CreatedBy,
			allocation.LastUpdatedAt,
			allocation.LastUpdatedBy,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert allocations for payment "+payment.PaymentID, err)
		}
	}

	// Replace the remainder credit: only the open one sourced from this
	// payment, flips to applied/refunded are history and stay.
	if _, err := tx.Exec(ctx, `DELETE FROM unapplied_credits WHERE source_payment_id = $1 AND status = 'open';`, payment.PaymentID); err != nil {
		return apperrors.NewAppError(500, "failed to clear open credits for payment "+payment.PaymentID, err)
	}
	if credit != nil {
		if err := insertCreditTx(ctx, tx, *credit); err != nil {
			return err
		}
	}

	if err := updateRemainderTx(ctx, tx, payment); err != nil {
		return err
	}

	for statementID := range touched {
		if _, err := recalcAndSettleTx(ctx, tx, statementID); err != nil {
			return err
		}
	}
	return r.Commit(ctx, tx)
}

func insertCreditTx(ctx context.Context, tx pgx.Tx, credit domain.UnappliedCredit) error {
	query := `
		INSERT INTO unapplied_credits (credit_id, client_id, source_payment_id, amount, reason, status, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := tx.Exec(ctx, query,
		credit.CreditID,
		credit.ClientID,
		credit.SourcePaymentID,
		credit.Amount,
		credit.Reason,
		credit.Status,
		credit.CreatedAt,
		credit.CreatedBy,
		credit.LastUpdatedAt,
		credit.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert credit "+credit.CreditID, err)
	}
	return nil
}

func updateRemainderTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	query := `
		UPDATE payments
		SET remaining_unallocated = $2,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE payment_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, payment.PaymentID, payment.RemainingUnallocated, payment.LastUpdatedAt, payment.LastUpdatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update remainder for payment "+payment.PaymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveAllocation upserts a single allocation, then refreshes the
// payment remainder and the statement totals in the same transaction.
func (r *PgxPaymentRepository) SaveAllocation(ctx context.Context, allocation domain.PaymentAllocation) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// An update may move the allocation to a different statement; both
	// sides need recalculation.
	var previousStatementID *string
	err = tx.QueryRow(ctx, `SELECT statement_id FROM payment_allocations WHERE allocation_id = $1 FOR UPDATE;`, allocation.AllocationID).Scan(&previousStatementID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewAppError(500, "failed to lock allocation "+allocation.AllocationID, err)
	}

	query := `
		INSERT INTO payment_allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (allocation_id) DO UPDATE
		SET statement_id = EXCLUDED.statement_id,
		    amount_applied = EXCLUDED.amount_applied,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err = tx.Exec(ctx, query,
		allocation.AllocationID,
		allocation.PaymentID,
		allocation.StatementID,
		allocation.AmountApplied,
		allocation.CreatedAt,
		allocation.CreatedBy,
		allocation.LastUpdatedAt,
		allocation.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to save allocation "+allocation.AllocationID, err)
	}

	if err := syncPaymentRemainderTx(ctx, tx, allocation.PaymentID, allocation.LastUpdatedBy, allocation.LastUpdatedAt); err != nil {
		return err
	}
	if previousStatementID != nil && *previousStatementID != allocation.StatementID {
		if _, err := recalcAndSettleTx(ctx, tx, *previousStatementID); err != nil {
			return err
		}
	}
	if _, err := recalcAndSettleTx(ctx, tx, allocation.StatementID); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// syncPaymentRemainderTx recomputes remaining_unallocated from the
// stored allocation rows.
func syncPaymentRemainderTx(ctx context.Context, tx pgx.Tx, paymentID string, actorID string, at time.Time) error {
	query := `
		UPDATE payments p
		SET remaining_unallocated = p.amount_received - COALESCE((SELECT SUM(amount_applied) FROM payment_allocations WHERE payment_id = $1), 0),
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE p.payment_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, paymentID, at, actorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to sync remainder for payment "+paymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteAllocation removes one allocation, returning its amount to the
// payment remainder and recalculating the statement it pointed at.
func (r *PgxPaymentRepository) DeleteAllocation(ctx context.Context, allocationID string, actorID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var paymentID, statementID string
	err = tx.QueryRow(ctx, `DELETE FROM payment_allocations WHERE allocation_id = $1 RETURNING payment_id, statement_id;`, allocationID).
		Scan(&paymentID, &statementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to delete allocation "+allocationID, err)
	}

	if err := syncPaymentRemainderTx(ctx, tx, paymentID, actorID, time.Now().UTC()); err != nil {
		return err
	}
	if _, err := recalcAndSettleTx(ctx, tx, statementID); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// VoidPaymentWithRollback sets the payment void and unwinds its
// financial effect in one transaction.
func (r *PgxPaymentRepository) VoidPaymentWithRollback(ctx context.Context, payment domain.Payment) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	statementIDs, err := statementIDsForPayment(ctx, tx, payment.PaymentID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payment_allocations WHERE payment_id = $1;`, payment.PaymentID); err != nil {
		return apperrors.NewAppError(500, "failed to roll back allocations for payment "+payment.PaymentID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM unapplied_credits WHERE source_payment_id = $1 AND status = 'open';`, payment.PaymentID); err != nil {
		return apperrors.NewAppError(500, "failed to roll back credits for payment "+payment.PaymentID, err)
	}

	query := `
		UPDATE payments
		SET status = $2,
		    notes = $3,
		    remaining_unallocated = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE payment_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		payment.PaymentID,
		payment.Status,
		payment.Notes,
		payment.RemainingUnallocated,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to void payment "+payment.PaymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	for _, statementID := range statementIDs {
		if _, err := recalcAndSettleTx(ctx, tx, statementID); err != nil {
			return err
		}
	}
	return r.Commit(ctx, tx)
}

// DeletePaymentCascade removes allocations, dependent credits and then
// the payment row, recalculating each touched statement.
func (r *PgxPaymentRepository) DeletePaymentCascade(ctx context.Context, paymentID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	statementIDs, err := statementIDsForPayment(ctx, tx, paymentID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payment_allocations WHERE payment_id = $1;`, paymentID); err != nil {
		return apperrors.NewAppError(500, "failed to delete allocations for payment "+paymentID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM unapplied_credits WHERE source_payment_id = $1;`, paymentID); err != nil {
		return apperrors.NewAppError(500, "failed to delete credits for payment "+paymentID, err)
	}
	cmdTag, err := tx.Exec(ctx, `DELETE FROM payments WHERE payment_id = $1;`, paymentID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete payment "+paymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	for _, statementID := range statementIDs {
		if _, err := recalcAndSettleTx(ctx, tx, statementID); err != nil {
			return err
		}
	}
	return r.Commit(ctx, tx)
}

const creditColumns = `credit_id, client_id, source_payment_id, amount, reason, status, created_at, created_by, last_updated_at, last_updated_by`

func scanCredit(row pgx.Row) (*domain.UnappliedCredit, error) {
	var c domain.UnappliedCredit
	err := row.Scan(
		&c.CreditID,
		&c.ClientID,
		&c.SourcePaymentID,
		&c.Amount,
		&c.Reason,
		&c.Status,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindCreditsByClientID retrieves a client's credits, newest first.
func (r *PgxPaymentRepository) FindCreditsByClientID(ctx context.Context, clientID string) ([]domain.UnappliedCredit, error) {
	query := `SELECT ` + creditColumns + ` FROM unapplied_credits WHERE client_id = $1 ORDER BY created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query credits for client "+clientID, err)
	}
	defer rows.Close()

	credits := []domain.UnappliedCredit{}
	for rows.Next() {
		credit, err := scanCredit(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan credit row", err)
		}
		credits = append(credits, *credit)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating credit rows", err)
	}
	return credits, nil
}

// FindCreditByID retrieves a single credit.
func (r *PgxPaymentRepository) FindCreditByID(ctx context.Context, creditID string) (*domain.UnappliedCredit, error) {
	query := `SELECT ` + creditColumns + ` FROM unapplied_credits WHERE credit_id = $1;`
	credit, err := scanCredit(r.Pool.QueryRow(ctx, query, creditID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find credit by ID "+creditID, err)
	}
	return credit, nil
}

// UpdateCreditStatus flips a credit's lifecycle state.
func (r *PgxPaymentRepository) UpdateCreditStatus(ctx context.Context, creditID string, status domain.CreditStatus, actorID string) error {
	query := `
		UPDATE unapplied_credits
		SET status = $2,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE credit_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, creditID, status, time.Now().UTC(), actorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update credit "+creditID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
