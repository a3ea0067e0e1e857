package repositories

import (
	"context"
	"time"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// StatementFilter narrows statement listings.
type StatementFilter struct {
	ClientID     *string
	EngagementID *string
	Status       *domain.StatementStatus
	Period       *string
}

// StatementReader defines read operations for statement data.
type StatementReader interface {
	FindStatementByID(ctx context.Context, statementID string) (*domain.BillingStatement, error)
	FindStatementsByIDs(ctx context.Context, statementIDs []string) (map[string]domain.BillingStatement, error)
	ListStatements(ctx context.Context, filter StatementFilter, limit int, offset int) ([]domain.BillingStatement, error)
	FindItemsByStatementID(ctx context.Context, statementID string) ([]domain.BillingItem, error)
	FindItemByID(ctx context.Context, itemID string) (*domain.BillingItem, error)
}

// StatementWriter defines write operations for statement data. Every
// item mutation recalculates the parent statement's derived totals and
// re-evaluates settlement inside the same database transaction.
type StatementWriter interface {
	// CreateStatement inserts a draft statement, optionally together
	// with its first item, and recalculates totals atomically.
	// Returns apperrors.ErrDuplicate for an existing
	// (client, engagement, period) key.
	CreateStatement(ctx context.Context, statement domain.BillingStatement, item *domain.BillingItem) error

	// UpdateStatementHeader updates the mutable header fields
	// (period, notes, currency) of a draft or pending statement.
	UpdateStatementHeader(ctx context.Context, statement domain.BillingStatement) error

	// UpdateStatementStatus transitions status and stamps the actor.
	UpdateStatementStatus(ctx context.Context, statementID string, status domain.StatementStatus, notes string, actorID string, at time.Time) error

	// MarkIssued sets number, dates, pdf path and issued status in one
	// update. Returns apperrors.ErrDuplicate for a duplicate number.
	MarkIssued(ctx context.Context, statement domain.BillingStatement) error

	// UpdatePDFPath stores the rendered artifact reference.
	UpdatePDFPath(ctx context.Context, statementID string, pdfPath string, actorID string, at time.Time) error

	// DeleteStatement removes a draft statement and its items.
	DeleteStatement(ctx context.Context, statementID string) error

	// SaveItem inserts or updates an item and synchronously
	// recalculates the parent statement in the same transaction.
	SaveItem(ctx context.Context, item domain.BillingItem) error

	// DeleteItem removes an item and recalculates the parent.
	DeleteItem(ctx context.Context, itemID string) error

	// RecalculateAndSettle recomputes sub_total, paid_to_date and
	// balance from child rows and applies the settled/issued toggle.
	RecalculateAndSettle(ctx context.Context, statementID string) (*domain.BillingStatement, error)
}

// StatementRepositoryFacade combines all statement repository interfaces.
type StatementRepositoryFacade interface {
	StatementReader
	StatementWriter
}
