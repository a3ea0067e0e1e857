package services

import (
	"context"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

// StatementSvcFacade is the statement lifecycle component. All
// mutations validate state transitions before persisting and keep the
// derived totals consistent.
type StatementSvcFacade interface {
	CreateStatement(ctx context.Context, req dto.CreateStatementRequest, actorID string) (*domain.BillingStatement, error)
	GetStatementByID(ctx context.Context, statementID string) (*domain.BillingStatement, []domain.BillingItem, error)
	ListStatements(ctx context.Context, filter dto.StatementListFilter) ([]domain.BillingStatement, error)
	UpdateStatement(ctx context.Context, statementID string, req dto.UpdateStatementRequest, actorID string) (*domain.BillingStatement, error)
	DeleteStatement(ctx context.Context, statementID string, actorID string) error

	AddItem(ctx context.Context, statementID string, req dto.SaveItemRequest, actorID string) (*domain.BillingItem, error)
	UpdateItem(ctx context.Context, itemID string, req dto.SaveItemRequest, actorID string) (*domain.BillingItem, error)
	RemoveItem(ctx context.Context, itemID string, actorID string) error

	SubmitForReview(ctx context.Context, statementID string, actorID string) (*domain.BillingStatement, error)
	Issue(ctx context.Context, statementID string, req dto.IssueStatementRequest, actorID string) (*domain.BillingStatement, error)
	Void(ctx context.Context, statementID string, reason string, actorID string) (*domain.BillingStatement, error)
	BatchIssue(ctx context.Context, req dto.BatchIssueRequest, actorID string) (*dto.BatchIssueResponse, error)
	RefreshPDF(ctx context.Context, statementID string, actorID string) (string, error)
}
