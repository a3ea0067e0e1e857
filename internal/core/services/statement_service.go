package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/utils"
)

var (
	ErrStatementNotEditable = errors.New("issued statements cannot be edited; void and reissue instead")
	ErrNotDraft             = errors.New("only draft statements can be submitted for review")
	ErrNotIssuable          = errors.New("only draft or pending statements can be issued")
	ErrDueBeforeIssue       = errors.New("due date cannot be earlier than issue date")
	ErrStatementHasPayments = errors.New("statement has allocations and cannot be deleted")
)

// statementService governs the billing-statement lifecycle: draft →
// pending_review → issued → settled, with void reachable until
// settlement. Derived totals are recalculated by the repository in the
// same transaction as every item or allocation mutation.
type statementService struct {
	BaseService
	statementRepo  portsrepo.StatementRepositoryFacade
	engagementRepo portsrepo.EngagementReader
	clientRepo     portsrepo.ClientReader
	sequenceSvc    portssvc.SequenceSvcFacade
	renderer       portssvc.StatementRenderer
	auditor        portssvc.AuditRecorder
}

// NewStatementService creates a new StatementSvcFacade.
func NewStatementService(
	statementRepo portsrepo.StatementRepositoryFacade,
	engagementRepo portsrepo.EngagementReader,
	clientRepo portsrepo.ClientReader,
	sequenceSvc portssvc.SequenceSvcFacade,
	renderer portssvc.StatementRenderer,
	auditor portssvc.AuditRecorder,
) portssvc.StatementSvcFacade {
	return &statementService{
		statementRepo:  statementRepo,
		engagementRepo: engagementRepo,
		clientRepo:     clientRepo,
		sequenceSvc:    sequenceSvc,
		renderer:       renderer,
		auditor:        auditor,
	}
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

// CreateStatement creates a draft statement for one (client,
// engagement, period) key.
func (s *statementService) CreateStatement(ctx context.Context, req dto.CreateStatementRequest, actorID string) (*domain.BillingStatement, error) {
	if err := utils.ValidatePeriod(req.Period); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	engagement, err := s.engagementRepo.FindEngagementByID(ctx, req.EngagementID)
	if err != nil {
		return nil, fmt.Errorf("failed to find engagement %s: %w", req.EngagementID, err)
	}
	if engagement.ClientID != req.ClientID {
		return nil, fmt.Errorf("%w: engagement %s does not belong to client %s", apperrors.ErrValidation, req.EngagementID, req.ClientID)
	}

	now := time.Now().UTC()
	statement := domain.BillingStatement{
		StatementID:     uuid.NewString(),
		ClientID:        req.ClientID,
		EngagementID:    req.EngagementID,
		Period:          req.Period,
		Currency:        domain.SettlementCurrency,
		Notes:           req.Notes,
		Status:          domain.StatementDraft,
		SubTotal:        decimal.Zero,
		PaidToDate:      decimal.Zero,
		Balance:         decimal.Zero,
		IdempotencyHash: domain.StatementIdempotencyHash(req.ClientID, req.EngagementID, req.Period),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.statementRepo.CreateStatement(ctx, statement, nil); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: statement already exists for this client, engagement and period", apperrors.ErrDuplicate)
		}
		s.LogError(ctx, err, "Failed to create statement", slog.String("period", req.Period))
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}

	s.LogInfo(ctx, "Statement created", slog.String("statement_id", statement.StatementID), slog.String("period", statement.Period))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.create",
		EntityType: "BillingStatement",
		EntityID:   statement.StatementID,
	})
	return &statement, nil
}

// GetStatementByID returns a statement with its items.
func (s *statementService) GetStatementByID(ctx context.Context, statementID string) (*domain.BillingStatement, []domain.BillingItem, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find statement %s: %w", statementID, err)
	}
	items, err := s.statementRepo.FindItemsByStatementID(ctx, statementID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load items for statement %s: %w", statementID, err)
	}
	return statement, items, nil
}

// ListStatements returns statements matching the filter.
func (s *statementService) ListStatements(ctx context.Context, filter dto.StatementListFilter) ([]domain.BillingStatement, error) {
	repoFilter := portsrepo.StatementFilter{
		ClientID:     filter.ClientID,
		EngagementID: filter.EngagementID,
		Period:       filter.Period,
	}
	if filter.Status != nil {
		status := domain.StatementStatus(*filter.Status)
		repoFilter.Status = &status
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return s.statementRepo.ListStatements(ctx, repoFilter, limit, filter.Offset)
}

// UpdateStatement updates header fields of a draft or pending
// statement. Full edits of an issued statement are rejected.
func (s *statementService) UpdateStatement(ctx context.Context, statementID string, req dto.UpdateStatementRequest, actorID string) (*domain.BillingStatement, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if !statement.IsEditable() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrStatementNotEditable.Error())
	}

	updated := false
	if req.Period != nil {
		if err := utils.ValidatePeriod(*req.Period); err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		statement.Period = *req.Period
		statement.IdempotencyHash = domain.StatementIdempotencyHash(statement.ClientID, statement.EngagementID, statement.Period)
		updated = true
	}
	if req.Notes != nil {
		statement.Notes = *req.Notes
		updated = true
	}
	if !updated {
		return statement, nil
	}

	statement.LastUpdatedAt = time.Now().UTC()
	statement.LastUpdatedBy = actorID
	if err := s.statementRepo.UpdateStatementHeader(ctx, *statement); err != nil {
		return nil, fmt.Errorf("failed to update statement %s: %w", statementID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.update",
		EntityType: "BillingStatement",
		EntityID:   statementID,
	})
	return statement, nil
}

// DeleteStatement removes a draft statement with no payments applied.
func (s *statementService) DeleteStatement(ctx context.Context, statementID string, actorID string) error {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return err
	}
	if statement.Status != domain.StatementDraft {
		return fmt.Errorf("%w: only draft statements can be deleted", apperrors.ErrConflict)
	}
	if statement.PaidToDate.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrStatementHasPayments.Error())
	}

	if err := s.statementRepo.DeleteStatement(ctx, statementID); err != nil {
		return fmt.Errorf("failed to delete statement %s: %w", statementID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.delete",
		EntityType: "BillingStatement",
		EntityID:   statementID,
	})
	return nil
}

// AddItem appends a line item and synchronously recalculates totals.
func (s *statementService) AddItem(ctx context.Context, statementID string, req dto.SaveItemRequest, actorID string) (*domain.BillingItem, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if !statement.IsEditable() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrStatementNotEditable.Error())
	}
	if err := validateItem(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := domain.BillingItem{
		ItemID:      uuid.NewString(),
		StatementID: statementID,
		Description: req.Description,
		Qty:         req.Qty,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	item.ComputeLineTotal()

	if err := s.statementRepo.SaveItem(ctx, item); err != nil {
		s.LogError(ctx, err, "Failed to save billing item", slog.String("statement_id", statementID))
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.item.add",
		EntityType: "BillingItem",
		EntityID:   item.ItemID,
	})
	return &item, nil
}

// UpdateItem rewrites a line item and recalculates totals.
func (s *statementService) UpdateItem(ctx context.Context, itemID string, req dto.SaveItemRequest, actorID string) (*domain.BillingItem, error) {
	item, err := s.statementRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	statement, err := s.statementRepo.FindStatementByID(ctx, item.StatementID)
	if err != nil {
		return nil, err
	}
	if !statement.IsEditable() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrStatementNotEditable.Error())
	}
	if err := validateItem(req); err != nil {
		return nil, err
	}

	item.Description = req.Description
	item.Qty = req.Qty
	item.Unit = req.Unit
	item.UnitPrice = req.UnitPrice
	item.ComputeLineTotal()
	item.LastUpdatedAt = time.Now().UTC()
	item.LastUpdatedBy = actorID

	if err := s.statementRepo.SaveItem(ctx, *item); err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.item.update",
		EntityType: "BillingItem",
		EntityID:   itemID,
	})
	return item, nil
}

// RemoveItem deletes a line item and recalculates totals.
func (s *statementService) RemoveItem(ctx context.Context, itemID string, actorID string) error {
	item, err := s.statementRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	statement, err := s.statementRepo.FindStatementByID(ctx, item.StatementID)
	if err != nil {
		return err
	}
	if !statement.IsEditable() {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrStatementNotEditable.Error())
	}

	if err := s.statementRepo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.item.remove",
		EntityType: "BillingItem",
		EntityID:   itemID,
	})
	return nil
}

// SubmitForReview moves a draft statement to pending review.
func (s *statementService) SubmitForReview(ctx context.Context, statementID string, actorID string) (*domain.BillingStatement, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement.Status != domain.StatementDraft {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrNotDraft.Error())
	}

	now := time.Now().UTC()
	if err := s.statementRepo.UpdateStatementStatus(ctx, statementID, domain.StatementPendingReview, statement.Notes, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to submit statement %s for review: %w", statementID, err)
	}
	statement.Status = domain.StatementPendingReview
	statement.LastUpdatedAt = now
	statement.LastUpdatedBy = actorID

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.submit_for_review",
		EntityType: "BillingStatement",
		EntityID:   statementID,
	})
	return statement, nil
}

// Issue transitions a draft or pending statement to issued, assigning
// a document number from the SOA sequence when none is supplied, and
// renders the PDF artifact.
func (s *statementService) Issue(ctx context.Context, statementID string, req dto.IssueStatementRequest, actorID string) (*domain.BillingStatement, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	return s.issueOne(ctx, statement, req, actorID)
}

func (s *statementService) issueOne(ctx context.Context, statement *domain.BillingStatement, req dto.IssueStatementRequest, actorID string) (*domain.BillingStatement, error) {
	if !statement.IsIssuable() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrNotIssuable.Error())
	}

	issueDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	if req.DueDate.Before(issueDate) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrDueBeforeIssue.Error())
	}

	number := req.Number
	if number == "" {
		allocated, err := s.sequenceSvc.Next(ctx, domain.StatementSequenceCode, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain statement number: %w", err)
		}
		number = allocated
	}

	now := time.Now().UTC()
	statement.Number = number
	statement.IssueDate = &issueDate
	statement.DueDate = &req.DueDate
	statement.Status = domain.StatementIssued
	statement.LastUpdatedAt = now
	statement.LastUpdatedBy = actorID

	if err := s.statementRepo.MarkIssued(ctx, *statement); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: statement number %s already assigned", apperrors.ErrDuplicate, number)
		}
		return nil, fmt.Errorf("failed to issue statement %s: %w", statement.StatementID, err)
	}

	pdfPath, err := s.renderPDF(ctx, statement, false)
	if err != nil {
		s.LogError(ctx, err, "Failed to render statement PDF", slog.String("statement_id", statement.StatementID))
		return nil, fmt.Errorf("statement issued but PDF rendering failed: %w", err)
	}
	statement.PDFPath = pdfPath

	s.LogInfo(ctx, "Statement issued",
		slog.String("statement_id", statement.StatementID),
		slog.String("number", statement.Number))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.issue",
		EntityType: "BillingStatement",
		EntityID:   statement.StatementID,
		Metadata:   map[string]interface{}{"number": statement.Number, "pdf_path": pdfPath},
	})
	return statement, nil
}

// renderPDF renders the statement and stores the artifact reference.
func (s *statementService) renderPDF(ctx context.Context, statement *domain.BillingStatement, force bool) (string, error) {
	client, err := s.clientRepo.FindClientByID(ctx, statement.ClientID)
	if err != nil {
		return "", fmt.Errorf("failed to load client for rendering: %w", err)
	}
	engagement, err := s.engagementRepo.FindEngagementByID(ctx, statement.EngagementID)
	if err != nil {
		return "", fmt.Errorf("failed to load engagement for rendering: %w", err)
	}
	items, err := s.statementRepo.FindItemsByStatementID(ctx, statement.StatementID)
	if err != nil {
		return "", fmt.Errorf("failed to load items for rendering: %w", err)
	}

	pdfPath, err := s.renderer.RenderStatement(ctx, *statement, *client, *engagement, items, force)
	if err != nil {
		return "", err
	}

	if err := s.statementRepo.UpdatePDFPath(ctx, statement.StatementID, pdfPath, statement.LastUpdatedBy, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to store pdf path: %w", err)
	}
	return pdfPath, nil
}

// Void sets a statement void. Calling it on an already-void statement
// is a no-op. Items and allocations are retained for history.
func (s *statementService) Void(ctx context.Context, statementID string, reason string, actorID string) (*domain.BillingStatement, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement.Status == domain.StatementVoid {
		return statement, nil
	}

	now := time.Now().UTC()
	notes := domain.AppendVoidNote(statement.Notes, reason)
	if err := s.statementRepo.UpdateStatementStatus(ctx, statementID, domain.StatementVoid, notes, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to void statement %s: %w", statementID, err)
	}
	statement.Status = domain.StatementVoid
	statement.Notes = notes
	statement.LastUpdatedAt = now
	statement.LastUpdatedBy = actorID

	s.LogInfo(ctx, "Statement voided", slog.String("statement_id", statementID))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.void",
		EntityType: "BillingStatement",
		EntityID:   statementID,
		Metadata:   map[string]interface{}{"reason": reason},
	})
	return statement, nil
}

// BatchIssue issues each eligible statement independently. A failure
// is caught and reported as skipped, never aborting the batch.
func (s *statementService) BatchIssue(ctx context.Context, req dto.BatchIssueRequest, actorID string) (*dto.BatchIssueResponse, error) {
	if req.DueDate.Before(req.IssueDate) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrDueBeforeIssue.Error())
	}

	statements, err := s.statementRepo.FindStatementsByIDs(ctx, req.StatementIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load statements for batch issue: %w", err)
	}

	resp := &dto.BatchIssueResponse{Issued: []string{}, Skipped: []string{}}
	for _, id := range req.StatementIDs {
		statement, found := statements[id]
		if !found || !statement.IsIssuable() {
			resp.Skipped = append(resp.Skipped, id)
			continue
		}

		issueReq := dto.IssueStatementRequest{IssueDate: &req.IssueDate, DueDate: req.DueDate}
		if _, err := s.issueOne(ctx, &statement, issueReq, actorID); err != nil {
			s.LogWarn(ctx, "Batch issue skipped statement",
				slog.String("statement_id", id),
				slog.String("error", err.Error()))
			resp.Skipped = append(resp.Skipped, id)
			continue
		}
		resp.Issued = append(resp.Issued, id)
	}

	s.LogInfo(ctx, "Batch issue completed",
		slog.Int("issued", len(resp.Issued)),
		slog.Int("skipped", len(resp.Skipped)))
	return resp, nil
}

// RefreshPDF re-renders the artifact for an issued statement.
func (s *statementService) RefreshPDF(ctx context.Context, statementID string, actorID string) (string, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return "", err
	}
	if statement.Status != domain.StatementIssued && statement.Status != domain.StatementSettled {
		return "", fmt.Errorf("%w: only issued statements have PDFs", apperrors.ErrConflict)
	}

	statement.LastUpdatedBy = actorID
	pdfPath, err := s.renderPDF(ctx, statement, true)
	if err != nil {
		return "", fmt.Errorf("failed to refresh PDF for statement %s: %w", statementID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.refresh_pdf",
		EntityType: "BillingStatement",
		EntityID:   statementID,
		Metadata:   map[string]interface{}{"pdf_path": pdfPath},
	})
	return pdfPath, nil
}

// validateItem enforces line-item business rules.
func validateItem(req dto.SaveItemRequest) error {
	if req.Qty.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: item quantity must be positive", apperrors.ErrValidation)
	}
	if req.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price cannot be negative", apperrors.ErrValidation)
	}
	return nil
}
