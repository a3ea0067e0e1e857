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
)

// UnallocatedRemainderReason labels credits generated from an allocate
// remainder.
const UnallocatedRemainderReason = "Unallocated remainder"

var (
	ErrPaymentVoided        = errors.New("payment is void")
	ErrOverAllocated        = errors.New("allocations exceed the payment amount")
	ErrCreditNotOpen        = errors.New("only open credits can change status")
	ErrForeignStatement     = errors.New("statement belongs to a different client")
	ErrDuplicateAllocTarget = errors.New("a statement may appear at most once per allocation set")
)

// paymentService is the payment lifecycle component. All allocation
// mutations go through composite repository methods so a payment's
// remainder, its credit and the touched statements move together.
type paymentService struct {
	BaseService
	paymentRepo   portsrepo.PaymentRepositoryFacade
	statementRepo portsrepo.StatementReader
	auditor       portssvc.AuditRecorder
}

// NewPaymentService creates a new PaymentSvcFacade.
func NewPaymentService(
	paymentRepo portsrepo.PaymentRepositoryFacade,
	statementRepo portsrepo.StatementReader,
	auditor portssvc.AuditRecorder,
) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo:   paymentRepo,
		statementRepo: statementRepo,
		auditor:       auditor,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// CreatePayment records a received payment, posted immediately unless
// the caller asks for a draft. The full amount starts unallocated.
func (s *paymentService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, actorID string) (*domain.Payment, error) {
	if req.AmountReceived.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if !domain.ValidPaymentMethod(req.Method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, req.Method)
	}

	status := domain.PaymentPosted
	if req.Draft {
		status = domain.PaymentDraft
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:            uuid.NewString(),
		ClientID:             req.ClientID,
		PaymentDate:          req.PaymentDate,
		AmountReceived:       req.AmountReceived,
		Currency:             domain.SettlementCurrency,
		Method:               req.Method,
		ManualInvoiceNo:      req.ManualInvoiceNo,
		ReferenceNo:          req.ReferenceNo,
		Notes:                req.Notes,
		Status:               status,
		RecordedBy:           actorID,
		RemainingUnallocated: req.AmountReceived,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
		s.LogError(ctx, err, "Failed to save payment", slog.String("client_id", req.ClientID))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.LogInfo(ctx, "Payment recorded",
		slog.String("payment_id", payment.PaymentID),
		slog.String("amount", payment.AmountReceived.String()))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.create",
		EntityType: "Payment",
		EntityID:   payment.PaymentID,
		Metadata:   map[string]interface{}{"amount": payment.AmountReceived.String()},
	})
	return &payment, nil
}

// GetPaymentByID returns a payment with its allocations.
func (s *paymentService) GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, []domain.PaymentAllocation, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	allocations, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load allocations for payment %s: %w", paymentID, err)
	}
	return payment, allocations, nil
}

// ListPayments returns payments matching the filter.
func (s *paymentService) ListPayments(ctx context.Context, filter dto.PaymentListFilter) ([]domain.Payment, error) {
	repoFilter := portsrepo.PaymentFilter{ClientID: filter.ClientID}
	if filter.Status != nil {
		status := domain.PaymentStatus(*filter.Status)
		repoFilter.Status = &status
	}
	if filter.Method != nil {
		method := domain.PaymentMethod(*filter.Method)
		repoFilter.Method = &method
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return s.paymentRepo.ListPayments(ctx, repoFilter, limit, filter.Offset)
}

// UpdatePayment updates editable payment fields. The amount and the
// client are immutable after creation; void a payment and record a new
// one to correct those.
func (s *paymentService) UpdatePayment(ctx context.Context, paymentID string, req dto.UpdatePaymentRequest, actorID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentVoid {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrPaymentVoided.Error())
	}

	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}
	if req.Method != nil {
		if !domain.ValidPaymentMethod(*req.Method) {
			return nil, fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, *req.Method)
		}
		payment.Method = *req.Method
	}
	if req.ReferenceNo != nil {
		payment.ReferenceNo = *req.ReferenceNo
	}
	if req.Notes != nil {
		payment.Notes = *req.Notes
	}
	payment.LastUpdatedAt = time.Now().UTC()
	payment.LastUpdatedBy = actorID

	if err := s.paymentRepo.UpdatePayment(ctx, *payment); err != nil {
		return nil, fmt.Errorf("failed to update payment %s: %w", paymentID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.update",
		EntityType: "Payment",
		EntityID:   paymentID,
	})
	return payment, nil
}

// MarkPosted moves a draft payment to posted. Posting an
// already-posted payment is a no-op.
func (s *paymentService) MarkPosted(ctx context.Context, paymentID string, actorID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentPosted {
		return payment, nil
	}
	if payment.Status != domain.PaymentDraft {
		return nil, fmt.Errorf("%w: only draft payments can be posted", apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	payment.Status = domain.PaymentPosted
	payment.LastUpdatedAt = now
	payment.LastUpdatedBy = actorID

	if err := s.paymentRepo.UpdatePayment(ctx, *payment); err != nil {
		return nil, fmt.Errorf("failed to post payment %s: %w", paymentID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.post",
		EntityType: "Payment",
		EntityID:   paymentID,
	})
	return payment, nil
}

// MarkVerified stamps the verifier on a posted payment. Verifying an
// already-verified payment is a no-op.
func (s *paymentService) MarkVerified(ctx context.Context, paymentID string, actorID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentVerified {
		return payment, nil
	}
	if payment.Status != domain.PaymentPosted {
		return nil, fmt.Errorf("%w: only posted payments can be verified", apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	payment.Status = domain.PaymentVerified
	payment.VerifiedBy = &actorID
	payment.VerifiedAt = &now
	payment.LastUpdatedAt = now
	payment.LastUpdatedBy = actorID

	if err := s.paymentRepo.UpdatePayment(ctx, *payment); err != nil {
		return nil, fmt.Errorf("failed to verify payment %s: %w", paymentID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.verify",
		EntityType: "Payment",
		EntityID:   paymentID,
	})
	return payment, nil
}

/// Void marks a payment void and rolls back its financial effect:
// allocations are removed, affected statements recalculated and
// leftover credits cancelled. Voiding a void payment is a no-op.
func (s *paymentService) Void(ctx context.Context, paymentID string, reason string, actorID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentVoid {
		return payment, nil
	}

	// Rollback deletes every allocation, so the derived remainder
	// returns to the full received amount.
	now := time.Now().UTC()
	payment.Status = domain.PaymentVoid
	payment.Notes = domain.AppendVoidNote(payment.Notes, reason)
	payment.RemainingUnallocated = payment.AmountReceived
	payment.LastUpdatedAt = now
	payment.LastUpdatedBy = actorID

	if err := s.paymentRepo.VoidPaymentWithRollback(ctx, *payment); err != nil {
		s.LogError(ctx, err, "Failed to void payment", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to void payment %s: %w", paymentID, err)
	}

	s.LogInfo(ctx, "Payment voided", slog.String("payment_id", paymentID))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.void",
		EntityType: "Payment",
		EntityID:   paymentID,
		Metadata:   map[string]interface{}{"reason": reason},
	})
	return payment, nil
}

// Allocate replaces the payment's full allocation set. The sum of the
// new set may not exceed the amount received; any remainder becomes an
// open unapplied credit replacing the previous one.
func (s *paymentService) Allocate(ctx context.Context, paymentID string, req dto.AllocateRequest, actorID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentVoid {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrPaymentVoided.Error())
	}

	now := time.Now().UTC()
	total := decimal.Zero
	seen := make(map[string]bool, len(req.Allocations))
	allocations := make([]domain.PaymentAllocation, 0, len(req.Allocations))
	for _, input := range req.Allocations {
		if input.AmountApplied.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: allocation amount must be positive", apperrors.ErrValidation)
		}
		if seen[input.StatementID] {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrDuplicateAllocTarget.Error())
		}
		seen[input.StatementID] = true

		statement, err := s.statementRepo.FindStatementByID(ctx, input.StatementID)
		if err != nil {
			return nil, fmt.Errorf("failed to find statement %s: %w", input.StatementID, err)
		}
		if statement.ClientID != payment.ClientID {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrForeignStatement.Error())
		}
		if statement.Status == domain.StatementVoid {
			return nil, fmt.Errorf("%w: statement %s is void", apperrors.ErrValidation, input.StatementID)
		}

		total = total.Add(input.AmountApplied)
		allocations = append(allocations, domain.PaymentAllocation{
			AllocationID:  uuid.NewString(),
			PaymentID:     paymentID,
			StatementID:   input.StatementID,
			AmountApplied: input.AmountApplied,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		})
	}

	if total.GreaterThan(payment.AmountReceived) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrOverAllocated.Error())
	}

	remainder := payment.AmountReceived.Sub(total)
	var credit *domain.UnappliedCredit
	if remainder.GreaterThan(decimal.Zero) {
		credit = &domain.UnappliedCredit{
			CreditID:        uuid.NewString(),
			ClientID:        payment.ClientID,
			SourcePaymentID: paymentID,
			Amount:          remainder,
			Reason:          UnallocatedRemainderReason,
			Status:          domain.CreditOpen,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}
	}

	payment.RemainingUnallocated = remainder
	payment.LastUpdatedAt = now
	payment.LastUpdatedBy = actorID

	if err := s.paymentRepo.ReplaceAllocations(ctx, *payment, allocations, credit); err != nil {
		s.LogError(ctx, err, "Failed to replace allocations", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to allocate payment %s: %w", paymentID, err)
	}

	s.LogInfo(ctx, "Payment allocated",
		slog.String("payment_id", paymentID),
		slog.Int("allocations", len(allocations)),
		slog.String("remainder", remainder.String()))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.allocate",
		EntityType: "Payment",
		EntityID:   paymentID,
		Metadata: map[string]interface{}{
			"allocated": total.String(),
			"remainder": remainder.String(),
		},
	})
	return payment, nil
}

// SaveAllocation inserts or resizes one allocation without touching
// the rest of the set. A resize may grow by at most the payment's
// current remainder plus the allocation's own previous amount.
func (s *paymentService) SaveAllocation(ctx context.Context, paymentID string, input dto.AllocationInput, allocationID *string, actorID string) (*domain.PaymentAllocation, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentVoid {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrPaymentVoided.Error())
	}
	if input.AmountApplied.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: allocation amount must be positive", apperrors.ErrValidation)
	}

	statement, err := s.statementRepo.FindStatementByID(ctx, input.StatementID)
	if err != nil {
		return nil, fmt.Errorf("failed to find statement %s: %w", input.StatementID, err)
	}
	if statement.ClientID != payment.ClientID {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrForeignStatement.Error())
	}
	if statement.Status == domain.StatementVoid {
		return nil, fmt.Errorf("%w: statement %s is void", apperrors.ErrValidation, input.StatementID)
	}

	available := payment.RemainingUnallocated
	now := time.Now().UTC()
	var allocation domain.PaymentAllocation
	if allocationID != nil {
		existing, err := s.paymentRepo.FindAllocationByID(ctx, *allocationID)
		if err != nil {
			return nil, err
		}
		if existing.PaymentID != paymentID {
			return nil, fmt.Errorf("%w: allocation %s does not belong to payment %s", apperrors.ErrValidation, *allocationID, paymentID)
		}
		available = available.Add(existing.AmountApplied)
		allocation = *existing
		allocation.StatementID = input.StatementID
		allocation.AmountApplied = input.AmountApplied
	} else {
		allocation = domain.PaymentAllocation{
			AllocationID:  uuid.NewString(),
			PaymentID:     paymentID,
			StatementID:   input.StatementID,
			AmountApplied: input.AmountApplied,
			AuditFields: domain.AuditFields{
				CreatedAt: now,
				CreatedBy: actorID,
			},
		}
	}
	if input.AmountApplied.GreaterThan(available) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrOverAllocated.Error())
	}
	allocation.LastUpdatedAt = now
	allocation.LastUpdatedBy = actorID

	if err := s.paymentRepo.SaveAllocation(ctx, allocation); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: payment already has an allocation to statement %s", apperrors.ErrDuplicate, input.StatementID)
		}
		return nil, fmt.Errorf("failed to save allocation: %w", err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.allocation.save",
		EntityType: "PaymentAllocation",
		EntityID:   allocation.AllocationID,
		Metadata:   map[string]interface{}{"amount": allocation.AmountApplied.String()},
	})
	return &allocation, nil
}

// RemoveAllocation deletes one allocation, returning its amount to the
// payment's remainder.
func (s *paymentService) RemoveAllocation(ctx context.Context, allocationID string, actorID string) error {
	allocation, err := s.paymentRepo.FindAllocationByID(ctx, allocationID)
	if err != nil {
		return err
	}

	if err := s.paymentRepo.DeleteAllocation(ctx, allocationID, actorID); err != nil {
		return fmt.Errorf("failed to delete allocation %s: %w", allocationID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.allocation.remove",
		EntityType: "PaymentAllocation",
		EntityID:   allocationID,
		Metadata:   map[string]interface{}{"payment_id": allocation.PaymentID},
	})
	return nil
}

// DeleteWithCascadeCleanup hard-deletes a payment and everything
// hanging off it: allocations go first with statement recalculation,
// then dependent credits, then the payment itself.
func (s *paymentService) DeleteWithCascadeCleanup(ctx context.Context, paymentID string, actorID string) error {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return err
	}

	if err := s.paymentRepo.DeletePaymentCascade(ctx, paymentID); err != nil {
		s.LogError(ctx, err, "Failed to delete payment", slog.String("payment_id", paymentID))
		return fmt.Errorf("failed to delete payment %s: %w", paymentID, err)
	}

	s.LogInfo(ctx, "Payment deleted", slog.String("payment_id", paymentID))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "payment.delete",
		EntityType: "Payment",
		EntityID:   paymentID,
		Before: map[string]interface{}{
			"amount": payment.AmountReceived.String(),
			"status": string(payment.Status),
		},
	})
	return nil
}

// ListCreditsByClient returns a client's unapplied credits.
func (s *paymentService) ListCreditsByClient(ctx context.Context, clientID string) ([]domain.UnappliedCredit, error) {
	return s.paymentRepo.FindCreditsByClientID(ctx, clientID)
}

// MarkCreditApplied flips an open credit to applied.
func (s *paymentService) MarkCreditApplied(ctx context.Context, creditID string, actorID string) (*domain.UnappliedCredit, error) {
	return s.transitionCredit(ctx, creditID, domain.CreditApplied, actorID)
}

// MarkCreditRefunded flips an open credit to refunded.
func (s *paymentService) MarkCreditRefunded(ctx context.Context, creditID string, actorID string) (*domain.UnappliedCredit, error) {
	return s.transitionCredit(ctx, creditID, domain.CreditRefunded, actorID)
}

func (s *paymentService) transitionCredit(ctx context.Context, creditID string, target domain.CreditStatus, actorID string) (*domain.UnappliedCredit, error) {
	credit, err := s.paymentRepo.FindCreditByID(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if credit.Status == target {
		return credit, nil
	}
	if credit.Status != domain.CreditOpen {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrCreditNotOpen.Error())
	}

	if err := s.paymentRepo.UpdateCreditStatus(ctx, creditID, target, actorID); err != nil {
		return nil, fmt.Errorf("failed to update credit %s: %w", creditID, err)
	}
	credit.Status = target
	credit.LastUpdatedAt = time.Now().UTC()
	credit.LastUpdatedBy = actorID

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "credit." + string(target),
		EntityType: "UnappliedCredit",
		EntityID:   creditID,
	})
	return credit, nil
}
