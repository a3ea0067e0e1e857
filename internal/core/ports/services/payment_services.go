package services

import (
	"context"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

// PaymentSvcFacade is the payment lifecycle component. Allocation
// changes always keep the payment remainder, the unapplied credit and
// every touched statement's totals mutually consistent.
type PaymentSvcFacade interface {
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, actorID string) (*domain.Payment, error)
	GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, []domain.PaymentAllocation, error)
	ListPayments(ctx context.Context, filter dto.PaymentListFilter) ([]domain.Payment, error)
	UpdatePayment(ctx context.Context, paymentID string, req dto.UpdatePaymentRequest, actorID string) (*domain.Payment, error)

	MarkPosted(ctx context.Context, paymentID string, actorID string) (*domain.Payment, error)
	MarkVerified(ctx context.Context, paymentID string, actorID string) (*domain.Payment, error)
	Void(ctx context.Context, paymentID string, reason string, actorID string) (*domain.Payment, error)
	Allocate(ctx context.Context, paymentID string, req dto.AllocateRequest, actorID string) (*domain.Payment, error)
	SaveAllocation(ctx context.Context, paymentID string, input dto.AllocationInput, allocationID *string, actorID string) (*domain.PaymentAllocation, error)
	RemoveAllocation(ctx context.Context, allocationID string, actorID string) error
	DeleteWithCascadeCleanup(ctx context.Context, paymentID string, actorID string) error

	ListCreditsByClient(ctx context.Context, clientID string) ([]domain.UnappliedCredit, error)
	MarkCreditApplied(ctx context.Context, creditID string, actorID string) (*domain.UnappliedCredit, error)
	MarkCreditRefunded(ctx context.Context, creditID string, actorID string) (*domain.UnappliedCredit, error)
}
