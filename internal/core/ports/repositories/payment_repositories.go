package repositories

import (
	"context"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	ClientID *string
	Status   *domain.PaymentStatus
	Method   *domain.PaymentMethod
}

// PaymentReader defines read operations for payment data.
type PaymentReader interface {
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter, limit int, offset int) ([]domain.Payment, error)
	FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error)
	FindAllocationByID(ctx context.Context, allocationID string) (*domain.PaymentAllocation, error)
	FindCreditsByClientID(ctx context.Context, clientID string) ([]domain.UnappliedCredit, error)
	FindCreditByID(ctx context.Context, creditID string) (*domain.UnappliedCredit, error)
}

// PaymentWriter defines write operations for payment data. Composite
// methods run inside one database transaction so that allocation
// changes and the statement recalculations they trigger are never
// partially visible.
type PaymentWriter interface {
	SavePayment(ctx context.Context, payment domain.Payment) error
	UpdatePayment(ctx context.Context, payment domain.Payment) error

	// ReplaceAllocations atomically swaps the payment's full allocation
	// set: deletes existing allocations, inserts the new set, replaces
	// the payment's unapplied credit (nil deletes without replacement),
	// updates remaining_unallocated, and recalculates every statement
	// touched by either the old or the new set.
	ReplaceAllocations(ctx context.Context, payment domain.Payment, allocations []domain.PaymentAllocation, credit *domain.UnappliedCredit) error

	// SaveAllocation inserts or updates a single allocation and
	// recalculates its statement and the payment remainder.
	SaveAllocation(ctx context.Context, allocation domain.PaymentAllocation) error

	// DeleteAllocation removes one allocation, recalculating its
	// (former) statement and the payment remainder.
	DeleteAllocation(ctx context.Context, allocationID string, actorID string) error

	// VoidPaymentWithRollback sets the payment void and rolls back all
	// of its allocations and credits in one transaction, recalculating
	// each affected statement.
	VoidPaymentWithRollback(ctx context.Context, payment domain.Payment) error

	// DeletePaymentCascade removes allocations (recalculating each
	// statement), dependent credits, then the payment row.
	DeletePaymentCascade(ctx context.Context, paymentID string) error

	UpdateCreditStatus(ctx context.Context, creditID string, status domain.CreditStatus, actorID string) error
}

// PaymentRepositoryFacade combines all payment repository interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
