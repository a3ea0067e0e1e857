package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// CreatePaymentRequest records a received payment.
type CreatePaymentRequest struct {
	ClientID        string               `json:"clientID" binding:"required"`
	PaymentDate     time.Time            `json:"paymentDate" binding:"required"`
	AmountReceived  decimal.Decimal      `json:"amountReceived" binding:"required"`
	Method          domain.PaymentMethod `json:"method" binding:"required"`
	ManualInvoiceNo string               `json:"manualInvoiceNo" binding:"required"`
	ReferenceNo     string               `json:"referenceNo"`
	Notes           string               `json:"notes"`
	Draft           bool                 `json:"draft"` // record as draft instead of posting immediately
}

// UpdatePaymentRequest carries optional payment field updates.
type UpdatePaymentRequest struct {
	PaymentDate *time.Time            `json:"paymentDate,omitempty"`
	Method      *domain.PaymentMethod `json:"method,omitempty"`
	ReferenceNo *string               `json:"referenceNo,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
}

// PaymentListFilter narrows payment listings.
type PaymentListFilter struct {
	ClientID *string `form:"clientID"`
	Status   *string `form:"status"`
	Method   *string `form:"method"`
	Limit    int     `form:"limit"`
	Offset   int     `form:"offset"`
}

// AllocationInput is one (statement, amount) pair of an allocate call.
type AllocationInput struct {
	StatementID   string          `json:"statementID" binding:"required"`
	AmountApplied decimal.Decimal `json:"amountApplied" binding:"required"`
}

// AllocateRequest replaces a payment's full allocation set.
type AllocateRequest struct {
	Allocations []AllocationInput `json:"allocations" binding:"required"`
}

// AllocationResponse is the API shape of a payment allocation.
type AllocationResponse struct {
	AllocationID  string          `json:"allocationID"`
	PaymentID     string          `json:"paymentID"`
	StatementID   string          `json:"statementID"`
	AmountApplied decimal.Decimal `json:"amountApplied"`
}

// PaymentResponse is the API shape of a payment.
type PaymentResponse struct {
	PaymentID            string               `json:"paymentID"`
	ClientID             string               `json:"clientID"`
	PaymentDate          time.Time            `json:"paymentDate"`
	AmountReceived       decimal.Decimal      `json:"amountReceived"`
	Currency             string               `json:"currency"`
	Method               string               `json:"method"`
	ManualInvoiceNo      string               `json:"manualInvoiceNo"`
	ReferenceNo          string               `json:"referenceNo"`
	Notes                string               `json:"notes"`
	Status               string               `json:"status"`
	RecordedBy           string               `json:"recordedBy"`
	VerifiedBy           *string              `json:"verifiedBy,omitempty"`
	VerifiedAt           *time.Time           `json:"verifiedAt,omitempty"`
	RemainingUnallocated decimal.Decimal      `json:"remainingUnallocated"`
	Allocations          []AllocationResponse `json:"allocations,omitempty"`
}

// CreditResponse is the API shape of an unapplied credit.
type CreditResponse struct {
	CreditID        string          `json:"creditID"`
	ClientID        string          `json:"clientID"`
	SourcePaymentID string          `json:"sourcePaymentID"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	Status          string          `json:"status"`
}

// ToAllocationResponse converts a domain.PaymentAllocation.
func ToAllocationResponse(a *domain.PaymentAllocation) AllocationResponse {
	return AllocationResponse{
		AllocationID:  a.AllocationID,
		PaymentID:     a.PaymentID,
		StatementID:   a.StatementID,
		AmountApplied: a.AmountApplied,
	}
}

// ToPaymentResponse converts a domain.Payment, optionally attaching
// its allocations.
func ToPaymentResponse(p *domain.Payment, allocations []domain.PaymentAllocation) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:            p.PaymentID,
		ClientID:             p.ClientID,
		PaymentDate:          p.PaymentDate,
		AmountReceived:       p.AmountReceived,
		Currency:             p.Currency,
		Method:               string(p.Method),
		ManualInvoiceNo:      p.ManualInvoiceNo,
		ReferenceNo:          p.ReferenceNo,
		Notes:                p.Notes,
		Status:               string(p.Status),
		RecordedBy:           p.RecordedBy,
		VerifiedBy:           p.VerifiedBy,
		VerifiedAt:           p.VerifiedAt,
		RemainingUnallocated: p.RemainingUnallocated,
	}
	if len(allocations) > 0 {
		resp.Allocations = make([]AllocationResponse, len(allocations))
		for i := range allocations {
			resp.Allocations[i] = ToAllocationResponse(&allocations[i])
		}
	}
	return resp
}

// ToPaymentResponses converts a slice of payments without allocations.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i], nil)
	}
	return responses
}

// ToCreditResponse converts a domain.UnappliedCredit.
func ToCreditResponse(c *domain.UnappliedCredit) CreditResponse {
	return CreditResponse{
		CreditID:        c.CreditID,
		ClientID:        c.ClientID,
		SourcePaymentID: c.SourcePaymentID,
		Amount:          c.Amount,
		Reason:          c.Reason,
		Status:          string(c.Status),
	}
}

// ToCreditResponses converts a slice of credits.
func ToCreditResponses(credits []domain.UnappliedCredit) []CreditResponse {
	responses := make([]CreditResponse, len(credits))
	for i := range credits {
		responses[i] = ToCreditResponse(&credits[i])
	}
	return responses
}
