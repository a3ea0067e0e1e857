package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentDraft    PaymentStatus = "draft"
	PaymentPosted   PaymentStatus = "posted"
	PaymentVerified PaymentStatus = "verified"
	PaymentVoid     PaymentStatus = "void"
)

// PaymentMethod is the closed set of accepted collection channels.
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "cash"
	MethodCheck       PaymentMethod = "check"
	MethodBPITransfer PaymentMethod = "bpi_transfer"
	MethodBDOTransfer PaymentMethod = "bdo_transfer"
	MethodLBPTransfer PaymentMethod = "lbp_transfer"
	MethodGCash       PaymentMethod = "gcash"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCheck, MethodBPITransfer, MethodBDOTransfer, MethodLBPTransfer, MethodGCash:
		return true
	}
	return false
}

// Payment is money received from a client, manually recorded.
// RemainingUnallocated == AmountReceived - sum of allocation amounts.
type Payment struct {
	PaymentID            string          `json:"paymentID"`
	ClientID             string          `json:"clientID"`
	PaymentDate          time.Time       `json:"paymentDate"`
	AmountReceived       decimal.Decimal `json:"amountReceived"`
	Currency             string          `json:"currency"`
	Method               PaymentMethod   `json:"method"`
	ManualInvoiceNo      string          `json:"manualInvoiceNo"`
	ReferenceNo          string          `json:"referenceNo"`
	Notes                string          `json:"notes"`
	Status               PaymentStatus   `json:"status"`
	RecordedBy           string          `json:"recordedBy"`
	VerifiedBy           *string         `json:"verifiedBy,omitempty"`
	VerifiedAt           *time.Time      `json:"verifiedAt,omitempty"`
	RemainingUnallocated decimal.Decimal `json:"remainingUnallocated"`
	AuditFields
}

// PaymentAllocation links part of a payment to one statement.
// Unique per (payment, statement); AmountApplied > 0.
type PaymentAllocation struct {
	AllocationID  string          `json:"allocationID"`
	PaymentID     string          `json:"paymentID"`
	StatementID   string          `json:"statementID"`
	AmountApplied decimal.Decimal `json:"amountApplied"`
	AuditFields
}

// CreditStatus is the lifecycle state of an unapplied credit.
type CreditStatus string

const (
	CreditOpen     CreditStatus = "open"
	CreditApplied  CreditStatus = "applied"
	CreditRefunded CreditStatus = "refunded"
)

// UnappliedCredit is the leftover of a payment not allocated to any
// statement. Status flips are manual; there is no automatic
// reapplication against future statements.
type UnappliedCredit struct {
	CreditID        string          `json:"creditID"`
	ClientID        string          `json:"clientID"`
	SourcePaymentID string          `json:"sourcePaymentID"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	Status          CreditStatus    `json:"status"`
	AuditFields
}
