package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StatementStatus is the lifecycle state of a billing statement (SOA).
type StatementStatus string

const (
	StatementDraft         StatementStatus = "draft"
	StatementPendingReview StatementStatus = "pending_review"
	StatementIssued        StatementStatus = "issued"
	StatementVoid          StatementStatus = "void"
	StatementSettled       StatementStatus = "settled"
)

// BillingStatement is a statement of account for one (client,
// engagement, period). The monetary fields are derived: SubTotal from
// the items, PaidToDate from linked allocations, and always
// Balance == SubTotal - PaidToDate.
type BillingStatement struct {
	StatementID     string          `json:"statementID"`
	Number          string          `json:"number"` // empty until issued, then unique
	ClientID        string          `json:"clientID"`
	EngagementID    string          `json:"engagementID"`
	Period          string          `json:"period"` // YYYY-MM
	IssueDate       *time.Time      `json:"issueDate,omitempty"`
	DueDate         *time.Time      `json:"dueDate,omitempty"`
	Currency        string          `json:"currency"`
	Notes           string          `json:"notes"`
	Status          StatementStatus `json:"status"`
	PDFPath         string          `json:"pdfPath"`
	SubTotal        decimal.Decimal `json:"subTotal"`
	PaidToDate      decimal.Decimal `json:"paidToDate"`
	Balance         decimal.Decimal `json:"balance"`
	IdempotencyHash string          `json:"idempotencyHash"`
	AuditFields
}

// IsIssuable reports whether the statement may transition to issued.
func (s BillingStatement) IsIssuable() bool {
	return s.Status == StatementDraft || s.Status == StatementPendingReview
}

// IsEditable reports whether full item/header edits are still allowed.
// Once issued, void-and-reissue is the only amendment path.
func (s BillingStatement) IsEditable() bool {
	return s.Status == StatementDraft || s.Status == StatementPendingReview
}

// AppendVoidNote returns the notes with a void reason appended.
func AppendVoidNote(notes, reason string) string {
	if notes == "" {
		return "Voided: " + reason
	}
	return notes + "\nVoided: " + reason
}

// SettlementStatus decides the post-recalculation status for the given
// balance. Settled and issued toggle on the zero-balance boundary;
// draft, pending_review and void are never overridden.
func SettlementStatus(current StatementStatus, balance decimal.Decimal) StatementStatus {
	switch current {
	case StatementIssued:
		if balance.LessThanOrEqual(decimal.Zero) {
			return StatementSettled
		}
	case StatementSettled:
		if balance.GreaterThan(decimal.Zero) {
			return StatementIssued
		}
	}
	return current
}

// StatementIdempotencyHash fingerprints the statement's natural key.
// Duplicate generation for the same key produces the same hash.
func StatementIdempotencyHash(clientID, engagementID, period string) string {
	raw := fmt.Sprintf("%s|%s|%s", clientID, engagementID, period)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// BillingItem is a single line on a statement. LineTotal is derived
// from Qty and UnitPrice on every save.
type BillingItem struct {
	ItemID      string          `json:"itemID"`
	StatementID string          `json:"statementID"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	AuditFields
}

// ComputeLineTotal derives LineTotal from Qty and UnitPrice.
func (i *BillingItem) ComputeLineTotal() {
	i.LineTotal = i.Qty.Mul(i.UnitPrice)
}
