package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// CreateStatementRequest is the payload for creating a draft SOA.
type CreateStatementRequest struct {
	ClientID     string `json:"clientID" binding:"required"`
	EngagementID string `json:"engagementID" binding:"required"`
	Period       string `json:"period" binding:"required,len=7"`
	Notes        string `json:"notes"`
}

// UpdateStatementRequest carries header updates for a draft statement.
type UpdateStatementRequest struct {
	Period *string `json:"period,omitempty" binding:"omitempty,len=7"`
	Notes  *string `json:"notes,omitempty"`
}

// StatementListFilter narrows statement listings.
type StatementListFilter struct {
	ClientID     *string `form:"clientID"`
	EngagementID *string `form:"engagementID"`
	Status       *string `form:"status"`
	Period       *string `form:"period"`
	Limit        int     `form:"limit"`
	Offset       int     `form:"offset"`
}

// SaveItemRequest adds or updates a statement line item.
type SaveItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Qty         decimal.Decimal `json:"qty" binding:"required"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
}

// IssueStatementRequest is the payload for issuing a statement.
type IssueStatementRequest struct {
	IssueDate *time.Time `json:"issueDate,omitempty"`
	DueDate   time.Time  `json:"dueDate" binding:"required"`
	Number    string     `json:"number,omitempty"`
}

// VoidRequest carries the mandatory reason for a void.
type VoidRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// BatchIssueRequest issues several statements with shared dates.
type BatchIssueRequest struct {
	StatementIDs []string  `json:"statementIDs" binding:"required,min=1"`
	IssueDate    time.Time `json:"issueDate" binding:"required"`
	DueDate      time.Time `json:"dueDate" binding:"required"`
}

// BatchIssueResponse reports the per-statement outcome of a batch.
type BatchIssueResponse struct {
	Issued  []string `json:"issued"`
	Skipped []string `json:"skipped"`
}

// BillingItemResponse is the API shape of a statement line.
type BillingItemResponse struct {
	ItemID      string          `json:"itemID"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// StatementResponse is the API shape of a billing statement.
type StatementResponse struct {
	StatementID  string                `json:"statementID"`
	Number       string                `json:"number"`
	ClientID     string                `json:"clientID"`
	EngagementID string                `json:"engagementID"`
	Period       string                `json:"period"`
	IssueDate    *time.Time            `json:"issueDate,omitempty"`
	DueDate      *time.Time            `json:"dueDate,omitempty"`
	Currency     string                `json:"currency"`
	Notes        string                `json:"notes"`
	Status       string                `json:"status"`
	PDFPath      string                `json:"pdfPath"`
	SubTotal     decimal.Decimal       `json:"subTotal"`
	PaidToDate   decimal.Decimal       `json:"paidToDate"`
	Balance      decimal.Decimal       `json:"balance"`
	Items        []BillingItemResponse `json:"items,omitempty"`
}

// ToBillingItemResponse converts a domain.BillingItem to its API shape.
func ToBillingItemResponse(item *domain.BillingItem) BillingItemResponse {
	return BillingItemResponse{
		ItemID:      item.ItemID,
		Description: item.Description,
		Qty:         item.Qty,
		Unit:        item.Unit,
		UnitPrice:   item.UnitPrice,
		LineTotal:   item.LineTotal,
	}
}

// ToStatementResponse converts a domain.BillingStatement, optionally
// attaching its items.
func ToStatementResponse(s *domain.BillingStatement, items []domain.BillingItem) StatementResponse {
	resp := StatementResponse{
		StatementID:  s.StatementID,
		Number:       s.Number,
		ClientID:     s.ClientID,
		EngagementID: s.EngagementID,
		Period:       s.Period,
		IssueDate:    s.IssueDate,
		DueDate:      s.DueDate,
		Currency:     s.Currency,
		Notes:        s.Notes,
		Status:       string(s.Status),
		PDFPath:      s.PDFPath,
		SubTotal:     s.SubTotal,
		PaidToDate:   s.PaidToDate,
		Balance:      s.Balance,
	}
	if len(items) > 0 {
		resp.Items = make([]BillingItemResponse, len(items))
		for i := range items {
			resp.Items[i] = ToBillingItemResponse(&items[i])
		}
	}
	return resp
}

// ToStatementResponses converts a slice of statements without items.
func ToStatementResponses(statements []domain.BillingStatement) []StatementResponse {
	responses := make([]StatementResponse, len(statements))
	for i := range statements {
		responses[i] = ToStatementResponse(&statements[i], nil)
	}
	return responses
}
