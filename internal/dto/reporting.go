package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// AgingReportResponse is the receivables aging view.
type AgingReportResponse struct {
	AsOf    time.Time                  `json:"asOf"`
	Buckets map[string]decimal.Decimal `json:"buckets"`
}

// CollectionsRowResponse is one line of the collections register.
type CollectionsRowResponse struct {
	PaymentDate time.Time       `json:"paymentDate"`
	Method      string          `json:"method"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CollectionsRegisterResponse is the grouped collections view.
type CollectionsRegisterResponse struct {
	Rows []CollectionsRowResponse `json:"rows"`
}

// UnappliedCreditRowResponse is one client's open credit total.
type UnappliedCreditRowResponse struct {
	ClientID    string          `json:"clientID"`
	ClientName  string          `json:"clientName"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// UnappliedCreditReportResponse is the open-credit totals view.
type UnappliedCreditReportResponse struct {
	Rows []UnappliedCreditRowResponse `json:"rows"`
}

// AuditEntryResponse is the API shape of one audit record.
type AuditEntryResponse struct {
	EntryID    string                 `json:"entryID"`
	ActorID    string                 `json:"actorID"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityID"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// ToAgingReportResponse converts aging rows keyed by bucket label.
func ToAgingReportResponse(asOf time.Time, rows []domain.AgingRow) AgingReportResponse {
	buckets := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		buckets[string(row.Bucket)] = row.TotalBalance
	}
	return AgingReportResponse{AsOf: asOf, Buckets: buckets}
}

// ToCollectionsRegisterResponse converts collections rows.
func ToCollectionsRegisterResponse(rows []domain.CollectionsRow) CollectionsRegisterResponse {
	out := make([]CollectionsRowResponse, len(rows))
	for i, row := range rows {
		out[i] = CollectionsRowResponse{
			PaymentDate: row.PaymentDate,
			Method:      string(row.Method),
			TotalAmount: row.TotalAmount,
		}
	}
	return CollectionsRegisterResponse{Rows: out}
}

// ToUnappliedCreditReportResponse converts credit total rows.
func ToUnappliedCreditReportResponse(rows []domain.UnappliedCreditRow) UnappliedCreditReportResponse {
	out := make([]UnappliedCreditRowResponse, len(rows))
	for i, row := range rows {
		out[i] = UnappliedCreditRowResponse{
			ClientID:    row.ClientID,
			ClientName:  row.ClientName,
			TotalAmount: row.TotalAmount,
		}
	}
	return UnappliedCreditReportResponse{Rows: out}
}

// ToAuditEntryResponses converts audit entries.
func ToAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryResponse{
			EntryID:    e.EntryID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Before:     e.Before,
			After:      e.After,
			Metadata:   e.Metadata,
			CreatedAt:  e.CreatedAt,
		}
	}
	return out
}
