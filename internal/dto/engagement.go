package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// CreateEngagementRequest is the payload for opening an engagement.
type CreateEngagementRequest struct {
	ClientID           string                `json:"clientID" binding:"required"`
	Type               domain.EngagementType `json:"type" binding:"required,oneof=retainer special"`
	Title              string                `json:"title" binding:"required"`
	Summary            string                `json:"summary"`
	StartDate          time.Time             `json:"startDate" binding:"required"`
	EndDate            *time.Time            `json:"endDate,omitempty"`
	Recurrence         string                `json:"recurrence"`
	BaseFee            decimal.Decimal       `json:"baseFee"`
	DefaultDescription string                `json:"defaultDescription"`
	BillingDay         int                   `json:"billingDay" binding:"omitempty,min=1,max=31"`
}

// UpdateEngagementRequest carries optional engagement field updates.
type UpdateEngagementRequest struct {
	Title              *string                  `json:"title,omitempty"`
	Summary            *string                  `json:"summary,omitempty"`
	Status             *domain.EngagementStatus `json:"status,omitempty" binding:"omitempty,oneof=active suspended ended"`
	EndDate            *time.Time               `json:"endDate,omitempty"`
	BaseFee            *decimal.Decimal         `json:"baseFee,omitempty"`
	DefaultDescription *string                  `json:"defaultDescription,omitempty"`
	BillingDay         *int                     `json:"billingDay,omitempty" binding:"omitempty,min=1,max=31"`
}

// EngagementResponse is the API shape of an engagement.
type EngagementResponse struct {
	EngagementID        string          `json:"engagementID"`
	ClientID            string          `json:"clientID"`
	Type                string          `json:"type"`
	Title               string          `json:"title"`
	Summary             string          `json:"summary"`
	Status              string          `json:"status"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             *time.Time      `json:"endDate,omitempty"`
	Recurrence          string          `json:"recurrence"`
	BaseFee             decimal.Decimal `json:"baseFee"`
	DefaultDescription  string          `json:"defaultDescription"`
	BillingDay          int             `json:"billingDay"`
	LastGeneratedPeriod string          `json:"lastGeneratedPeriod"`
}

// ToEngagementResponse converts a domain.Engagement to its API shape.
func ToEngagementResponse(e *domain.Engagement) EngagementResponse {
	return EngagementResponse{
		EngagementID:        e.EngagementID,
		ClientID:            e.ClientID,
		Type:                string(e.Type),
		Title:               e.Title,
		Summary:             e.Summary,
		Status:              string(e.Status),
		StartDate:           e.StartDate,
		EndDate:             e.EndDate,
		Recurrence:          e.Recurrence,
		BaseFee:             e.BaseFee,
		DefaultDescription:  e.DefaultDescription,
		BillingDay:          e.BillingDay,
		LastGeneratedPeriod: e.LastGeneratedPeriod,
	}
}

// ToEngagementResponses converts a slice of engagements.
func ToEngagementResponses(engagements []domain.Engagement) []EngagementResponse {
	responses := make([]EngagementResponse, len(engagements))
	for i := range engagements {
		responses[i] = ToEngagementResponse(&engagements[i])
	}
	return responses
}
