package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EngagementType distinguishes recurring retainers from one-off work.
type EngagementType string

const (
	EngagementRetainer EngagementType = "retainer"
	EngagementSpecial  EngagementType = "special"
)

// EngagementStatus is the lifecycle state of an engagement.
type EngagementStatus string

const (
	EngagementActive    EngagementStatus = "active"
	EngagementSuspended EngagementStatus = "suspended"
	EngagementEnded     EngagementStatus = "ended"
)

// Engagement is a unit of client work. Retainer engagements carry a
// recurring base fee and a watermark of the latest generated period.
// Unique per (client, title, type).
type Engagement struct {
	EngagementID        string           `json:"engagementID"`
	ClientID            string           `json:"clientID"`
	Type                EngagementType   `json:"type"`
	Title               string           `json:"title"`
	Summary             string           `json:"summary"`
	Status              EngagementStatus `json:"status"`
	StartDate           time.Time        `json:"startDate"`
	EndDate             *time.Time       `json:"endDate,omitempty"`
	Recurrence          string           `json:"recurrence"`
	BaseFee             decimal.Decimal  `json:"baseFee"`
	DefaultDescription  string           `json:"defaultDescription"`
	BillingDay          int              `json:"billingDay"`
	LastGeneratedPeriod string           `json:"lastGeneratedPeriod"` // YYYY-MM of latest retainer draft
	AuditFields
}

// IsActive reports whether the engagement is currently billable.
func (e Engagement) IsActive() bool {
	return e.Status == EngagementActive
}

// IsRetainer reports whether the engagement bills on a recurring cycle.
func (e Engagement) IsRetainer() bool {
	return e.Type == EngagementRetainer
}
