package domain

import "strings"

// ClientStatus indicates whether a client is billable.
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
)

// Client is a billed party. It owns engagements, payments, and
// unapplied credits. Deletion is restricted while financial children
// reference it.
type Client struct {
	ClientID       string       `json:"clientID"`
	Name           string       `json:"name"`
	NormalizedName string       `json:"normalizedName"`
	Status         ClientStatus `json:"status"`
	BillingAddress string       `json:"billingAddress"`
	TIN            string       `json:"tin"`
	Group          string       `json:"group"`
	Tags           []string     `json:"tags"`
	Aliases        []string     `json:"aliases"`
	HeaderNote     string       `json:"headerNote"`
	AuditFields
}

// NormalizeName derives the lookup key stored in NormalizedName.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ContactRole classifies a client contact.
type ContactRole string

const (
	ContactBilling  ContactRole = "billing"
	ContactAP       ContactRole = "ap"
	ContactApprover ContactRole = "approver"
	ContactOther    ContactRole = "other"
)

// Contact is a person attached to a client record.
type Contact struct {
	ContactID          string      `json:"contactID"`
	ClientID           string      `json:"clientID"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Phone              string      `json:"phone"`
	Role               ContactRole `json:"role"`
	IsBillingRecipient bool        `json:"isBillingRecipient"`
	AuditFields
}
