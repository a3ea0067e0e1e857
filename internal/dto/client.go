package dto

import (
	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// CreateClientRequest is the payload for registering a client.
type CreateClientRequest struct {
	Name           string   `json:"name" binding:"required"`
	BillingAddress string   `json:"billingAddress"`
	TIN            string   `json:"tin"`
	Group          string   `json:"group"`
	Tags           []string `json:"tags"`
	Aliases        []string `json:"aliases"`
	HeaderNote     string   `json:"headerNote"`
}

// UpdateClientRequest carries optional client field updates.
type UpdateClientRequest struct {
	Name           *string              `json:"name,omitempty"`
	Status         *domain.ClientStatus `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
	BillingAddress *string              `json:"billingAddress,omitempty"`
	TIN            *string              `json:"tin,omitempty"`
	Group          *string              `json:"group,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	Aliases        []string             `json:"aliases,omitempty"`
	HeaderNote     *string              `json:"headerNote,omitempty"`
}

// CreateContactRequest adds a contact to a client.
type CreateContactRequest struct {
	Name               string             `json:"name" binding:"required"`
	Email              string             `json:"email" binding:"omitempty,email"`
	Phone              string             `json:"phone"`
	Role               domain.ContactRole `json:"role" binding:"omitempty,oneof=billing ap approver other"`
	IsBillingRecipient bool               `json:"isBillingRecipient"`
}

// ClientResponse is the API shape of a client.
type ClientResponse struct {
	ClientID       string   `json:"clientID"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	BillingAddress string   `json:"billingAddress"`
	TIN            string   `json:"tin"`
	Group          string   `json:"group"`
	Tags           []string `json:"tags"`
	Aliases        []string `json:"aliases"`
	HeaderNote     string   `json:"headerNote"`
}

// ToClientResponse converts a domain.Client to its API shape.
func ToClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ClientID:       c.ClientID,
		Name:           c.Name,
		Status:         string(c.Status),
		BillingAddress: c.BillingAddress,
		TIN:            c.TIN,
		Group:          c.Group,
		Tags:           c.Tags,
		Aliases:        c.Aliases,
		HeaderNote:     c.HeaderNote,
	}
}

// ToClientResponses converts a slice of clients.
func ToClientResponses(clients []domain.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses
}
