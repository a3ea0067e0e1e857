package repositories

import (
	"context"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// ClientReader defines read operations for client data.
type ClientReader interface {
	FindClientByID(ctx context.Context, clientID string) (*domain.Client, error)
	ListClients(ctx context.Context, status *domain.ClientStatus, limit int, offset int) ([]domain.Client, error)

	// HasProtectedChildren reports whether payments or statements still
	// reference the client, which blocks deletion.
	HasProtectedChildren(ctx context.Context, clientID string) (bool, error)
}

// ClientWriter defines write operations for client data.
type ClientWriter interface {
	SaveClient(ctx context.Context, client domain.Client) error
	UpdateClient(ctx context.Context, client domain.Client) error
	DeleteClient(ctx context.Context, clientID string) error
}

// ContactReader defines read operations for client contacts.
type ContactReader interface {
	FindContactsByClientID(ctx context.Context, clientID string) ([]domain.Contact, error)
}

// ContactWriter defines write operations for client contacts.
type ContactWriter interface {
	SaveContact(ctx context.Context, contact domain.Contact) error
	DeleteContact(ctx context.Context, contactID string) error
}

// ClientRepositoryFacade combines all client-related repository interfaces.
type ClientRepositoryFacade interface {
	ClientReader
	ClientWriter
	ContactReader
	ContactWriter
}
