package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

var ErrClientHasChildren = errors.New("client has statements or payments and cannot be deleted")

// clientService manages clients and their contacts.
type clientService struct {
	BaseService
	clientRepo portsrepo.ClientRepositoryFacade
	auditor    portssvc.AuditRecorder
}

// NewClientService creates a new ClientSvcFacade.
func NewClientService(clientRepo portsrepo.ClientRepositoryFacade, auditor portssvc.AuditRecorder) portssvc.ClientSvcFacade {
	return &clientService{clientRepo: clientRepo, auditor: auditor}
}

var _ portssvc.ClientSvcFacade = (*clientService)(nil)

// CreateClient registers a new active client. Names are unique after
// normalization (trimmed, lowercased).
func (s *clientService) CreateClient(ctx context.Context, req dto.CreateClientRequest, actorID string) (*domain.Client, error) {
	normalized := domain.NormalizeName(req.Name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: client name cannot be blank", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	client := domain.Client{
		ClientID:       uuid.NewString(),
		Name:           req.Name,
		NormalizedName: normalized,
		Status:         domain.ClientActive,
		BillingAddress: req.BillingAddress,
		TIN:            req.TIN,
		Group:          req.Group,
		Tags:           req.Tags,
		Aliases:        req.Aliases,
		HeaderNote:     req.HeaderNote,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.clientRepo.SaveClient(ctx, client); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: a client named %q already exists", apperrors.ErrDuplicate, req.Name)
		}
		s.LogError(ctx, err, "Failed to save client", slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "client.create",
		EntityType: "Client",
		EntityID:   client.ClientID,
	})
	return &client, nil
}

// GetClientByID returns the client.
func (s *clientService) GetClientByID(ctx context.Context, clientID string) (*domain.Client, error) {
	return s.clientRepo.FindClientByID(ctx, clientID)
}

// ListClients returns clients, optionally filtered by status.
func (s *clientService) ListClients(ctx context.Context, status *domain.ClientStatus, limit, offset int) ([]domain.Client, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.clientRepo.ListClients(ctx, status, limit, offset)
}

// UpdateClient applies the supplied field updates.
func (s *clientService) UpdateClient(ctx context.Context, clientID string, req dto.UpdateClientRequest, actorID string) (*domain.Client, error) {
	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		normalized := domain.NormalizeName(*req.Name)
		if normalized == "" {
			return nil, fmt.Errorf("%w: client name cannot be blank", apperrors.ErrValidation)
		}
		client.Name = *req.Name
		client.NormalizedName = normalized
	}
	if req.Status != nil {
		client.Status = *req.Status
	}
	if req.BillingAddress != nil {
		client.BillingAddress = *req.BillingAddress
	}
	if req.TIN != nil {
		client.TIN = *req.TIN
	}
	if req.Group != nil {
		client.Group = *req.Group
	}
	if req.Tags != nil {
		client.Tags = req.Tags
	}
	if req.Aliases != nil {
		client.Aliases = req.Aliases
	}
	if req.HeaderNote != nil {
		client.HeaderNote = *req.HeaderNote
	}
	client.LastUpdatedAt = time.Now().UTC()
	client.LastUpdatedBy = actorID

	if err := s.clientRepo.UpdateClient(ctx, *client); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: a client with that name already exists", apperrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update client %s: %w", clientID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "client.update",
		EntityType: "Client",
		EntityID:   clientID,
	})
	return client, nil
}

// DeleteClient removes a client that has no financial children.
// Clients with history should be deactivated instead.
func (s *clientService) DeleteClient(ctx context.Context, clientID string, actorID string) error {
	if _, err := s.clientRepo.FindClientByID(ctx, clientID); err != nil {
		return err
	}

	protected, err := s.clientRepo.HasProtectedChildren(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to check client children: %w", err)
	}
	if protected {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrClientHasChildren.Error())
	}

	if err := s.clientRepo.DeleteClient(ctx, clientID); err != nil {
		return fmt.Errorf("failed to delete client %s: %w", clientID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "client.delete",
		EntityType: "Client",
		EntityID:   clientID,
	})
	return nil
}

// AddContact attaches a contact to the client.
func (s *clientService) AddContact(ctx context.Context, clientID string, req dto.CreateContactRequest, actorID string) (*domain.Contact, error) {
	if _, err := s.clientRepo.FindClientByID(ctx, clientID); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = domain.ContactOther
	}

	now := time.Now().UTC()
	contact := domain.Contact{
		ContactID:          uuid.NewString(),
		ClientID:           clientID,
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Role:               role,
		IsBillingRecipient: req.IsBillingRecipient,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.clientRepo.SaveContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "client.contact.add",
		EntityType: "Contact",
		EntityID:   contact.ContactID,
	})
	return &contact, nil
}

// ListContacts returns a client's contacts.
func (s *clientService) ListContacts(ctx context.Context, clientID string) ([]domain.Contact, error) {
	return s.clientRepo.FindContactsByClientID(ctx, clientID)
}

// RemoveContact deletes a contact.
func (s *clientService) RemoveContact(ctx context.Context, contactID string, actorID string) error {
	if err := s.clientRepo.DeleteContact(ctx, contactID); err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", contactID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "client.contact.remove",
		EntityType: "Contact",
		EntityID:   contactID,
	})
	return nil
}
