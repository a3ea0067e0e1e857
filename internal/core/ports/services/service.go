package services

import (
	"context"
	"time"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

// ClientSvcFacade manages clients and their contacts.
type ClientSvcFacade interface {
	CreateClient(ctx context.Context, req dto.CreateClientRequest, actorID string) (*domain.Client, error)
	GetClientByID(ctx context.Context, clientID string) (*domain.Client, error)
	ListClients(ctx context.Context, status *domain.ClientStatus, limit, offset int) ([]domain.Client, error)
	UpdateClient(ctx context.Context, clientID string, req dto.UpdateClientRequest, actorID string) (*domain.Client, error)
	DeleteClient(ctx context.Context, clientID string, actorID string) error

	AddContact(ctx context.Context, clientID string, req dto.CreateContactRequest, actorID string) (*domain.Contact, error)
	ListContacts(ctx context.Context, clientID string) ([]domain.Contact, error)
	RemoveContact(ctx context.Context, contactID string, actorID string) error
}

// EngagementSvcFacade manages engagements.
type EngagementSvcFacade interface {
	CreateEngagement(ctx context.Context, req dto.CreateEngagementRequest, actorID string) (*domain.Engagement, error)
	GetEngagementByID(ctx context.Context, engagementID string) (*domain.Engagement, error)
	ListEngagementsByClient(ctx context.Context, clientID string) ([]domain.Engagement, error)
	UpdateEngagement(ctx context.Context, engagementID string, req dto.UpdateEngagementRequest, actorID string) (*domain.Engagement, error)
	DeleteEngagement(ctx context.Context, engagementID string, actorID string) error
}

// SequenceSvcFacade issues document numbers.
type SequenceSvcFacade interface {
	Next(ctx context.Context, code string, actorID string) (string, error)
}

// RetainerCycleSvcFacade generates retainer statements per period.
type RetainerCycleSvcFacade interface {
	Run(ctx context.Context, period string, actorID string) (*dto.RetainerCycleResponse, error)
}

// ReportingSvcFacade is the read-only reporting surface.
type ReportingSvcFacade interface {
	AgingReport(ctx context.Context, asOf time.Time) (*dto.AgingReportResponse, error)
	CollectionsRegister(ctx context.Context, start, end *time.Time) (*dto.CollectionsRegisterResponse, error)
	UnappliedCreditReport(ctx context.Context) (*dto.UnappliedCreditReportResponse, error)
	AuditTrail(ctx context.Context, limit int) ([]dto.AuditEntryResponse, error)
}

// UserSvcFacade manages back-office operators.
type UserSvcFacade interface {
	CreateUser(ctx context.Context, req dto.CreateUserRequest, actorID string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// CapabilityResolver answers whether an actor may perform an action.
type CapabilityResolver interface {
	Can(ctx context.Context, actorID string, cap domain.Capability) (bool, error)
}

// AuditRecorder is the fire-and-forget audit sink. Record failures are
// logged by implementations and never propagated.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

// StatementRenderer produces the durable PDF artifact for a statement
// and returns a path relative to the media root. Re-rendering an
// already-issued statement is a no-op unless force is set.
type StatementRenderer interface {
	RenderStatement(ctx context.Context, statement domain.BillingStatement, client domain.Client, engagement domain.Engagement, items []domain.BillingItem, force bool) (string, error)
}
