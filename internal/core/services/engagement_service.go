package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

// engagementService manages engagements under a client.
type engagementService struct {
	BaseService
	engagementRepo portsrepo.EngagementRepositoryFacade
	clientRepo     portsrepo.ClientReader
	auditor        portssvc.AuditRecorder
}

// NewEngagementService creates a new EngagementSvcFacade.
func NewEngagementService(
	engagementRepo portsrepo.EngagementRepositoryFacade,
	clientRepo portsrepo.ClientReader,
	auditor portssvc.AuditRecorder,
) portssvc.EngagementSvcFacade {
	return &engagementService{
		engagementRepo: engagementRepo,
		clientRepo:     clientRepo,
		auditor:        auditor,
	}
}

var _ portssvc.EngagementSvcFacade = (*engagementService)(nil)

// CreateEngagement opens a new active engagement. Retainers must carry
// a positive base fee.
func (s *engagementService) CreateEngagement(ctx context.Context, req dto.CreateEngagementRequest, actorID string) (*domain.Engagement, error) {
	if _, err := s.clientRepo.FindClientByID(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("failed to find client %s: %w", req.ClientID, err)
	}
	if req.Type == domain.EngagementRetainer && req.BaseFee.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: retainer engagements require a positive base fee", apperrors.ErrValidation)
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date cannot precede start date", apperrors.ErrValidation)
	}

	billingDay := req.BillingDay
	if billingDay == 0 {
		billingDay = 1
	}

	now := time.Now().UTC()
	engagement := domain.Engagement{
		EngagementID:       uuid.NewString(),
		ClientID:           req.ClientID,
		Type:               req.Type,
		Title:              req.Title,
		Summary:            req.Summary,
		Status:             domain.EngagementActive,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Recurrence:         req.Recurrence,
		BaseFee:            req.BaseFee,
		DefaultDescription: req.DefaultDescription,
		BillingDay:         billingDay,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.engagementRepo.SaveEngagement(ctx, engagement); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: client already has a %s engagement titled %q", apperrors.ErrDuplicate, req.Type, req.Title)
		}
		return nil, fmt.Errorf("failed to save engagement: %w", err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "engagement.create",
		EntityType: "Engagement",
		EntityID:   engagement.EngagementID,
	})
	return &engagement, nil
}

// GetEngagementByID returns the engagement.
func (s *engagementService) GetEngagementByID(ctx context.Context, engagementID string) (*domain.Engagement, error) {
	return s.engagementRepo.FindEngagementByID(ctx, engagementID)
}

// ListEngagementsByClient returns a client's engagements.
func (s *engagementService) ListEngagementsByClient(ctx context.Context, clientID string) ([]domain.Engagement, error) {
	return s.engagementRepo.ListEngagementsByClient(ctx, clientID)
}

// UpdateEngagement applies the supplied field updates. The type and
// client are immutable.
func (s *engagementService) UpdateEngagement(ctx context.Context, engagementID string, req dto.UpdateEngagementRequest, actorID string) (*domain.Engagement, error) {
	engagement, err := s.engagementRepo.FindEngagementByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		engagement.Title = *req.Title
	}
	if req.Summary != nil {
		engagement.Summary = *req.Summary
	}
	if req.Status != nil {
		engagement.Status = *req.Status
	}
	if req.EndDate != nil {
		if req.EndDate.Before(engagement.StartDate) {
			return nil, fmt.Errorf("%w: end date cannot precede start date", apperrors.ErrValidation)
		}
		engagement.EndDate = req.EndDate
	}
	if req.BaseFee != nil {
		if engagement.IsRetainer() && req.BaseFee.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: retainer base fee must stay positive", apperrors.ErrValidation)
		}
		engagement.BaseFee = *req.BaseFee
	}
	if req.DefaultDescription != nil {
		engagement.DefaultDescription = *req.DefaultDescription
	}
	if req.BillingDay != nil {
		engagement.BillingDay = *req.BillingDay
	}
	engagement.LastUpdatedAt = time.Now().UTC()
	engagement.LastUpdatedBy = actorID

	if err := s.engagementRepo.UpdateEngagement(ctx, *engagement); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: client already has an engagement with that title and type", apperrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update engagement %s: %w", engagementID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "engagement.update",
		EntityType: "Engagement",
		EntityID:   engagementID,
	})
	return engagement, nil
}

// DeleteEngagement removes an engagement. Statements referencing it
// make the repository delete fail with a conflict.
func (s *engagementService) DeleteEngagement(ctx context.Context, engagementID string, actorID string) error {
	if _, err := s.engagementRepo.FindEngagementByID(ctx, engagementID); err != nil {
		return err
	}

	if err := s.engagementRepo.DeleteEngagement(ctx, engagementID); err != nil {
		return fmt.Errorf("failed to delete engagement %s: %w", engagementID, err)
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "engagement.delete",
		EntityType: "Engagement",
		EntityID:   engagementID,
	})
	return nil
}
