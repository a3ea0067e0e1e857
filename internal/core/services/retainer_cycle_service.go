package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/utils"
)

// retainerCycleService generates one draft statement per active
// retainer engagement for a billing period. The run is idempotent:
// engagements that already have a statement for the period are
// reported as skipped, and a failure on one engagement never blocks
// the rest.
type retainerCycleService struct {
	BaseService
	engagementRepo portsrepo.EngagementRepositoryFacade
	statementRepo  portsrepo.StatementRepositoryFacade
	auditor        portssvc.AuditRecorder
}

// NewRetainerCycleService creates a new RetainerCycleSvcFacade.
func NewRetainerCycleService(
	engagementRepo portsrepo.EngagementRepositoryFacade,
	statementRepo portsrepo.StatementRepositoryFacade,
	auditor portssvc.AuditRecorder,
) portssvc.RetainerCycleSvcFacade {
	return &retainerCycleService{
		engagementRepo: engagementRepo,
		statementRepo:  statementRepo,
		auditor:        auditor,
	}
}

var _ portssvc.RetainerCycleSvcFacade = (*retainerCycleService)(nil)

// Run generates retainer statements for the given YYYY-MM period.
func (s *retainerCycleService) Run(ctx context.Context, period string, actorID string) (*dto.RetainerCycleResponse, error) {
	if err := utils.ValidatePeriod(period); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	engagements, err := s.engagementRepo.ListActiveRetainerEngagements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list retainer engagements: %w", err)
	}

	resp := &dto.RetainerCycleResponse{Created: []string{}, SkippedExisting: []string{}, Failed: []string{}}
	for _, engagement := range engagements {
		statementID, err := s.generateOne(ctx, engagement, period, actorID)
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				resp.SkippedExisting = append(resp.SkippedExisting, engagement.EngagementID)
				continue
			}
			// One bad engagement must not sink the whole cycle.
			s.LogError(ctx, err, "Retainer generation failed for engagement",
				slog.String("engagement_id", engagement.EngagementID),
				slog.String("period", period))
			resp.Failed = append(resp.Failed, engagement.EngagementID)
			continue
		}
		resp.Created = append(resp.Created, statementID)
	}

	s.LogInfo(ctx, "Retainer cycle completed",
		slog.String("period", period),
		slog.Int("created", len(resp.Created)),
		slog.Int("skipped", len(resp.SkippedExisting)),
		slog.Int("failed", len(resp.Failed)))
	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "retainer_cycle.run",
		EntityType: "RetainerCycle",
		EntityID:   period,
		Metadata: map[string]interface{}{
			"created": len(resp.Created),
			"skipped": len(resp.SkippedExisting),
			"failed":  len(resp.Failed),
		},
	})
	return resp, nil
}

// generateOne creates the draft statement and its single retainer line
// for one engagement, then advances the engagement's watermark.
func (s *retainerCycleService) generateOne(ctx context.Context, engagement domain.Engagement, period string, actorID string) (string, error) {
	if engagement.BaseFee.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("engagement %s has no positive base fee", engagement.EngagementID)
	}

	now := time.Now().UTC()
	dueDate, err := utils.LastDayOfPeriod(period)
	if err != nil {
		return "", err
	}

	description := engagement.DefaultDescription
	if description == "" {
		description = fmt.Sprintf("Retainer services for %s", period)
	}

	statement := domain.BillingStatement{
		StatementID:     uuid.NewString(),
		ClientID:        engagement.ClientID,
		EngagementID:    engagement.EngagementID,
		Period:          period,
		DueDate:         &dueDate,
		Currency:        domain.SettlementCurrency,
		Status:          domain.StatementDraft,
		SubTotal:        engagement.BaseFee,
		PaidToDate:      decimal.Zero,
		Balance:         engagement.BaseFee,
		IdempotencyHash: domain.StatementIdempotencyHash(engagement.ClientID, engagement.EngagementID, period),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	item := domain.BillingItem{
		ItemID:      uuid.NewString(),
		StatementID: statement.StatementID,
		Description: description,
		Qty:         decimal.NewFromInt(1),
		Unit:        "month",
		UnitPrice:   engagement.BaseFee,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	item.ComputeLineTotal()

	if err := s.statementRepo.CreateStatement(ctx, statement, &item); err != nil {
		return "", err
	}

	if engagement.LastGeneratedPeriod < period {
		engagement.LastGeneratedPeriod = period
		engagement.LastUpdatedAt = now
		engagement.LastUpdatedBy = actorID
		if err := s.engagementRepo.UpdateEngagement(ctx, engagement); err != nil {
			s.LogWarn(ctx, "Failed to advance retainer watermark",
				slog.String("engagement_id", engagement.EngagementID),
				slog.String("error", err.Error()))
		}
	}

	s.auditor.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "statement.generate_retainer",
		EntityType: "BillingStatement",
		EntityID:   statement.StatementID,
		Metadata:   map[string]interface{}{"period": period, "engagement_id": engagement.EngagementID},
	})
	return statement.StatementID, nil
}
