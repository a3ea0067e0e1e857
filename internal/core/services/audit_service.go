package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
)

// auditService is the best-effort audit sink. A failed write is logged
// and swallowed; it never rolls back the business operation it records.
type auditService struct {
	BaseService
	auditRepo portsrepo.AuditRepositoryFacade
}

// NewAuditService creates a new AuditRecorder backed by the audit repository.
func NewAuditService(auditRepo portsrepo.AuditRepositoryFacade) portssvc.AuditRecorder {
	return &auditService{auditRepo: auditRepo}
}

var _ portssvc.AuditRecorder = (*auditService)(nil)

// Record persists the entry, filling in ID and timestamp when absent.
func (s *auditService) Record(ctx context.Context, entry domain.AuditEntry) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := s.auditRepo.SaveAuditEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to record audit entry",
			slog.String("action", entry.Action),
			slog.String("entity_type", entry.EntityType),
			slog.String("entity_id", entry.EntityID))
	}
}
