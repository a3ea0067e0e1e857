package repositories

import (
	"context"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error
}

// AuditReader lists recorded audit entries, newest first.
type AuditReader interface {
	ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// AuditRepositoryFacade combines audit repository interfaces.
type AuditRepositoryFacade interface {
	AuditWriter
	AuditReader
}
