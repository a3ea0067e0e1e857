package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	clientRepo := newPgxClientRepository(dbPool)
	engagementRepo := newPgxEngagementRepository(dbPool)
	statementRepo := newPgxStatementRepository(dbPool)
	paymentRepo := newPgxPaymentRepository(dbPool)
	sequenceRepo := newPgxSequenceRepository(dbPool)
	auditRepo := newPgxAuditRepository(dbPool)
	reportingRepo := newReportingRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)

	return portsrepo.RepositoryProvider{
		ClientRepo:     clientRepo,
		EngagementRepo: engagementRepo,
		StatementRepo:  statementRepo,
		PaymentRepo:    paymentRepo,
		SequenceRepo:   sequenceRepo,
		AuditRepo:      auditRepo,
		ReportingRepo:  reportingRepo,
		UserRepo:       userRepo,
	}
}
