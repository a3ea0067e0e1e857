package services

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

// reportingService is the read-only reporting surface. All heavy
// lifting is SQL aggregation in the repositories.
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	auditRepo     portsrepo.AuditReader
}

// NewReportingService creates a new ReportingSvcFacade.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, auditRepo portsrepo.AuditReader) portssvc.ReportingSvcFacade {
	return &reportingService{reportingRepo: reportingRepo, auditRepo: auditRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// AgingReport buckets open statement balances by age as of the given
// date.
func (s *reportingService) AgingReport(ctx context.Context, asOf time.Time) (*dto.AgingReportResponse, error) {
	rows, err := s.reportingRepo.GetAgingReport(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to build aging report: %w", err)
	}
	resp := dto.ToAgingReportResponse(asOf, rows)
	return &resp, nil
}

// CollectionsRegister totals received payments per date and method.
func (s *reportingService) CollectionsRegister(ctx context.Context, start, end *time.Time) (*dto.CollectionsRegisterResponse, error) {
	rows, err := s.reportingRepo.GetCollectionsRegister(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to build collections register: %w", err)
	}
	resp := dto.ToCollectionsRegisterResponse(rows)
	return &resp, nil
}

// UnappliedCreditReport sums open credits per client.
func (s *reportingService) UnappliedCreditReport(ctx context.Context) (*dto.UnappliedCreditReportResponse, error) {
	rows, err := s.reportingRepo.GetUnappliedCreditTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build unapplied credit report: %w", err)
	}
	resp := dto.ToUnappliedCreditReportResponse(rows)
	return &resp, nil
}

// AuditTrail returns the newest audit entries.
func (s *reportingService) AuditTrail(ctx context.Context, limit int) ([]dto.AuditEntryResponse, error) {
	if limit <= 0 {
		limit = 100
	}
	entries, err := s.auditRepo.ListAuditEntries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return dto.ToAuditEntryResponses(entries), nil
}
