package repositories

// RepositoryProvider bundles every repository implementation handed to
// the service layer at startup.
type RepositoryProvider struct {
	ClientRepo     ClientRepositoryFacade
	EngagementRepo EngagementRepositoryFacade
	StatementRepo  StatementRepositoryFacade
	PaymentRepo    PaymentRepositoryFacade
	SequenceRepo   SequenceAllocator
	AuditRepo      AuditRepositoryFacade
	ReportingRepo  ReportingRepository
	UserRepo       UserRepositoryFacade
}
