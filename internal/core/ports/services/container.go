package services

// ServiceContainer bundles every service facade handed to the HTTP
// layer at startup.
type ServiceContainer struct {
	Client        ClientSvcFacade
	Engagement    EngagementSvcFacade
	Statement     StatementSvcFacade
	Payment       PaymentSvcFacade
	Sequence      SequenceSvcFacade
	RetainerCycle RetainerCycleSvcFacade
	Reporting     ReportingSvcFacade
	User          UserSvcFacade
	Capabilities  CapabilityResolver
}
