package domain

// UserRole is the closed set of back-office roles.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleBiller   UserRole = "biller"
	RoleReviewer UserRole = "reviewer"
	RoleViewer   UserRole = "viewer"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapManageClients     Capability = "clients.manage"
	CapManageEngagements Capability = "engagements.manage"
	CapManageStatements  Capability = "statements.manage"
	CapIssueStatements   Capability = "statements.issue"
	CapVoidStatements    Capability = "statements.void"
	CapRecordPayments    Capability = "payments.record"
	CapAllocatePayments  Capability = "payments.allocate"
	CapVerifyPayments    Capability = "payments.verify"
	CapVoidPayments      Capability = "payments.void"
	CapDeletePayments    Capability = "payments.delete"
	CapManageCredits     Capability = "credits.manage"
	CapRunRetainerCycle  Capability = "retainer.run_cycle"
	CapViewReports       Capability = "reports.view"

	// CapManageUsers is deliberately absent from every role table, so
	// only admins hold it.
	CapManageUsers Capability = "users.manage"
)

// roleCapabilities is the capability-lookup table. Admin implies all
// capabilities and is special-cased in HasCapability.
var roleCapabilities = map[UserRole]map[Capability]bool{
	RoleBiller: {
		CapManageClients:     true,
		CapManageEngagements: true,
		CapManageStatements:  true,
		CapRecordPayments:    true,
		CapAllocatePayments:  true,
		CapRunRetainerCycle:  true,
		CapViewReports:       true,
	},
	RoleReviewer: {
		CapIssueStatements: true,
		CapVoidStatements:  true,
		CapRecordPayments:  true,
		CapVerifyPayments:  true,
		CapVoidPayments:    true,
		CapManageCredits:   true,
		CapViewReports:     true,
	},
	RoleViewer: {
		CapViewReports: true,
	},
}

// HasCapability reports whether the role may perform the given action.
func (r UserRole) HasCapability(cap Capability) bool {
	if r == RoleAdmin {
		return true
	}
	return roleCapabilities[r][cap]
}

// User is a back-office operator.
type User struct {
	UserID       string   `json:"userID"`
	Username     string   `json:"username"`
	DisplayName  string   `json:"displayName"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	AuditFields
}

// EffectiveDisplayName falls back to the username when no display name is set.
func (u User) EffectiveDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
