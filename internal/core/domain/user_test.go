package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

func TestHasCapability(t *testing.T) {
	cases := []struct {
		name    string
		role    domain.UserRole
		cap     domain.Capability
		allowed bool
	}{
		{"admin holds everything", domain.RoleAdmin, domain.CapManageUsers, true},
		{"admin can void payments", domain.RoleAdmin, domain.CapVoidPayments, true},
		{"biller manages statements", domain.RoleBiller, domain.CapManageStatements, true},
		{"biller runs retainer cycle", domain.RoleBiller, domain.CapRunRetainerCycle, true},
		{"biller cannot issue", domain.RoleBiller, domain.CapIssueStatements, false},
		{"biller cannot verify payments", domain.RoleBiller, domain.CapVerifyPayments, false},
		{"reviewer issues statements", domain.RoleReviewer, domain.CapIssueStatements, true},
		{"reviewer verifies payments", domain.RoleReviewer, domain.CapVerifyPayments, true},
		{"reviewer cannot manage clients", domain.RoleReviewer, domain.CapManageClients, false},
		{"viewer only reads reports", domain.RoleViewer, domain.CapViewReports, true},
		{"viewer cannot record payments", domain.RoleViewer, domain.CapRecordPayments, false},
		{"only admin manages users", domain.RoleReviewer, domain.CapManageUsers, false},
		{"unknown role has nothing", domain.UserRole("intern"), domain.CapViewReports, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.role.HasCapability(tc.cap))
		})
	}
}

func TestEffectiveDisplayName(t *testing.T) {
	named := domain.User{Username: "mgonzales", DisplayName: "M. Gonzales"}
	assert.Equal(t, "M. Gonzales", named.EffectiveDisplayName())

	unnamed := domain.User{Username: "mgonzales"}
	assert.Equal(t, "mgonzales", unnamed.EffectiveDisplayName())
}
