package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

func TestIsIssuable(t *testing.T) {
	cases := []struct {
		status   domain.StatementStatus
		issuable bool
	}{
		{domain.StatementDraft, true},
		{domain.StatementPendingReview, true},
		{domain.StatementIssued, false},
		{domain.StatementSettled, false},
		{domain.StatementVoid, false},
	}
	for _, tc := range cases {
		s := domain.BillingStatement{Status: tc.status}
		assert.Equal(t, tc.issuable, s.IsIssuable(), "status %s", tc.status)
		assert.Equal(t, tc.issuable, s.IsEditable(), "status %s", tc.status)
	}
}

func TestAppendVoidNote(t *testing.T) {
	assert.Equal(t, "Voided: wrong client", domain.AppendVoidNote("", "wrong client"))
	assert.Equal(t, "June retainer\nVoided: wrong client", domain.AppendVoidNote("June retainer", "wrong client"))
}

func TestSettlementStatus(t *testing.T) {
	cases := []struct {
		name    string
		current domain.StatementStatus
		balance decimal.Decimal
		want    domain.StatementStatus
	}{
		{"issued with zero balance settles", domain.StatementIssued, decimal.Zero, domain.StatementSettled},
		{"issued with negative balance settles", domain.StatementIssued, decimal.NewFromInt(-1), domain.StatementSettled},
		{"issued with open balance stays issued", domain.StatementIssued, decimal.NewFromInt(100), domain.StatementIssued},
		{"settled reopens on positive balance", domain.StatementSettled, decimal.NewFromInt(100), domain.StatementIssued},
		{"settled stays settled at zero", domain.StatementSettled, decimal.Zero, domain.StatementSettled},
		{"draft never overridden", domain.StatementDraft, decimal.Zero, domain.StatementDraft},
		{"void never overridden", domain.StatementVoid, decimal.Zero, domain.StatementVoid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.SettlementStatus(tc.current, tc.balance))
		})
	}
}

func TestStatementIdempotencyHash(t *testing.T) {
	first := domain.StatementIdempotencyHash("client-1", "eng-1", "2025-06")
	same := domain.StatementIdempotencyHash("client-1", "eng-1", "2025-06")
	other := domain.StatementIdempotencyHash("client-1", "eng-1", "2025-07")

	assert.Equal(t, first, same)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

func TestComputeLineTotal(t *testing.T) {
	item := domain.BillingItem{
		Qty:       decimal.NewFromFloat(2.5),
		UnitPrice: decimal.NewFromInt(1000),
	}
	item.ComputeLineTotal()
	assert.True(t, item.LineTotal.Equal(decimal.NewFromInt(2500)))
}
