package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

func TestValidPaymentMethod(t *testing.T) {
	valid := []domain.PaymentMethod{
		domain.MethodCash,
		domain.MethodCheck,
		domain.MethodBPITransfer,
		domain.MethodBDOTransfer,
		domain.MethodLBPTransfer,
		domain.MethodGCash,
	}
	for _, m := range valid {
		assert.True(t, domain.ValidPaymentMethod(m), "method %s", m)
	}
	assert.False(t, domain.ValidPaymentMethod(domain.PaymentMethod("bitcoin")))
	assert.False(t, domain.ValidPaymentMethod(domain.PaymentMethod("")))
}
