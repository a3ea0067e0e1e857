package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme trading corp", domain.NormalizeName("  Acme Trading CORP  "))
	assert.Equal(t, "acme", domain.NormalizeName("ACME"))
	assert.Equal(t, "", domain.NormalizeName("   "))
}
