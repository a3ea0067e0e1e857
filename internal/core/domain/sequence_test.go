package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

func TestFormatSequenceNumber(t *testing.T) {
	assert.Equal(t, "SOA-2025-0042", domain.FormatSequenceNumber("SOA-", 2025, 42, 4))
	assert.Equal(t, "SOA-2025-0001", domain.FormatSequenceNumber("SOA-", 2025, 1, 4))
	assert.Equal(t, "SOA-2025-10000", domain.FormatSequenceNumber("SOA-", 2025, 10000, 4))
	assert.Equal(t, "OR-2026-000007", domain.FormatSequenceNumber("OR-", 2026, 7, 6))
}

func TestSequenceAdvance_SameYear(t *testing.T) {
	seq := domain.Sequence{Prefix: "SOA-", Padding: 4, CurrentValue: 41, ResetRule: domain.ResetAnnual, CurrentYear: 2025}

	assert.Equal(t, "SOA-2025-0042", seq.Advance(2025))
	assert.Equal(t, int64(42), seq.CurrentValue)
}

func TestSequenceAdvance_AnnualReset(t *testing.T) {
	seq := domain.Sequence{Prefix: "SOA-", Padding: 4, CurrentValue: 42, ResetRule: domain.ResetAnnual, CurrentYear: 2025}

	assert.Equal(t, "SOA-2026-0001", seq.Advance(2026))
	assert.Equal(t, int64(1), seq.CurrentValue)
	assert.Equal(t, 2026, seq.CurrentYear)
}

func TestSequenceAdvance_NoResetKeepsCountingWithCurrentYear(t *testing.T) {
	seq := domain.Sequence{Prefix: "OR-", Padding: 4, CurrentValue: 42, ResetRule: domain.ResetNone, CurrentYear: 2024}

	// The counter never restarts, but the number carries the year the
	// allocation happened in, not the seed year.
	assert.Equal(t, "OR-2026-0043", seq.Advance(2026))
	assert.Equal(t, int64(43), seq.CurrentValue)
	assert.Equal(t, 2024, seq.CurrentYear)
}
