package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soadesk/billing_backoffice/internal/utils"
)

func TestValidatePeriod(t *testing.T) {
	valid := []string{"2025-01", "2025-12", "1999-06"}
	for _, p := range valid {
		assert.NoError(t, utils.ValidatePeriod(p), "period %s", p)
	}

	invalid := []string{
		"",
		"2025-6",
		"2025-006",
		"2025/06",
		"202506",
		"abcd-06",
		"2025-xy",
		"2025-00",
		"2025-13",
		"June 2025",
	}
	for _, p := range invalid {
		assert.Error(t, utils.ValidatePeriod(p), "period %q", p)
	}
}

func TestLastDayOfPeriod(t *testing.T) {
	cases := []struct {
		period string
		want   time.Time
	}{
		{"2025-06", time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)},
		{"2025-07", time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)},
		{"2025-02", time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"2024-02", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"2025-12", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := utils.LastDayOfPeriod(tc.period)
		require.NoError(t, err, "period %s", tc.period)
		assert.True(t, got.Equal(tc.want), "period %s: got %s", tc.period, got)
	}

	_, err := utils.LastDayOfPeriod("2025-13")
	assert.Error(t, err)
}
