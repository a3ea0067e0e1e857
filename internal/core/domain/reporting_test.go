package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

func TestBucketForDueDate(t *testing.T) {
	asOf := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		dueDate time.Time
		want    domain.AgingBucket
	}{
		{"not yet due", asOf.AddDate(0, 0, 15), domain.Bucket0To30},
		{"due today", asOf, domain.Bucket0To30},
		{"30 days past due", asOf.AddDate(0, 0, -30), domain.Bucket0To30},
		{"31 days past due", asOf.AddDate(0, 0, -31), domain.Bucket31To60},
		{"60 days past due", asOf.AddDate(0, 0, -60), domain.Bucket31To60},
		{"90 days past due", asOf.AddDate(0, 0, -90), domain.Bucket61To90},
		{"91 days past due", asOf.AddDate(0, 0, -91), domain.BucketOver90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.BucketForDueDate(tc.dueDate, asOf))
		})
	}
}
