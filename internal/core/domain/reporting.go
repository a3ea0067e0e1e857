package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket labels a receivable age band.
type AgingBucket string

const (
	Bucket0To30  AgingBucket = "0-30"
	Bucket31To60 AgingBucket = "31-60"
	Bucket61To90 AgingBucket = "61-90"
	BucketOver90 AgingBucket = "90+"
)

// AgingRow is the open balance total for one age bucket.
type AgingRow struct {
	Bucket       AgingBucket     `json:"bucket"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

// BucketForDueDate classifies a due date against an as-of date.
// Statements not yet due fall in the first bucket.
func BucketForDueDate(dueDate, asOf time.Time) AgingBucket {
	if !dueDate.Before(asOf) {
		return Bucket0To30
	}
	days := int(asOf.Sub(dueDate).Hours() / 24)
	switch {
	case days <= 30:
		return Bucket0To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// CollectionsRow is the received total for one (date, method) group.
type CollectionsRow struct {
	PaymentDate time.Time       `json:"paymentDate"`
	Method      PaymentMethod   `json:"method"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// UnappliedCreditRow is the open credit total for one client.
type UnappliedCreditRow struct {
	ClientID    string          `json:"clientID"`
	ClientName  string          `json:"clientName"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
