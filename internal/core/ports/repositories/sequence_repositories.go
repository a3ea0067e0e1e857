package repositories

import (
	"context"
	"time"
)

// SequenceAllocator hands out unique document numbers for a named
// sequence. Implementations must serialize concurrent callers for the
// same code so no two callers observe the same counter value.
type SequenceAllocator interface {
	// NextNumber creates the sequence row on first use, applies the
	// annual reset when due, increments the counter and returns the
	// formatted number, all under one row-locked transaction.
	NextNumber(ctx context.Context, code string, actorID string, today time.Time) (string, error)
}
