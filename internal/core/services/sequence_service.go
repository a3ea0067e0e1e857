package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
)

// sequenceService hands out document numbers from named counters. The
// uniqueness guarantee lives in the repository, which serializes
// concurrent callers on the sequence row.
type sequenceService struct {
	BaseService
	allocator portsrepo.SequenceAllocator
}

// NewSequenceService creates a new SequenceSvcFacade.
func NewSequenceService(allocator portsrepo.SequenceAllocator) portssvc.SequenceSvcFacade {
	return &sequenceService{allocator: allocator}
}

var _ portssvc.SequenceSvcFacade = (*sequenceService)(nil)

// Next returns the next formatted number for the named sequence,
// creating it on first use.
func (s *sequenceService) Next(ctx context.Context, code string, actorID string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("sequence code is required")
	}

	number, err := s.allocator.NextNumber(ctx, code, actorID, time.Now().UTC())
	if err != nil {
		s.LogError(ctx, err, "Failed to allocate sequence number", slog.String("code", code))
		return "", fmt.Errorf("failed to allocate number for sequence %s: %w", code, err)
	}

	s.LogDebug(ctx, "Sequence number allocated", slog.String("code", code), slog.String("number", number))
	return number, nil
}
