package repositories

import (
	"context"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// EngagementReader defines read operations for engagement data.
type EngagementReader interface {
	FindEngagementByID(ctx context.Context, engagementID string) (*domain.Engagement, error)
	ListEngagementsByClient(ctx context.Context, clientID string) ([]domain.Engagement, error)

	// ListActiveRetainerEngagements returns every active retainer
	// engagement whose client is also active, the selection set for a
	// retainer billing cycle.
	ListActiveRetainerEngagements(ctx context.Context) ([]domain.Engagement, error)
}

// EngagementWriter defines write operations for engagement data.
type EngagementWriter interface {
	SaveEngagement(ctx context.Context, engagement domain.Engagement) error
	UpdateEngagement(ctx context.Context, engagement domain.Engagement) error
	DeleteEngagement(ctx context.Context, engagementID string) error
}

// EngagementRepositoryFacade combines all engagement repository interfaces.
type EngagementRepositoryFacade interface {
	EngagementReader
	EngagementWriter
}
