package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/domain/entity"
)

// ChangePublisher announces committed row changes on the push channel.
type ChangePublisher interface {
	Publish(ctx context.Context, event entity.ChangeEvent) error
}

// Subscription is a live per-tenant stream of change events.
type Subscription interface {
	// Events returns the stream. It is closed once the subscription ends.
	Events() <-chan entity.ChangeEvent

	// Close tears the subscription down.
	Close() error
}

// ChangeFeed opens per-tenant subscriptions on the push channel.
type ChangeFeed interface {
	Subscribe(ctx context.Context, tenantID uuid.UUID) (Subscription, error)
}
