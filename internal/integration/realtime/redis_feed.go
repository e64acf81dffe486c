// Package realtime carries row-level change events over Redis Pub/Sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/domain/entity"
)

const defaultBufferSize = 256

var tables = []entity.ChangeTable{
	entity.TableTransactions,
	entity.TableConfiguration,
	entity.TableCounterparties,
}

// changeMessage is the wire form of a change event.
type changeMessage struct {
	Table        entity.ChangeTable    `json:"table"`
	Kind         entity.ChangeKind     `json:"kind"`
	TenantID     uuid.UUID             `json:"tenant_id"`
	RowID        uuid.UUID             `json:"row_id"`
	Transaction  *entity.Transaction   `json:"transaction,omitempty"`
	Pool         *entity.InventoryPool `json:"pool,omitempty"`
	Counterparty *entity.Counterparty  `json:"counterparty,omitempty"`
}

// RedisFeed publishes and subscribes to per-tenant change channels named
// <prefix>:<table>:<tenant id>.
type RedisFeed struct {
	client     *redis.Client
	prefix     string
	bufferSize int
}

// NewRedisFeed creates a feed on an existing client. The caller keeps ownership of the client.
func NewRedisFeed(client *redis.Client, prefix string, bufferSize int) *RedisFeed {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &RedisFeed{
		client:     client,
		prefix:     prefix,
		bufferSize: bufferSize,
	}
}

var (
	_ adapter.ChangePublisher = (*RedisFeed)(nil)
	_ adapter.ChangeFeed      = (*RedisFeed)(nil)
)

// Channel returns the channel name for a table of a tenant.
func (f *RedisFeed) Channel(table entity.ChangeTable, tenantID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", f.prefix, table, tenantID)
}

// Publish sends a change event to the tenant's table channel.
func (f *RedisFeed) Publish(ctx context.Context, event entity.ChangeEvent) error {
	data, err := json.Marshal(changeMessage{
		Table:        event.Table,
		Kind:         event.Kind,
		TenantID:     event.TenantID,
		RowID:        event.RowID,
		Transaction:  event.Transaction,
		Pool:         event.Pool,
		Counterparty: event.Counterparty,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	channel := f.Channel(event.Table, event.TenantID)
	if err := f.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	slog.DebugContext(ctx, "change event published",
		"channel", channel,
		"kind", event.Kind,
		"row_id", event.RowID,
	)
	return nil
}

// Subscribe opens a subscription to every table channel of the tenant.
// It returns once Redis has confirmed the subscription.
func (f *RedisFeed) Subscribe(ctx context.Context, tenantID uuid.UUID) (adapter.Subscription, error) {
	channels := make([]string, len(tables))
	for i, table := range tables {
		channels[i] = f.Channel(table, tenantID)
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pubsub := f.client.Subscribe(subCtx, channels...)

	// Wait for one confirmation per channel before returning.
	for range channels {
		if _, err := pubsub.Receive(ctx); err != nil {
			cancel()
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to change channels: %w", err)
		}
	}

	sub := &redisSubscription{
		tenantID: tenantID,
		pubsub:   pubsub,
		cancel:   cancel,
		events:   make(chan entity.ChangeEvent, f.bufferSize),
		done:     make(chan struct{}),
	}
	go sub.forward(subCtx)

	slog.InfoContext(ctx, "subscribed to change channels",
		"tenant_id", tenantID,
		"channels", channels,
	)
	return sub, nil
}

// redisSubscription forwards decoded messages in arrival order.
type redisSubscription struct {
	tenantID  uuid.UUID
	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	events    chan entity.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
}

// Events returns the stream of change events.
func (s *redisSubscription) Events() <-chan entity.ChangeEvent {
	return s.events
}

// Close stops the subscription and waits for the forwarder to exit.
func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

func (s *redisSubscription) forward(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var m changeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				slog.Error("failed to unmarshal change event",
					"channel", msg.Channel,
					"error", err,
				)
				continue
			}
			if m.TenantID != s.tenantID {
				continue
			}

			select {
			case s.events <- entity.ChangeEvent{
				Table:        m.Table,
				Kind:         m.Kind,
				TenantID:     m.TenantID,
				RowID:        m.RowID,
				Transaction:  m.Transaction,
				Pool:         m.Pool,
				Counterparty: m.Counterparty,
			}:
			case <-ctx.Done():
				return
			}
		}
	}
}
