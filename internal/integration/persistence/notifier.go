package persistence

import (
	"context"
	"log/slog"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/domain/entity"
)

// changeNotifier publishes committed changes. A nil publisher disables it.
type changeNotifier struct {
	publisher adapter.ChangePublisher
}

// notify publishes each event. Failures are logged and never fail the write,
// since clients fall back to periodic revalidation.
func (n changeNotifier) notify(ctx context.Context, events ...entity.ChangeEvent) {
	if n.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := n.publisher.Publish(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish change event",
				"table", ev.Table,
				"kind", ev.Kind,
				"tenant_id", ev.TenantID,
				"row_id", ev.RowID,
				"error", err,
			)
		}
	}
}

func transactionEvent(kind entity.ChangeKind, t *entity.Transaction) entity.ChangeEvent {
	return entity.ChangeEvent{
		Table:       entity.TableTransactions,
		Kind:        kind,
		TenantID:    t.TenantID,
		RowID:       t.ID,
		Transaction: t,
	}
}
