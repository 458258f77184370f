// Package service implements the review, watchlist and event operations.
// Each mutating method runs in exactly one store transaction; derived
// movie fields are written in the same transaction as the rows they are
// derived from.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/apperr"
	"github.com/iliyamo/cinesocial/internal/metrics"
	"github.com/iliyamo/cinesocial/internal/queue"
	"github.com/iliyamo/cinesocial/internal/store"
)

type base struct {
	store    store.Store
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func newBase(st store.Store, n Notifier, log *zap.Logger) base {
	if n == nil {
		n = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return base{store: st, notifier: n, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// notify publishes ev once the transaction has committed.  Failures are
// only logged.
func (b *base) notify(ctx context.Context, ev queue.ActivityEvent) {
	ev.OccurredAt = b.now().Format(time.RFC3339)
	if err := b.notifier.Publish(ctx, ev); err != nil {
		metrics.ActivityPublishFailures.Inc()
		b.log.Warn("activity publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

// finish records the outcome of op and passes err through.
func (b *base) finish(op string, err error) error {
	outcome := "ok"
	if err != nil {
		if kind, ok := apperr.KindOf(err); ok {
			outcome = string(kind)
		} else {
			outcome = "error"
			b.log.Error("operation failed", zap.String("op", op), zap.Error(err))
		}
	}
	metrics.RecordMutation(op, outcome)
	return err
}
