package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/metrics"
	"github.com/iliyamo/cinesocial/internal/queue"
)

// Notifier receives an activity message after a mutation commits.  A
// Notifier failure never undoes the mutation.
type Notifier interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, queue.ActivityEvent) error { return nil }

// AsyncNotifier hands each message to Next on its own goroutine, detached
// from the request context, so a slow broker never delays a response.
type AsyncNotifier struct {
	Next    Notifier
	Timeout time.Duration
	Log     *zap.Logger
}

func (a *AsyncNotifier) Publish(ctx context.Context, ev queue.ActivityEvent) error {
	go a.deliver(context.WithoutCancel(ctx), ev)
	return nil
}

func (a *AsyncNotifier) deliver(ctx context.Context, ev queue.ActivityEvent) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := a.Next.Publish(ctx, ev); err != nil {
		metrics.ActivityPublishFailures.Inc()
		log.Warn("activity publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}
