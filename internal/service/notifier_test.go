package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinesocial/internal/queue"
)

type failingNotifier struct {
	deadline bool
}

func (f *failingNotifier) Publish(ctx context.Context, _ queue.ActivityEvent) error {
	_, f.deadline = ctx.Deadline()
	return errors.New("broker unreachable")
}

func TestAsyncNotifierDeliverWithoutLogger(t *testing.T) {
	next := &failingNotifier{}
	a := &AsyncNotifier{Next: next}

	require.NotPanics(t, func() { a.deliver(context.Background(), queue.ActivityEvent{Type: queue.EventJoined}) })
	assert.True(t, next.deadline)
}

func TestAsyncNotifierPublishReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	a := &AsyncNotifier{Next: blockingNotifier(done), Timeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, a.Publish(ctx, queue.ActivityEvent{Type: queue.ReviewCreated}))
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}

type blockingNotifier chan struct{}

// Publish waits briefly so the caller's context is cancelled before it
// returns; delivery must not be cut short by that.
func (b blockingNotifier) Publish(ctx context.Context, _ queue.ActivityEvent) error {
	time.Sleep(10 * time.Millisecond)
	if ctx.Err() == nil {
		close(b)
	}
	return nil
}
