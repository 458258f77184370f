package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/cinesocial/internal/queue"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(ctx context.Context, ev queue.ActivityEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func newPermissiveNotifier() *mockNotifier {
	n := new(mockNotifier)
	n.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return n
}

func activityOfType(typ string) any {
	return mock.MatchedBy(func(ev queue.ActivityEvent) bool { return ev.Type == typ })
}

func ptr[T any](v T) *T { return &v }
