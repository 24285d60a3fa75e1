package service

import (
	"context"
	"errors"
	"testing"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishNotification(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func TestNotificationService_EmitFansOut(t *testing.T) {
	ctx := context.Background()
	st := repository.NewMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())

	failing := &mockPublisher{}
	failing.On("PublishNotification", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.ID != "" && n.Title == "تسكين جديد"
	})).Return(errors.New("broker down")).Once()
	ok := &mockPublisher{}
	ok.On("PublishNotification", mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewNotificationService(st, metrics, zap.NewNop(), failing, ok)
	svc.Emit(ctx, domain.Notification{Title: "تسكين جديد", Message: "m", Type: "bogus"})

	failing.AssertExpectations(t)
	ok.AssertExpectations(t)

	items, err := svc.List(ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.NotificationInfo, items[0].Type)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.notifications.WithLabelValues("info")))
}

func TestNotificationService_ScopeAndRead(t *testing.T) {
	f := newFixture(t)
	north, south := f.sector("N"), f.sector("S")
	f.notify.Emit(f.ctx, domain.Notification{Title: "global", Type: domain.NotificationInfo})
	f.notify.Emit(f.ctx, domain.Notification{Title: "north", Type: domain.NotificationInfo, Scope: north.Scope()})
	f.notify.Emit(f.ctx, domain.Notification{Title: "south", Type: domain.NotificationInfo, Scope: south.Scope()})
	caller := domain.Caller{UserID: "u-1", Role: domain.RoleUser, Scope: north.Scope()}

	items, err := f.notify.List(f.ctx, caller, 0)
	require.NoError(t, err)
	titles := []string{}
	for _, n := range items {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"north", "global"}, titles)

	require.NoError(t, f.notify.MarkRead(f.ctx, caller, items[0].ID))
	unread, err := f.notify.Unread(f.ctx, caller)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "global", unread[0].Title)

	n, err := f.notify.MarkAllRead(f.ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, err = f.notify.Unread(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "south", unread[0].Title)

	// 其他片区的通知对该用户不可见
	southItems, err := f.notify.Unread(f.ctx, domain.Caller{Role: domain.RoleUser, Scope: south.Scope()})
	require.NoError(t, err)
	require.Len(t, southItems, 1)
	requireKind(t, f.notify.MarkRead(f.ctx, caller, southItems[0].ID), domain.KindNotFound)
	unread, err = f.notify.Unread(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	requireKind(t, f.notify.MarkRead(f.ctx, admin, "missing"), domain.KindNotFound)
	requireKind(t, f.notify.MarkRead(f.ctx, admin, ""), domain.KindMissingField)
}
