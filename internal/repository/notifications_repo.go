package repository

import (
	"context"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

type NotificationsRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) (string, error)
	ListNotifications(ctx context.Context, filters NotificationFilters) ([]*domain.Notification, error)
	// MarkRead marks one notification; one outside scope is reported as ErrNotFound.
	MarkRead(ctx context.Context, id string, scope domain.Scope) error
	// MarkAllRead marks every unread notification visible to scope and returns how many changed.
	MarkAllRead(ctx context.Context, scope domain.Scope) (int64, error)
}
