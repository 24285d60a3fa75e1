package service

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"go.uber.org/zap"
)

// NotificationPublisher fans a stored notification out to an external channel.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *domain.Notification) error
}

// NotificationService records human-readable events and serves the notification feed.
type NotificationService interface {
	// Emit stores and fans out a notification. Failures are logged, never returned.
	Emit(ctx context.Context, n domain.Notification)

	List(ctx context.Context, caller domain.Caller, limit int) ([]*domain.Notification, error)
	Unread(ctx context.Context, caller domain.Caller) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, caller domain.Caller, id string) error
	MarkAllRead(ctx context.Context, caller domain.Caller) (int64, error)
}

type notificationService struct {
	store      repository.Store
	publishers []NotificationPublisher
	metrics    *Metrics
	logger     *zap.Logger
}

func NewNotificationService(store repository.Store, metrics *Metrics, logger *zap.Logger, publishers ...NotificationPublisher) NotificationService {
	return &notificationService{
		store:      store,
		publishers: publishers,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *notificationService) Emit(ctx context.Context, n domain.Notification) {
	if !n.Type.Valid() {
		n.Type = domain.NotificationInfo
	}
	id, err := s.store.Notifications().CreateNotification(ctx, &n)
	if err != nil {
		s.logger.Warn("failed to record notification",
			zap.String("title", n.Title),
			zap.String("scope", n.Scope.String()),
			zap.Error(err),
		)
		return
	}
	n.ID = id
	s.metrics.observeNotification(string(n.Type))

	for _, p := range s.publishers {
		if err := p.PublishNotification(ctx, &n); err != nil {
			s.logger.Warn("failed to publish notification",
				zap.String("notification_id", n.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *notificationService) List(ctx context.Context, caller domain.Caller, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := s.store.Notifications().ListNotifications(ctx, repository.NotificationFilters{
		Scope: caller.Scope,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *notificationService) Unread(ctx context.Context, caller domain.Caller) ([]*domain.Notification, error) {
	items, err := s.store.Notifications().ListNotifications(ctx, repository.NotificationFilters{
		Scope:      caller.Scope,
		UnreadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	return items, nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller domain.Caller, id string) error {
	if trimmed(id) == "" {
		return domain.MissingField("id")
	}
	return translate(s.store.Notifications().MarkRead(ctx, id, caller.Scope), "notification")
}

func (s *notificationService) MarkAllRead(ctx context.Context, caller domain.Caller) (int64, error) {
	n, err := s.store.Notifications().MarkAllRead(ctx, caller.Scope)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}
