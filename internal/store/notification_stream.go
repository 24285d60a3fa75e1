package store

import (
	"context"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

// NotificationStream is the Redis stream that receives every stored notification.
const NotificationStream = "housing:notifications"

const notificationEvent = "notification.created"

// streamWriter is implemented by common/redis.StreamPublisher.
type streamWriter interface {
	PublishJSON(ctx context.Context, event string, data any) (string, error)
}

// StreamNotificationPublisher appends notifications to a Redis stream.
type StreamNotificationPublisher struct {
	w streamWriter
}

func NewStreamNotificationPublisher(w streamWriter) *StreamNotificationPublisher {
	return &StreamNotificationPublisher{w: w}
}

func (p *StreamNotificationPublisher) PublishNotification(ctx context.Context, n *domain.Notification) error {
	_, err := p.w.PublishJSON(ctx, notificationEvent, n.ToJSON())
	return err
}
