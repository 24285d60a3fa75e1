package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"go.uber.org/zap"
)

// jsonPublisher is the part of the shared MQTT client used here.
type jsonPublisher interface {
	PublishJSON(topic string, v any) error
}

// NotificationMessage is the payload published for every stored notification.
type NotificationMessage struct {
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	SectorID  domain.Scope            `json:"sectorId"`
	CreatedAt time.Time               `json:"createdAt"`
}

// NotificationPublisher 将通知推送到 MQTT。
// Sector notifications go to <topic>/<sectorID>, global ones to <topic>/global.
type NotificationPublisher struct {
	client jsonPublisher
	topic  string
	logger *zap.Logger
}

func NewNotificationPublisher(client jsonPublisher, topic string, logger *zap.Logger) *NotificationPublisher {
	return &NotificationPublisher{client: client, topic: topic, logger: logger}
}

// TopicFor returns the topic a notification of the given scope is published on.
func (p *NotificationPublisher) TopicFor(scope domain.Scope) string {
	if id, ok := scope.SectorID(); ok {
		return p.topic + "/" + id
	}
	return p.topic + "/global"
}

func (p *NotificationPublisher) PublishNotification(_ context.Context, n *domain.Notification) error {
	msg := NotificationMessage{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		SectorID:  n.Scope,
		CreatedAt: n.CreatedAt,
	}
	topic := p.TopicFor(n.Scope)
	if err := p.client.PublishJSON(topic, msg); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	p.logger.Debug("notification published", zap.String("topic", topic), zap.String("notification_id", n.ID))
	return nil
}
