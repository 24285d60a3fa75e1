package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PublishJSON(topic string, v any) error {
	args := m.Called(topic, v)
	return args.Error(0)
}

func TestNotificationPublisher_Topics(t *testing.T) {
	p := NewNotificationPublisher(&mockClient{}, "housing/notifications", zap.NewNop())
	assert.Equal(t, "housing/notifications/global", p.TopicFor(domain.GlobalScope()))
	assert.Equal(t, "housing/notifications/s-1", p.TopicFor(domain.SectorScope("s-1")))
}

func TestNotificationPublisher_Publish(t *testing.T) {
	c := &mockClient{}
	c.On("PublishJSON", "housing/notifications/s-1", mock.MatchedBy(func(v any) bool {
		msg, ok := v.(NotificationMessage)
		return ok && msg.ID == "n-1" && msg.Title == "تسكين جديد" && msg.Type == domain.NotificationSuccess
	})).Return(nil).Once()

	p := NewNotificationPublisher(c, "housing/notifications", zap.NewNop())
	err := p.PublishNotification(context.Background(), &domain.Notification{
		ID:    "n-1",
		Title: "تسكين جديد",
		Type:  domain.NotificationSuccess,
		Scope: domain.SectorScope("s-1"),
	})
	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestNotificationPublisher_PublishError(t *testing.T) {
	c := &mockClient{}
	c.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("not connected"))

	p := NewNotificationPublisher(c, "housing/notifications", zap.NewNop())
	err := p.PublishNotification(context.Background(), &domain.Notification{ID: "n-2"})
	assert.ErrorContains(t, err, "not connected")
}
