package store

import (
	"context"
	"testing"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	events []string
	data   []any
}

func (w *recordingWriter) PublishJSON(_ context.Context, event string, data any) (string, error) {
	w.events = append(w.events, event)
	w.data = append(w.data, data)
	return "1-0", nil
}

func TestStreamNotificationPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := NewStreamNotificationPublisher(w)

	err := p.PublishNotification(context.Background(), &domain.Notification{
		ID:      "n-1",
		Title:   "إخلاء جماعي",
		Message: "تم إخلاء 2 ساكن",
		Type:    domain.NotificationWarning,
	})
	require.NoError(t, err)
	require.Len(t, w.events, 1)
	assert.Equal(t, "notification.created", w.events[0])

	m, ok := w.data[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "n-1", m["id"])
	assert.Equal(t, domain.NotificationWarning, m["type"])
}
