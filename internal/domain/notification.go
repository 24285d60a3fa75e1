package domain

import (
	"database/sql"
	"time"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}

// Notification maps notifications.
type Notification struct {
	ID        string           `db:"id"`
	Title     string           `db:"title"`
	Message   string           `db:"message"`
	Type      NotificationType `db:"type"`
	IsRead    bool             `db:"is_read"`
	UserID    sql.NullString   `db:"user_id"`
	Scope     Scope            `db:"sector_id"`
	CreatedAt time.Time        `db:"created_at"`
}

func (n *Notification) ToJSON() map[string]any {
	return map[string]any{
		"id":         n.ID,
		"title":      n.Title,
		"message":    n.Message,
		"type":       n.Type,
		"is_read":    n.IsRead,
		"user_id":    nullString(n.UserID),
		"sector_id":  n.Scope,
		"created_at": n.CreatedAt,
	}
}
