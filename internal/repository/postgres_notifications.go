package repository

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, title, message, type, is_read, user_id, sector_id, created_at`

type postgresNotifications struct {
	q sqlx.ExtContext
}

func (r *postgresNotifications) CreateNotification(ctx context.Context, n *domain.Notification) (string, error) {
	var id string
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO notifications (title, message, type, user_id, sector_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		n.Title, n.Message, string(n.Type), n.UserID, n.Scope,
	).Scan(&id, &n.CreatedAt)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (r *postgresNotifications) ListNotifications(ctx context.Context, filters NotificationFilters) ([]*domain.Notification, error) {
	var w whereBuilder
	if filters.UnreadOnly {
		w.add("is_read = FALSE")
	}
	w.scope("sector_id", filters.Scope)
	query := `SELECT ` + notificationColumns + ` FROM notifications` + w.String() + ` ORDER BY created_at DESC, id DESC`
	query += w.limit(filters.Limit)

	out := []*domain.Notification{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, w.args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (r *postgresNotifications) MarkRead(ctx context.Context, id string, scope domain.Scope) error {
	var w whereBuilder
	w.add("id = ?", id)
	w.scope("sector_id", scope)
	res, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE`+w.String(), w.args...)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *postgresNotifications) MarkAllRead(ctx context.Context, scope domain.Scope) (int64, error) {
	var w whereBuilder
	w.add("is_read = FALSE")
	w.scope("sector_id", scope)
	res, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE`+w.String(), w.args...)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
