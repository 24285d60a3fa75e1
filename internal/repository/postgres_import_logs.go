package repository

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
)

const importLogColumns = `id, file_name, total_rows, success_rows, failed_rows, errors, status,
	imported_by, created_at, updated_at`

type postgresImportLogs struct {
	q sqlx.ExtContext
}

func (r *postgresImportLogs) CreateImportLog(ctx context.Context, l *domain.ImportLog) (string, error) {
	status := l.Status
	if status == "" {
		status = domain.ImportStatusProcessing
	}
	var id string
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO import_logs (file_name, total_rows, success_rows, failed_rows, errors, status, imported_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		l.FileName, l.TotalRows, l.SuccessRows, l.FailedRows, l.Errors, string(status), l.ImportedBy,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (r *postgresImportLogs) UpdateImportLog(ctx context.Context, l *domain.ImportLog) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE import_logs SET success_rows = $2, failed_rows = $3, errors = $4, status = $5, updated_at = now()
		WHERE id = $1`,
		l.ID, l.SuccessRows, l.FailedRows, l.Errors, string(l.Status),
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *postgresImportLogs) GetImportLog(ctx context.Context, id string) (*domain.ImportLog, error) {
	var l domain.ImportLog
	if err := sqlx.GetContext(ctx, r.q, &l, `SELECT `+importLogColumns+` FROM import_logs WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

func (r *postgresImportLogs) ListImportLogs(ctx context.Context, limit int) ([]*domain.ImportLog, error) {
	var w whereBuilder
	query := `SELECT ` + importLogColumns + ` FROM import_logs ORDER BY created_at DESC, id DESC` + w.limit(limit)
	out := []*domain.ImportLog{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, w.args...); err != nil {
		return nil, fmt.Errorf("list import logs: %w", err)
	}
	return out, nil
}
