package repository

import (
	"context"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

type ImportLogsRepository interface {
	CreateImportLog(ctx context.Context, l *domain.ImportLog) (string, error)
	// UpdateImportLog writes counters, errors and status.
	UpdateImportLog(ctx context.Context, l *domain.ImportLog) error
	GetImportLog(ctx context.Context, id string) (*domain.ImportLog, error)
	ListImportLogs(ctx context.Context, limit int) ([]*domain.ImportLog, error)
}
