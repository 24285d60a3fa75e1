package repository

import (
	"context"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

// OccupancyRecordsRepository is append-only: records are never updated or deleted.
type OccupancyRecordsRepository interface {
	AppendRecord(ctx context.Context, rec *domain.OccupancyRecord) (string, error)
	// ListRecords returns newest first.
	ListRecords(ctx context.Context, filters RecordFilters) ([]*domain.OccupancyRecord, error)
}
