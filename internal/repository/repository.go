package repository

import (
	"context"
	"errors"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup or a targeted update matches no row.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("repository: duplicate key")
)

// Store is the data-access object handed to services at construction time.
// Every repository obtained from a Store returned to an InTx callback runs inside that
// transaction.
type Store interface {
	Units() UnitsRepository
	Residents() ResidentsRepository
	OccupancyRecords() OccupancyRecordsRepository
	Sectors() SectorsRepository
	Users() UsersRepository
	ImportLogs() ImportLogsRepository
	Notifications() NotificationsRepository

	// InTx runs fn in one transaction; a non-nil error from fn rolls everything back.
	// Calling InTx on a transactional Store reuses the open transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}

// UnitFilters 单元查询过滤器
type UnitFilters struct {
	Type   domain.UnitType
	Status domain.UnitStatus
	Search string // code, name, building_name
	Scope  domain.Scope
}

// ResidentFilters filters one population table.
type ResidentFilters struct {
	Status domain.ResidentStatus
	UnitID string
	Search string // name, identity document, phone
	// Scope applies through the resident's current (or last) unit.
	Scope domain.Scope
}

// RecordFilters filters occupancy_records; Limit <= 0 returns everything.
type RecordFilters struct {
	UnitID     string
	ResidentID string
	Action     domain.OccupancyAction
	Scope      domain.Scope
	Limit      int
}

// NotificationFilters filters notifications; Limit <= 0 returns everything.
type NotificationFilters struct {
	Scope      domain.Scope
	UnreadOnly bool
	Limit      int
}
