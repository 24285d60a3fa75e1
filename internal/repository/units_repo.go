package repository

import (
	"context"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

// UnitsRepository 住房单元 Repository
//
// 职责边界:
//   - 只做 units 表的读写，不做容量/人口校验（由 OccupancyService 负责）
//   - current_occupants 只能通过 SetOccupancy 修改
type UnitsRepository interface {
	ListUnits(ctx context.Context, filters UnitFilters) ([]*domain.Unit, error)
	GetUnit(ctx context.Context, id string) (*domain.Unit, error)
	GetUnitByCode(ctx context.Context, code string) (*domain.Unit, error)

	// LockUnit reads the unit and holds its row lock until the surrounding transaction ends.
	LockUnit(ctx context.Context, id string) (*domain.Unit, error)

	// CreateUnit inserts a unit and returns its id; a taken code returns ErrDuplicate.
	CreateUnit(ctx context.Context, unit *domain.Unit) (string, error)
	// UpdateUnit writes descriptive fields and status. The occupant counter is left untouched.
	UpdateUnit(ctx context.Context, unit *domain.Unit) error
	SetOccupancy(ctx context.Context, id string, occupants int, status domain.UnitStatus) error
	DeleteUnit(ctx context.Context, id string) error
}
