package service

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"go.uber.org/zap"
)

// UnitService 单元管理服务接口
type UnitService interface {
	ListUnits(ctx context.Context, caller domain.Caller, req ListUnitsRequest) ([]*domain.Unit, error)
	GetUnit(ctx context.Context, caller domain.Caller, id string) (*domain.Unit, error)
	GetUnitByCode(ctx context.Context, caller domain.Caller, code string) (*domain.Unit, error)
	CreateUnit(ctx context.Context, caller domain.Caller, req CreateUnitRequest) (*domain.Unit, error)
	UpdateUnit(ctx context.Context, caller domain.Caller, req UpdateUnitRequest) (*domain.Unit, error)
	DeleteUnit(ctx context.Context, caller domain.Caller, id string) error

	// ListUnitResidents returns the unit's active residents from both ledgers.
	ListUnitResidents(ctx context.Context, caller domain.Caller, unitID string) ([]*domain.Resident, error)
	ImportUnits(ctx context.Context, caller domain.Caller, req ImportUnitsRequest) (*ImportUnitsResponse, error)
}

type unitService struct {
	store  repository.Store
	notify NotificationService
	cache  *DashboardCache
	logger *zap.Logger
}

// NewUnitService 创建 UnitService 实例
func NewUnitService(store repository.Store, notify NotificationService, cache *DashboardCache, logger *zap.Logger) UnitService {
	return &unitService{
		store:  store,
		notify: notify,
		cache:  cache,
		logger: logger,
	}
}

// ============================================
// Unit 相关请求/响应结构
// ============================================

type ListUnitsRequest struct {
	Type     domain.UnitType   // 可选
	Status   domain.UnitStatus // 可选
	Search   string            // 可选（code, name, building_name 模糊搜索）
	SectorID string            // 可选，仅全局调用者有效
}

type CreateUnitRequest struct {
	Code         string          `json:"code" validate:"required,max=50"`
	Name         string          `json:"name" validate:"required,max=200"`
	Type         domain.UnitType `json:"type" validate:"required,oneof=apartment chalet"`
	SectorID     *string         `json:"sectorId"`
	Floor        string          `json:"floor" validate:"max=20"`
	Rooms        int             `json:"rooms" validate:"omitempty,min=1"` // 默认 1
	Beds         int             `json:"beds" validate:"omitempty,min=1"`  // 默认 1
	OwnerName    string          `json:"ownerName"`
	BuildingName string          `json:"buildingName"`
	Notes        string          `json:"notes"`
}

// UpdateUnitRequest is a patch: nil fields are left unchanged. An empty SectorID makes the unit global.
type UpdateUnitRequest struct {
	ID           string             `json:"id" validate:"required"`
	Code         *string            `json:"code" validate:"omitempty,min=1,max=50"`
	Name         *string            `json:"name" validate:"omitempty,min=1,max=200"`
	Type         *domain.UnitType   `json:"type" validate:"omitempty,oneof=apartment chalet"`
	SectorID     *string            `json:"sectorId"`
	Floor        *string            `json:"floor" validate:"omitempty,max=20"`
	Rooms        *int               `json:"rooms" validate:"omitempty,min=1"`
	Beds         *int               `json:"beds" validate:"omitempty,min=1"`
	Status       *domain.UnitStatus `json:"status" validate:"omitempty,oneof=vacant occupied maintenance"`
	OwnerName    *string            `json:"ownerName"`
	BuildingName *string            `json:"buildingName"`
	Notes        *string            `json:"notes"`
}

type UnitImportRow struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Type  domain.UnitType `json:"type"`
	Floor string          `json:"floor"`
	Rooms int             `json:"rooms"`
	Beds  int             `json:"beds"`
	Notes string          `json:"notes"`
}

type ImportUnitsRequest struct {
	SectorID *string         `json:"sectorId"`
	Units    []UnitImportRow `json:"units"`
}

type UnitImportError struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ImportUnitsResponse struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Errors  []UnitImportError `json:"errors"`
}

// ============================================
// 实现
// ============================================

func (s *unitService) ListUnits(ctx context.Context, caller domain.Caller, req ListUnitsRequest) ([]*domain.Unit, error) {
	units, err := s.store.Units().ListUnits(ctx, repository.UnitFilters{
		Type:   req.Type,
		Status: req.Status,
		Search: trimmed(req.Search),
		Scope:  caller.Scope.Narrow(domain.SectorScope(req.SectorID)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (s *unitService) GetUnit(ctx context.Context, caller domain.Caller, id string) (*domain.Unit, error) {
	u, err := s.store.Units().GetUnit(ctx, id)
	if err != nil {
		return nil, translate(err, "unit")
	}
	if !caller.Scope.Allows(u.Scope) {
		return nil, domain.NotFound("unit")
	}
	return u, nil
}

func (s *unitService) GetUnitByCode(ctx context.Context, caller domain.Caller, code string) (*domain.Unit, error) {
	u, err := s.store.Units().GetUnitByCode(ctx, trimmed(code))
	if err != nil {
		return nil, translate(err, "unit")
	}
	if !caller.Scope.Allows(u.Scope) {
		return nil, domain.NotFound("unit")
	}
	return u, nil
}

func (s *unitService) CreateUnit(ctx context.Context, caller domain.Caller, req CreateUnitRequest) (*domain.Unit, error) {
	// 1. 参数验证（必填字段）
	req.Code = trimmed(req.Code)
	req.Name = trimmed(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// 2. 应用默认值
	scope, err := resolveScope(ctx, s.store, caller, req.SectorID)
	if err != nil {
		return nil, err
	}
	unit := &domain.Unit{
		Code:         req.Code,
		Name:         req.Name,
		Type:         req.Type,
		Scope:        scope,
		Floor:        domain.NewNullString(trimmed(req.Floor)),
		Rooms:        defaultOne(req.Rooms),
		Beds:         defaultOne(req.Beds),
		Status:       domain.UnitStatusVacant,
		OwnerName:    domain.NewNullString(trimmed(req.OwnerName)),
		BuildingName: domain.NewNullString(trimmed(req.BuildingName)),
		Notes:        domain.NewNullString(trimmed(req.Notes)),
	}

	// 3. 调用 Repository
	id, err := s.store.Units().CreateUnit(ctx, unit)
	if err != nil {
		s.logger.Error("CreateUnit failed", zap.String("code", req.Code), zap.Error(err))
		return nil, translate(err, "unit")
	}
	unit.ID = id
	s.cache.Invalidate(ctx)
	return unit, nil
}

func (s *unitService) UpdateUnit(ctx context.Context, caller domain.Caller, req UpdateUnitRequest) (*domain.Unit, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var updated *domain.Unit
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		cur, err := tx.Units().LockUnit(ctx, req.ID)
		if err != nil {
			return translate(err, "unit")
		}
		if !caller.Scope.Allows(cur.Scope) {
			return domain.NotFound("unit")
		}

		u := *cur
		if req.Code != nil {
			u.Code = trimmed(*req.Code)
		}
		if req.Name != nil {
			u.Name = trimmed(*req.Name)
		}
		if req.Type != nil && *req.Type != u.Type {
			if u.CurrentOccupants > 0 {
				return domain.Conflict("cannot change the type of an occupied unit")
			}
			u.Type = *req.Type
		}
		if req.SectorID != nil {
			if !caller.Scope.IsGlobal() {
				return domain.Conflict("only global users can move a unit between sectors")
			}
			scope, err := resolveScope(ctx, tx, caller, req.SectorID)
			if err != nil {
				return err
			}
			u.Scope = scope
		}
		if req.Floor != nil {
			u.Floor = domain.NewNullString(trimmed(*req.Floor))
		}
		if req.Rooms != nil {
			u.Rooms = *req.Rooms
		}
		if req.Beds != nil {
			if *req.Beds < u.CurrentOccupants {
				return domain.Conflict(fmt.Sprintf("unit has %d occupants, beds cannot drop to %d", u.CurrentOccupants, *req.Beds))
			}
			u.Beds = *req.Beds
		}
		if req.OwnerName != nil {
			u.OwnerName = domain.NewNullString(trimmed(*req.OwnerName))
		}
		if req.BuildingName != nil {
			u.BuildingName = domain.NewNullString(trimmed(*req.BuildingName))
		}
		if req.Notes != nil {
			u.Notes = domain.NewNullString(trimmed(*req.Notes))
		}
		// maintenance 可手动设置/清除，其余状态由入住人数决定
		if req.Status != nil {
			if *req.Status == domain.UnitStatusMaintenance {
				u.Status = domain.UnitStatusMaintenance
			} else {
				u.Status = domain.OccupancyStatus(u.CurrentOccupants)
			}
		}

		if err := tx.Units().UpdateUnit(ctx, &u); err != nil {
			return translate(err, "unit")
		}
		updated = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return updated, nil
}

func (s *unitService) DeleteUnit(ctx context.Context, caller domain.Caller, id string) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.Units().LockUnit(ctx, id)
		if err != nil {
			return translate(err, "unit")
		}
		if !caller.Scope.Allows(u.Scope) {
			return domain.NotFound("unit")
		}
		if u.CurrentOccupants > 0 {
			return domain.Conflict(fmt.Sprintf("unit %s still has %d occupants", u.Code, u.CurrentOccupants))
		}
		return translate(tx.Units().DeleteUnit(ctx, id), "unit")
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("unit deleted", zap.String("unit_id", id))
	return nil
}

func (s *unitService) ListUnitResidents(ctx context.Context, caller domain.Caller, unitID string) ([]*domain.Resident, error) {
	if _, err := s.GetUnit(ctx, caller, unitID); err != nil {
		return nil, err
	}
	residents, err := s.store.Residents().ListActiveByUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unit residents: %w", err)
	}
	if residents == nil {
		residents = []*domain.Resident{}
	}
	return residents, nil
}

func (s *unitService) ImportUnits(ctx context.Context, caller domain.Caller, req ImportUnitsRequest) (*ImportUnitsResponse, error) {
	scope, err := resolveScope(ctx, s.store, caller, req.SectorID)
	if err != nil {
		return nil, err
	}

	resp := &ImportUnitsResponse{Errors: []UnitImportError{}}
	for _, row := range req.Units {
		_, err := s.CreateUnit(ctx, caller, CreateUnitRequest{
			Code:     row.Code,
			Name:     row.Name,
			Type:     row.Type,
			SectorID: scopeSectorID(scope),
			Floor:    row.Floor,
			Rooms:    row.Rooms,
			Beds:     row.Beds,
			Notes:    row.Notes,
		})
		switch {
		case err == nil:
			resp.Created++
		case domain.IsKind(err, domain.KindDuplicateCode):
			resp.Skipped++
			resp.Errors = append(resp.Errors, UnitImportError{Code: row.Code, Error: err.Error()})
		default:
			resp.Errors = append(resp.Errors, UnitImportError{Code: row.Code, Error: err.Error()})
		}
	}

	if resp.Created > 0 {
		s.notify.Emit(ctx, domain.Notification{
			Title:   "استيراد وحدات",
			Message: fmt.Sprintf("تم استيراد %d وحدة سكنية بنجاح", resp.Created),
			Type:    domain.NotificationSuccess,
			Scope:   scope,
		})
	}
	return resp, nil
}

// resolveScope picks the scope of a new item: sector callers always use their own sector,
// global callers may name an existing sector or leave it global.
func resolveScope(ctx context.Context, store repository.Store, caller domain.Caller, sectorID *string) (domain.Scope, error) {
	if !caller.Scope.IsGlobal() {
		return caller.Scope, nil
	}
	if sectorID == nil || trimmed(*sectorID) == "" {
		return domain.GlobalScope(), nil
	}
	sec, err := store.Sectors().GetSector(ctx, trimmed(*sectorID))
	if err != nil {
		return domain.Scope{}, translate(err, "sector")
	}
	return sec.Scope(), nil
}

func scopeSectorID(scope domain.Scope) *string {
	id, ok := scope.SectorID()
	if !ok {
		return nil
	}
	return &id
}

func defaultOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
