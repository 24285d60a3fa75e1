package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"go.uber.org/zap"
)

// ResidentService 住户查询与资料维护. Placement changes go through OccupancyService.
type ResidentService interface {
	ListResidents(ctx context.Context, caller domain.Caller, req ListResidentsRequest) ([]*domain.Resident, error)
	GetResident(ctx context.Context, caller domain.Caller, ref domain.ResidentRef) (*domain.Resident, error)
	UpdateResident(ctx context.Context, caller domain.Caller, req UpdateResidentRequest) (*domain.Resident, error)
}

type residentService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewResidentService(store repository.Store, logger *zap.Logger) ResidentService {
	return &residentService{store: store, logger: logger}
}

type ListResidentsRequest struct {
	Population domain.Population     // 必填
	Status     domain.ResidentStatus // 可选
	UnitID     string                // 可选
	Search     string                // 可选（姓名、证件号、电话）
}

// UpdateResidentRequest patches identity and contact fields; nil fields are unchanged.
type UpdateResidentRequest struct {
	Population     domain.Population `json:"type" validate:"required,oneof=egyptian russian"`
	ID             string            `json:"id" validate:"required"`
	Name           *string           `json:"name" validate:"omitempty,min=1,max=255"`
	NationalID     *string           `json:"nationalId" validate:"omitempty,max=20"`
	PassportNumber *string           `json:"passportNumber" validate:"omitempty,max=50"`
	Nationality    *string           `json:"nationality" validate:"omitempty,max=100"`
	Gender         *domain.Gender    `json:"gender" validate:"omitempty,oneof=male female"`
	Phone          *string           `json:"phone" validate:"omitempty,max=20"`
	Shift          *string           `json:"shift" validate:"omitempty,max=50"`
	OCRConfidence  *int              `json:"ocrConfidence" validate:"omitempty,min=0,max=100"`
	ImageURL       *string           `json:"imageUrl"`
}

func (s *residentService) ListResidents(ctx context.Context, caller domain.Caller, req ListResidentsRequest) ([]*domain.Resident, error) {
	if !req.Population.Valid() {
		return nil, domain.MissingField("type")
	}
	out, err := s.store.Residents().ListResidents(ctx, req.Population, repository.ResidentFilters{
		Status: req.Status,
		UnitID: req.UnitID,
		Search: trimmed(req.Search),
		Scope:  caller.Scope,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	return out, nil
}

func (s *residentService) GetResident(ctx context.Context, caller domain.Caller, ref domain.ResidentRef) (*domain.Resident, error) {
	if !ref.Population.Valid() {
		return nil, domain.MissingField("type")
	}
	r, err := s.store.Residents().GetResident(ctx, ref.Population, ref.ID)
	if err != nil {
		return nil, translate(err, "resident")
	}
	visible, err := residentVisible(ctx, s.store, caller, r)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, domain.NotFound("resident")
	}
	return r, nil
}

func (s *residentService) UpdateResident(ctx context.Context, caller domain.Caller, req UpdateResidentRequest) (*domain.Resident, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	r, err := s.GetResident(ctx, caller, domain.ResidentRef{Population: req.Population, ID: req.ID})
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		r.Name = trimmed(*req.Name)
	}
	if req.NationalID != nil && r.Population == domain.PopulationEgyptian {
		r.NationalID = trimmed(*req.NationalID)
	}
	if r.Population == domain.PopulationRussian {
		if req.PassportNumber != nil {
			r.PassportNumber = trimmed(*req.PassportNumber)
		}
		if req.Nationality != nil && trimmed(*req.Nationality) != "" {
			r.Nationality = trimmed(*req.Nationality)
		}
		if req.Gender != nil {
			r.Gender = *req.Gender
		}
	}
	if req.Phone != nil {
		r.Phone = domain.NewNullString(trimmed(*req.Phone))
	}
	if req.Shift != nil {
		r.Shift = domain.NewNullString(trimmed(*req.Shift))
	}
	if req.OCRConfidence != nil {
		r.OCRConfidence.Int64, r.OCRConfidence.Valid = int64(*req.OCRConfidence), true
	}
	if req.ImageURL != nil {
		r.ImageURL = domain.NewNullString(*req.ImageURL)
	}

	if err := s.store.Residents().UpdateResident(ctx, r); err != nil {
		return nil, translate(err, "resident")
	}
	return r, nil
}

// residentVisible applies the caller scope through the resident's current or last unit.
func residentVisible(ctx context.Context, store repository.Store, caller domain.Caller, r *domain.Resident) (bool, error) {
	if caller.Scope.IsGlobal() {
		return true, nil
	}
	unitID := r.UnitID
	if !unitID.Valid {
		unitID = r.LastUnitID
	}
	if !unitID.Valid {
		return true, nil
	}
	u, err := store.Units().GetUnit(ctx, unitID.String)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to resolve resident unit: %w", err)
	}
	return caller.Scope.Allows(u.Scope), nil
}
