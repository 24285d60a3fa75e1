package service

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"go.uber.org/zap"
)

// SectorService manages sectors and which sector each user works in.
type SectorService interface {
	ListSectors(ctx context.Context) ([]*domain.Sector, error)
	GetSector(ctx context.Context, id string) (*domain.Sector, error)
	CreateSector(ctx context.Context, req CreateSectorRequest) (*domain.Sector, error)
	UpdateSector(ctx context.Context, req UpdateSectorRequest) (*domain.Sector, error)
	// DeleteSector makes the sector's units, users and notifications global.
	DeleteSector(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]*domain.User, error)
	// AssignUser moves a user into a sector; an empty sectorID makes the user global.
	AssignUser(ctx context.Context, userID, sectorID string) (*domain.User, error)
	// SyncUser records a sign-in for an external identity and returns the stored user.
	SyncUser(ctx context.Context, openID, name, email string) (*domain.User, error)
}

type sectorService struct {
	store  repository.Store
	cache  *DashboardCache
	logger *zap.Logger
}

func NewSectorService(store repository.Store, cache *DashboardCache, logger *zap.Logger) SectorService {
	return &sectorService{store: store, cache: cache, logger: logger}
}

type CreateSectorRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Code        string `json:"code" validate:"required,max=50"`
	Description string `json:"description"`
	Color       string `json:"color" validate:"omitempty,max=20"`
}

type UpdateSectorRequest struct {
	ID          string  `json:"id" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code        *string `json:"code" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description"`
	Color       *string `json:"color" validate:"omitempty,max=20"`
}

func (s *sectorService) ListSectors(ctx context.Context) ([]*domain.Sector, error) {
	out, err := s.store.Sectors().ListSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	return out, nil
}

func (s *sectorService) GetSector(ctx context.Context, id string) (*domain.Sector, error) {
	sec, err := s.store.Sectors().GetSector(ctx, id)
	if err != nil {
		return nil, translate(err, "sector")
	}
	return sec, nil
}

func (s *sectorService) CreateSector(ctx context.Context, req CreateSectorRequest) (*domain.Sector, error) {
	req.Name = trimmed(req.Name)
	req.Code = trimmed(req.Code)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	sec := &domain.Sector{
		Name:        req.Name,
		Code:        req.Code,
		Description: domain.NewNullString(trimmed(req.Description)),
		Color:       trimmed(req.Color),
	}
	if sec.Color == "" {
		sec.Color = domain.DefaultSectorColor
	}
	id, err := s.store.Sectors().CreateSector(ctx, sec)
	if err != nil {
		return nil, translate(err, "sector")
	}
	sec.ID = id
	s.logger.Info("sector created", zap.String("sector_id", id), zap.String("code", sec.Code))
	return sec, nil
}

func (s *sectorService) UpdateSector(ctx context.Context, req UpdateSectorRequest) (*domain.Sector, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	cur, err := s.store.Sectors().GetSector(ctx, req.ID)
	if err != nil {
		return nil, translate(err, "sector")
	}
	if req.Name != nil {
		cur.Name = trimmed(*req.Name)
	}
	if req.Code != nil {
		cur.Code = trimmed(*req.Code)
	}
	if req.Description != nil {
		cur.Description = domain.NewNullString(trimmed(*req.Description))
	}
	if req.Color != nil && trimmed(*req.Color) != "" {
		cur.Color = trimmed(*req.Color)
	}
	if err := s.store.Sectors().UpdateSector(ctx, cur); err != nil {
		return nil, translate(err, "sector")
	}
	return cur, nil
}

func (s *sectorService) DeleteSector(ctx context.Context, id string) error {
	if err := s.store.Sectors().DeleteSector(ctx, id); err != nil {
		return translate(err, "sector")
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("sector deleted", zap.String("sector_id", id))
	return nil
}

func (s *sectorService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	out, err := s.store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}

func (s *sectorService) AssignUser(ctx context.Context, userID, sectorID string) (*domain.User, error) {
	if trimmed(userID) == "" {
		return nil, domain.MissingField("userId")
	}
	scope := domain.GlobalScope()
	if id := trimmed(sectorID); id != "" {
		sec, err := s.store.Sectors().GetSector(ctx, id)
		if err != nil {
			return nil, translate(err, "sector")
		}
		scope = sec.Scope()
	}
	if err := s.store.Users().AssignSector(ctx, userID, scope); err != nil {
		return nil, translate(err, "user")
	}
	u, err := s.store.Users().GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	return u, nil
}

func (s *sectorService) SyncUser(ctx context.Context, openID, name, email string) (*domain.User, error) {
	if trimmed(openID) == "" {
		return nil, domain.MissingField("openId")
	}
	id, err := s.store.Users().UpsertUser(ctx, &domain.User{
		OpenID: openID,
		Name:   domain.NewNullString(trimmed(name)),
		Email:  domain.NewNullString(trimmed(email)),
		Role:   domain.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}
	u, err := s.store.Users().GetUser(ctx, id)
	if err != nil {
		return nil, translate(err, "user")
	}
	return u, nil
}
