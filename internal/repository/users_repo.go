package repository

import (
	"context"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

// UsersRepository 用户 Repository
type UsersRepository interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByOpenID(ctx context.Context, openID string) (*domain.User, error)
	// UpsertUser inserts by open_id or refreshes name, email and last_signed_in.
	// Role and sector are never changed by an upsert.
	UpsertUser(ctx context.Context, u *domain.User) (string, error)
	AssignSector(ctx context.Context, userID string, scope domain.Scope) error
}

// SectorsRepository 分区 Repository
type SectorsRepository interface {
	ListSectors(ctx context.Context) ([]*domain.Sector, error)
	GetSector(ctx context.Context, id string) (*domain.Sector, error)
	GetSectorByCode(ctx context.Context, code string) (*domain.Sector, error)
	CreateSector(ctx context.Context, s *domain.Sector) (string, error)
	UpdateSector(ctx context.Context, s *domain.Sector) error
	// DeleteSector removes the sector; its units, users and notifications become global.
	DeleteSector(ctx context.Context, id string) error
}
