package repository

import (
	"context"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
)

// ResidentsRepository covers both resident ledgers. Every call names the population,
// which selects egyptian_residents or russian_residents.
type ResidentsRepository interface {
	ListResidents(ctx context.Context, pop domain.Population, filters ResidentFilters) ([]*domain.Resident, error)
	GetResident(ctx context.Context, pop domain.Population, id string) (*domain.Resident, error)
	// LockResident is GetResident holding the row lock for the rest of the transaction.
	LockResident(ctx context.Context, pop domain.Population, id string) (*domain.Resident, error)

	CreateResident(ctx context.Context, r *domain.Resident) (string, error)
	// UpdateResident writes identity and contact fields only.
	UpdateResident(ctx context.Context, r *domain.Resident) error

	// PlaceResident sets unit_id and last_unit_id to unitID and marks the resident active.
	PlaceResident(ctx context.Context, pop domain.Population, id, unitID string) error
	// CheckOutResident clears unit_id, keeps last_unit_id and stamps check_out_date.
	CheckOutResident(ctx context.Context, pop domain.Population, id string, at time.Time) error

	FindActiveByDocument(ctx context.Context, pop domain.Population, number string) (*domain.Resident, error)
	FindActiveByNameInUnit(ctx context.Context, pop domain.Population, name, unitID string) (*domain.Resident, error)
	// ListActiveByUnit returns the active residents of a unit from both ledgers.
	ListActiveByUnit(ctx context.Context, unitID string) ([]*domain.Resident, error)
	// CountActiveByUnit counts active placed residents per unit id across both ledgers.
	CountActiveByUnit(ctx context.Context) (map[string]int, error)
}
