package domain

import (
	"database/sql"
	"time"
)

// UnitType decides which population a unit may house.
type UnitType string

const (
	UnitTypeApartment UnitType = "apartment"
	UnitTypeChalet    UnitType = "chalet"
)

func (t UnitType) Valid() bool {
	return t == UnitTypeApartment || t == UnitTypeChalet
}

// Accepts is the population/unit-type binding: apartments house Egyptian residents,
// chalets house Russian residents.
func (t UnitType) Accepts(p Population) bool {
	return p.Valid() && p.UnitType() == t
}

// Population returns the population a unit of this type houses.
func (t UnitType) Population() Population {
	if t == UnitTypeChalet {
		return PopulationRussian
	}
	return PopulationEgyptian
}

type UnitStatus string

const (
	UnitStatusVacant      UnitStatus = "vacant"
	UnitStatusOccupied    UnitStatus = "occupied"
	UnitStatusMaintenance UnitStatus = "maintenance"
)

func (s UnitStatus) Valid() bool {
	return s == UnitStatusVacant || s == UnitStatusOccupied || s == UnitStatusMaintenance
}

// OccupancyStatus derives vacant/occupied from an occupant count.
func OccupancyStatus(occupants int) UnitStatus {
	if occupants > 0 {
		return UnitStatusOccupied
	}
	return UnitStatusVacant
}

// Unit maps the units table.
type Unit struct {
	ID               string         `db:"id"`                // UUID, PRIMARY KEY
	Code             string         `db:"code"`              // VARCHAR(50), NOT NULL, UNIQUE
	Name             string         `db:"name"`              // VARCHAR(200), NOT NULL
	Type             UnitType       `db:"type"`              // apartment | chalet
	Scope            Scope          `db:"sector_id"`         // UUID, nullable (NULL = global)
	Floor            sql.NullString `db:"floor"`             // VARCHAR(20), nullable
	Rooms            int            `db:"rooms"`             // NOT NULL, DEFAULT 1
	Beds             int            `db:"beds"`              // NOT NULL, DEFAULT 1
	Status           UnitStatus     `db:"status"`            // NOT NULL, DEFAULT 'vacant'
	CurrentOccupants int            `db:"current_occupants"` // NOT NULL, DEFAULT 0, 0..beds
	OwnerName        sql.NullString `db:"owner_name"`
	BuildingName     sql.NullString `db:"building_name"`
	Notes            sql.NullString `db:"notes"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// AvailableBeds never goes below zero.
func (u *Unit) AvailableBeds() int {
	if u.CurrentOccupants >= u.Beds {
		return 0
	}
	return u.Beds - u.CurrentOccupants
}

func (u *Unit) IsFull() bool { return u.CurrentOccupants >= u.Beds }

// WithOccupants returns the occupant count and status after adding delta residents.
// The count is floored at zero; maintenance is not derived from occupancy and is replaced.
func (u *Unit) WithOccupants(delta int) (int, UnitStatus) {
	n := u.CurrentOccupants + delta
	if n < 0 {
		n = 0
	}
	return n, OccupancyStatus(n)
}

func (u *Unit) ToJSON() map[string]any {
	m := map[string]any{
		"id":                u.ID,
		"code":              u.Code,
		"name":              u.Name,
		"type":              u.Type,
		"sector_id":         u.Scope,
		"rooms":             u.Rooms,
		"beds":              u.Beds,
		"status":            u.Status,
		"current_occupants": u.CurrentOccupants,
		"available_beds":    u.AvailableBeds(),
		"floor":             nullString(u.Floor),
		"owner_name":        nullString(u.OwnerName),
		"building_name":     nullString(u.BuildingName),
		"notes":             nullString(u.Notes),
	}
	if !u.CreatedAt.IsZero() {
		m["created_at"] = u.CreatedAt
	}
	return m
}

func nullString(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func nullTime(t sql.NullTime) any {
	if !t.Valid {
		return nil
	}
	return t.Time
}

// NewNullString treats blank input as NULL.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
