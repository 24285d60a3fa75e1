package domain

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User maps the users table. Scope decides which units, residents and notifications
// the user can see.
type User struct {
	ID           string         `db:"id"`
	OpenID       string         `db:"open_id"` // external identity, UNIQUE
	Name         sql.NullString `db:"name"`
	Email        sql.NullString `db:"email"`
	Role         Role           `db:"role"`
	Scope        Scope          `db:"sector_id"`
	LastSignedIn sql.NullTime   `db:"last_signed_in"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (u *User) ToJSON() map[string]any {
	return map[string]any{
		"id":             u.ID,
		"open_id":        u.OpenID,
		"name":           nullString(u.Name),
		"email":          nullString(u.Email),
		"role":           u.Role,
		"sector_id":      u.Scope,
		"last_signed_in": nullTime(u.LastSignedIn),
	}
}

// Sector maps the sectors table.
type Sector struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"` // UNIQUE
	Code        string         `db:"code"` // UNIQUE
	Description sql.NullString `db:"description"`
	Color       string         `db:"color"` // DEFAULT '#3b82f6'
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

const DefaultSectorColor = "#3b82f6"

func (s *Sector) Scope() Scope { return SectorScope(s.ID) }

func (s *Sector) ToJSON() map[string]any {
	return map[string]any{
		"id":          s.ID,
		"name":        s.Name,
		"code":        s.Code,
		"description": nullString(s.Description),
		"color":       s.Color,
		"created_at":  s.CreatedAt,
	}
}
