package domain

import (
	"database/sql"
	"time"
)

type OccupancyAction string

const (
	ActionCheckIn     OccupancyAction = "check_in"
	ActionCheckOut    OccupancyAction = "check_out"
	ActionTransferIn  OccupancyAction = "transfer_in"
	ActionTransferOut OccupancyAction = "transfer_out"
)

func (a OccupancyAction) Valid() bool {
	switch a {
	case ActionCheckIn, ActionCheckOut, ActionTransferIn, ActionTransferOut:
		return true
	}
	return false
}

// OccupancyRecord maps occupancy_records. Rows are append-only.
type OccupancyRecord struct {
	ID           string          `db:"id"`
	ResidentType Population      `db:"resident_type"`
	ResidentID   string          `db:"resident_id"`
	ResidentName string          `db:"resident_name"`
	UnitID       string          `db:"unit_id"`
	UnitCode     string          `db:"unit_code"`
	Action       OccupancyAction `db:"action"`
	FromUnitID   sql.NullString  `db:"from_unit_id"`   // transfer counterpart
	FromUnitCode sql.NullString  `db:"from_unit_code"` // transfer counterpart
	Notes        sql.NullString  `db:"notes"`
	ActionDate   time.Time       `db:"action_date"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r *OccupancyRecord) ToJSON() map[string]any {
	return map[string]any{
		"id":             r.ID,
		"resident_type":  r.ResidentType,
		"resident_id":    r.ResidentID,
		"resident_name":  r.ResidentName,
		"unit_id":        r.UnitID,
		"unit_code":      r.UnitCode,
		"action":         r.Action,
		"from_unit_id":   nullString(r.FromUnitID),
		"from_unit_code": nullString(r.FromUnitCode),
		"notes":          nullString(r.Notes),
		"action_date":    r.ActionDate,
		"created_at":     r.CreatedAt,
	}
}
