package repository

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
)

const recordColumns = `r.id, r.resident_type, r.resident_id, r.resident_name, r.unit_id, r.unit_code,
	r.action, r.from_unit_id, r.from_unit_code, r.notes, r.action_date, r.created_at`

type postgresRecords struct {
	q sqlx.ExtContext
}

func (r *postgresRecords) AppendRecord(ctx context.Context, rec *domain.OccupancyRecord) (string, error) {
	var id string
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO occupancy_records (resident_type, resident_id, resident_name, unit_id, unit_code,
			action, from_unit_id, from_unit_code, notes, action_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		string(rec.ResidentType), rec.ResidentID, rec.ResidentName, rec.UnitID, rec.UnitCode,
		string(rec.Action), rec.FromUnitID, rec.FromUnitCode, rec.Notes, rec.ActionDate,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// ListRecords joins units only to apply the caller's scope; records of deleted units
// stay visible as global history.
func (r *postgresRecords) ListRecords(ctx context.Context, filters RecordFilters) ([]*domain.OccupancyRecord, error) {
	var w whereBuilder
	if filters.UnitID != "" {
		w.add("r.unit_id = ?", filters.UnitID)
	}
	if filters.ResidentID != "" {
		w.add("r.resident_id = ?", filters.ResidentID)
	}
	if filters.Action != "" {
		w.add("r.action = ?", string(filters.Action))
	}
	w.scope("u.sector_id", filters.Scope)

	query := `SELECT ` + recordColumns + ` FROM occupancy_records r
		LEFT JOIN units u ON u.id = r.unit_id` + w.String() +
		` ORDER BY r.created_at DESC, r.action_date DESC, r.id DESC`
	query += w.limit(filters.Limit)

	out := []*domain.OccupancyRecord{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, w.args...); err != nil {
		if malformedID(err) {
			return []*domain.OccupancyRecord{}, nil
		}
		return nil, fmt.Errorf("list occupancy records: %w", err)
	}
	return out, nil
}
