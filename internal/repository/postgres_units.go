package repository

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
)

const unitColumns = `id, code, name, type, sector_id, floor, rooms, beds, status,
	current_occupants, owner_name, building_name, notes, created_at, updated_at`

type postgresUnits struct {
	q sqlx.ExtContext
}

func (r *postgresUnits) ListUnits(ctx context.Context, filters UnitFilters) ([]*domain.Unit, error) {
	var w whereBuilder
	if filters.Type != "" {
		w.add("type = ?", string(filters.Type))
	}
	if filters.Status != "" {
		w.add("status = ?", string(filters.Status))
	}
	w.search(filters.Search, "code", "name", "building_name")
	w.scope("sector_id", filters.Scope)

	units := []*domain.Unit{}
	query := `SELECT ` + unitColumns + ` FROM units` + w.String() + ` ORDER BY code`
	if err := sqlx.SelectContext(ctx, r.q, &units, query, w.args...); err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

func (r *postgresUnits) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	return r.getOne(ctx, `SELECT `+unitColumns+` FROM units WHERE id = $1`, id)
}

func (r *postgresUnits) GetUnitByCode(ctx context.Context, code string) (*domain.Unit, error) {
	return r.getOne(ctx, `SELECT `+unitColumns+` FROM units WHERE code = $1`, code)
}

func (r *postgresUnits) LockUnit(ctx context.Context, id string) (*domain.Unit, error) {
	return r.getOne(ctx, `SELECT `+unitColumns+` FROM units WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresUnits) getOne(ctx context.Context, query string, arg any) (*domain.Unit, error) {
	var u domain.Unit
	if err := sqlx.GetContext(ctx, r.q, &u, query, arg); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *postgresUnits) CreateUnit(ctx context.Context, u *domain.Unit) (string, error) {
	var id string
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO units (code, name, type, sector_id, floor, rooms, beds, status,
			current_occupants, owner_name, building_name, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		u.Code, u.Name, string(u.Type), u.Scope, u.Floor, u.Rooms, u.Beds, string(u.Status),
		u.CurrentOccupants, u.OwnerName, u.BuildingName, u.Notes,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (r *postgresUnits) UpdateUnit(ctx context.Context, u *domain.Unit) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE units SET
			code = $2, name = $3, type = $4, sector_id = $5, floor = $6, rooms = $7, beds = $8,
			status = $9, owner_name = $10, building_name = $11, notes = $12, updated_at = now()
		WHERE id = $1`,
		u.ID, u.Code, u.Name, string(u.Type), u.Scope, u.Floor, u.Rooms, u.Beds,
		string(u.Status), u.OwnerName, u.BuildingName, u.Notes,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *postgresUnits) SetOccupancy(ctx context.Context, id string, occupants int, status domain.UnitStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE units SET current_occupants = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, occupants, string(status),
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *postgresUnits) DeleteUnit(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
