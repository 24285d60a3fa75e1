package repository

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
)

const sectorColumns = `id, name, code, description, color, created_at, updated_at`

type postgresSectors struct {
	q sqlx.ExtContext
}

func (r *postgresSectors) ListSectors(ctx context.Context) ([]*domain.Sector, error) {
	out := []*domain.Sector{}
	if err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+sectorColumns+` FROM sectors ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return out, nil
}

func (r *postgresSectors) GetSector(ctx context.Context, id string) (*domain.Sector, error) {
	var s domain.Sector
	if err := sqlx.GetContext(ctx, r.q, &s, `SELECT `+sectorColumns+` FROM sectors WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *postgresSectors) GetSectorByCode(ctx context.Context, code string) (*domain.Sector, error) {
	var s domain.Sector
	if err := sqlx.GetContext(ctx, r.q, &s, `SELECT `+sectorColumns+` FROM sectors WHERE code = $1`, code); err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *postgresSectors) CreateSector(ctx context.Context, s *domain.Sector) (string, error) {
	var id string
	err := r.q.QueryRowxContext(ctx,
		`INSERT INTO sectors (name, code, description, color) VALUES ($1, $2, $3, $4) RETURNING id`,
		s.Name, s.Code, s.Description, s.Color,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (r *postgresSectors) UpdateSector(ctx context.Context, s *domain.Sector) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sectors SET name = $2, code = $3, description = $4, color = $5, updated_at = now() WHERE id = $1`,
		s.ID, s.Name, s.Code, s.Description, s.Color,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *postgresSectors) DeleteSector(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM sectors WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
