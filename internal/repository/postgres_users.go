package repository

import (
	"context"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, open_id, name, email, role, sector_id, last_signed_in, created_at, updated_at`

type postgresUsers struct {
	q sqlx.ExtContext
}

func (r *postgresUsers) ListUsers(ctx context.Context) ([]*domain.User, error) {
	out := []*domain.User{}
	if err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *postgresUsers) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *postgresUsers) GetUserByOpenID(ctx context.Context, openID string) (*domain.User, error) {
	var u domain.User
	if err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userColumns+` FROM users WHERE open_id = $1`, openID); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *postgresUsers) UpsertUser(ctx context.Context, u *domain.User) (string, error) {
	role := u.Role
	if !role.Valid() {
		role = domain.RoleUser
	}
	var id string
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO users (open_id, name, email, role, sector_id, last_signed_in)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (open_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, users.name),
			email = COALESCE(EXCLUDED.email, users.email),
			last_signed_in = now(),
			updated_at = now()
		RETURNING id`,
		u.OpenID, u.Name, u.Email, string(role), u.Scope,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (r *postgresUsers) AssignSector(ctx context.Context, userID string, scope domain.Scope) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET sector_id = $2, updated_at = now() WHERE id = $1`, userID, scope)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
