package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore implements Store over sqlx. The same struct serves both the pool
// and an open transaction; q is whichever one is active.
type PostgresStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Units() UnitsRepository { return &postgresUnits{q: s.q} }

func (s *PostgresStore) Residents() ResidentsRepository { return &postgresResidents{q: s.q} }

func (s *PostgresStore) OccupancyRecords() OccupancyRecordsRepository {
	return &postgresRecords{q: s.q}
}

func (s *PostgresStore) Sectors() SectorsRepository { return &postgresSectors{q: s.q} }

func (s *PostgresStore) Users() UsersRepository { return &postgresUsers{q: s.q} }

func (s *PostgresStore) ImportLogs() ImportLogsRepository { return &postgresImportLogs{q: s.q} }

func (s *PostgresStore) Notifications() NotificationsRepository {
	return &postgresNotifications{q: s.q}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if _, inTx := s.q.(*sqlx.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&PostgresStore{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapError converts driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case "invalid_text_representation":
			// 非 UUID 格式的 id 不可能匹配任何行
			return ErrNotFound
		}
	}
	return err
}

// malformedID reports whether a filter query failed only because an id was not a UUID.
func malformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "invalid_text_representation"
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// whereBuilder collects AND-ed conditions; each "?" in a condition becomes the next $n.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

// scope keeps rows whose sector column is NULL or equal to the caller's sector.
func (w *whereBuilder) scope(col string, s domain.Scope) {
	if s.IsGlobal() {
		return
	}
	id, _ := s.SectorID()
	w.add("("+col+" IS NULL OR "+col+" = ?)", id)
}

func (w *whereBuilder) search(pattern string, cols ...string) {
	if pattern == "" {
		return
	}
	w.args = append(w.args, "%"+pattern+"%")
	ph := "$" + strconv.Itoa(len(w.args))
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " ILIKE " + ph
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *whereBuilder) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return " LIMIT $" + strconv.Itoa(len(w.args))
}
