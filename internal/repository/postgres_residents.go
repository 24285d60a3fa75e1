package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/jmoiron/sqlx"
)

var identityColumns = map[domain.Population][]string{
	domain.PopulationEgyptian: {"national_id"},
	domain.PopulationRussian:  {"passport_number", "nationality", "gender"},
}

var sharedResidentColumns = []string{
	"id", "name", "phone", "shift", "unit_id", "last_unit_id", "check_in_date", "check_out_date",
	"status", "ocr_confidence", "image_url", "created_at", "updated_at",
}

func residentTable(pop domain.Population) string {
	if pop == domain.PopulationRussian {
		return "russian_residents"
	}
	return "egyptian_residents"
}

// residentColumns lists the population's columns, each prefixed with alias when given.
func residentColumns(pop domain.Population, alias string) string {
	cols := append(append([]string{}, sharedResidentColumns[:2]...), identityColumns[pop]...)
	cols = append(cols, sharedResidentColumns[2:]...)
	if alias != "" {
		for i, c := range cols {
			cols[i] = alias + "." + c
		}
	}
	return strings.Join(cols, ", ")
}

type postgresResidents struct {
	q sqlx.ExtContext
}

func (r *postgresResidents) selectMany(ctx context.Context, pop domain.Population, query string, args ...any) ([]*domain.Resident, error) {
	out := []*domain.Resident{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		if malformedID(err) {
			return []*domain.Resident{}, nil
		}
		return nil, err
	}
	for _, res := range out {
		res.Population = pop
	}
	return out, nil
}

func (r *postgresResidents) selectOne(ctx context.Context, pop domain.Population, query string, args ...any) (*domain.Resident, error) {
	var res domain.Resident
	if err := sqlx.GetContext(ctx, r.q, &res, query, args...); err != nil {
		return nil, mapError(err)
	}
	res.Population = pop
	return &res, nil
}

func (r *postgresResidents) ListResidents(ctx context.Context, pop domain.Population, filters ResidentFilters) ([]*domain.Resident, error) {
	var w whereBuilder
	if filters.Status != "" {
		w.add("r.status = ?", string(filters.Status))
	}
	if filters.UnitID != "" {
		w.add("r.unit_id = ?", filters.UnitID)
	}
	w.search(filters.Search, "r.name", "r."+pop.DocumentField(), "r.phone")
	w.scope("u.sector_id", filters.Scope)

	query := `SELECT ` + residentColumns(pop, "r") + ` FROM ` + residentTable(pop) + ` r
		LEFT JOIN units u ON u.id = COALESCE(r.unit_id, r.last_unit_id)` +
		w.String() + ` ORDER BY r.check_in_date DESC, r.id`
	out, err := r.selectMany(ctx, pop, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list %s residents: %w", pop, err)
	}
	return out, nil
}

func (r *postgresResidents) GetResident(ctx context.Context, pop domain.Population, id string) (*domain.Resident, error) {
	return r.selectOne(ctx, pop, `SELECT `+residentColumns(pop, "")+` FROM `+residentTable(pop)+` WHERE id = $1`, id)
}

func (r *postgresResidents) LockResident(ctx context.Context, pop domain.Population, id string) (*domain.Resident, error) {
	return r.selectOne(ctx, pop, `SELECT `+residentColumns(pop, "")+` FROM `+residentTable(pop)+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresResidents) CreateResident(ctx context.Context, res *domain.Resident) (string, error) {
	var (
		id  string
		err error
	)
	switch res.Population {
	case domain.PopulationEgyptian:
		err = r.q.QueryRowxContext(ctx, `
			INSERT INTO egyptian_residents (name, national_id, phone, shift, unit_id, last_unit_id,
				check_in_date, check_out_date, status, ocr_confidence, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			res.Name, res.NationalID, res.Phone, res.Shift, res.UnitID, res.LastUnitID,
			res.CheckInDate, res.CheckOutDate, string(res.Status), res.OCRConfidence, res.ImageURL,
		).Scan(&id)
	case domain.PopulationRussian:
		err = r.q.QueryRowxContext(ctx, `
			INSERT INTO russian_residents (name, passport_number, nationality, gender, phone, shift,
				unit_id, last_unit_id, check_in_date, check_out_date, status, ocr_confidence, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			res.Name, res.PassportNumber, res.Nationality, string(res.Gender), res.Phone, res.Shift,
			res.UnitID, res.LastUnitID, res.CheckInDate, res.CheckOutDate, string(res.Status),
			res.OCRConfidence, res.ImageURL,
		).Scan(&id)
	default:
		return "", fmt.Errorf("create resident: unknown population %q", res.Population)
	}
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (r *postgresResidents) UpdateResident(ctx context.Context, res *domain.Resident) error {
	var (
		query string
		args  []any
	)
	switch res.Population {
	case domain.PopulationEgyptian:
		query = `UPDATE egyptian_residents SET name = $2, national_id = $3, phone = $4, shift = $5,
			ocr_confidence = $6, image_url = $7, updated_at = now() WHERE id = $1`
		args = []any{res.ID, res.Name, res.NationalID, res.Phone, res.Shift, res.OCRConfidence, res.ImageURL}
	case domain.PopulationRussian:
		query = `UPDATE russian_residents SET name = $2, passport_number = $3, nationality = $4, gender = $5,
			phone = $6, shift = $7, ocr_confidence = $8, image_url = $9, updated_at = now() WHERE id = $1`
		args = []any{res.ID, res.Name, res.PassportNumber, res.Nationality, string(res.Gender),
			res.Phone, res.Shift, res.OCRConfidence, res.ImageURL}
	default:
		return fmt.Errorf("update resident: unknown population %q", res.Population)
	}
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (r *postgresResidents) PlaceResident(ctx context.Context, pop domain.Population, id, unitID string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE `+residentTable(pop)+`
		SET unit_id = $2, last_unit_id = $2, status = 'active', updated_at = now()
		WHERE id = $1`, id, unitID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *postgresResidents) CheckOutResident(ctx context.Context, pop domain.Population, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE `+residentTable(pop)+`
		SET status = 'checked_out', check_out_date = $2, unit_id = NULL, updated_at = now()
		WHERE id = $1`, id, at)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *postgresResidents) FindActiveByDocument(ctx context.Context, pop domain.Population, number string) (*domain.Resident, error) {
	return r.selectOne(ctx, pop, `SELECT `+residentColumns(pop, "")+` FROM `+residentTable(pop)+`
		WHERE `+pop.DocumentField()+` = $1 AND status = 'active'
		ORDER BY check_in_date DESC, id LIMIT 1`, number)
}

func (r *postgresResidents) FindActiveByNameInUnit(ctx context.Context, pop domain.Population, name, unitID string) (*domain.Resident, error) {
	return r.selectOne(ctx, pop, `SELECT `+residentColumns(pop, "")+` FROM `+residentTable(pop)+`
		WHERE lower(trim(name)) = lower(trim($1)) AND unit_id = $2 AND status = 'active'
		ORDER BY check_in_date DESC, id LIMIT 1`, name, unitID)
}

func (r *postgresResidents) ListActiveByUnit(ctx context.Context, unitID string) ([]*domain.Resident, error) {
	var all []*domain.Resident
	for _, pop := range []domain.Population{domain.PopulationEgyptian, domain.PopulationRussian} {
		rows, err := r.selectMany(ctx, pop, `SELECT `+residentColumns(pop, "")+` FROM `+residentTable(pop)+`
			WHERE unit_id = $1 AND status = 'active' ORDER BY check_in_date, id`, unitID)
		if err != nil {
			return nil, fmt.Errorf("list active %s residents: %w", pop, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

func (r *postgresResidents) CountActiveByUnit(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.QueryxContext(ctx, `
		SELECT unit_id, count(*) FROM (
			SELECT unit_id FROM egyptian_residents WHERE status = 'active' AND unit_id IS NOT NULL
			UNION ALL
			SELECT unit_id FROM russian_residents WHERE status = 'active' AND unit_id IS NOT NULL
		) placed GROUP BY unit_id`)
	if err != nil {
		return nil, fmt.Errorf("count active residents: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			unitID string
			n      int
		)
		if err := rows.Scan(&unitID, &n); err != nil {
			return nil, err
		}
		counts[unitID] = n
	}
	return counts, rows.Err()
}
