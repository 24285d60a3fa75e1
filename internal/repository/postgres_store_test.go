package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

var unitRowColumns = []string{
	"id", "code", "name", "type", "sector_id", "floor", "rooms", "beds", "status",
	"current_occupants", "owner_name", "building_name", "notes", "created_at", "updated_at",
}

func TestPostgresUnits_ListUnitsBuildsScopedQuery(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows(unitRowColumns).
		AddRow("u1", "A-1", "Apartment 1", "apartment", "s1", "2", 2, 4, "occupied", 1, nil, "Block A", nil, now, now).
		AddRow("u2", "A-2", "Apartment 2", "apartment", nil, nil, 1, 2, "vacant", 0, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE type = $1 AND (code ILIKE $2 OR name ILIKE $2 OR building_name ILIKE $2) AND (sector_id IS NULL OR sector_id = $3) ORDER BY code`)).
		WithArgs("apartment", "%A-%", "s1").
		WillReturnRows(rows)

	units, err := store.Units().ListUnits(context.Background(), UnitFilters{
		Type:   domain.UnitTypeApartment,
		Search: "A-",
		Scope:  domain.SectorScope("s1"),
	})
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, domain.SectorScope("s1"), units[0].Scope)
	assert.Equal(t, "Block A", units[0].BuildingName.String)
	assert.True(t, units[1].Scope.IsGlobal())
	assert.Equal(t, 3, units[0].AvailableBeds())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUnits_LockUnitUsesRowLock(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE id = $1 FOR UPDATE`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(unitRowColumns).
			AddRow("u1", "C-01", "Chalet 1", "chalet", nil, nil, 2, 3, "vacant", 0, nil, nil, nil, now, now))

	u, err := store.Units().LockUnit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.UnitTypeChalet, u.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUnits_GetUnitMissingIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE code = $1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(unitRowColumns))

	_, err := store.Units().GetUnitByCode(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUnits_CreateUnitDuplicateCode(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO units`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "units_code_unique"})

	_, err := store.Units().CreateUnit(context.Background(), &domain.Unit{Code: "A-1", Name: "A", Type: domain.UnitTypeApartment, Beds: 1, Rooms: 1})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "units_code_unique")
}

func TestPostgresUnits_SetOccupancyNoRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE units SET current_occupants = $2, status = $3`)).
		WithArgs("missing", 1, "occupied").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Units().SetOccupancy(context.Background(), "missing", 1, domain.UnitStatusOccupied)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_InTxCommits(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE units SET current_occupants = $2, status = $3`)).
		WithArgs("u1", 1, "occupied").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx Store) error {
		// nested calls join the open transaction
		return tx.InTx(context.Background(), func(inner Store) error {
			return inner.Units().SetOccupancy(context.Background(), "u1", 1, domain.UnitStatusOccupied)
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InTxRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(Store) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResidents_ListRussianSearchesPassport(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	cols := []string{"id", "name", "passport_number", "nationality", "gender", "phone", "shift", "unit_id",
		"last_unit_id", "check_in_date", "check_out_date", "status", "ocr_confidence", "image_url", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM russian_residents r`)).
		WithArgs("active", "%AB12%", "s1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r1", "Ivan Petrov", "AB1234567", "Russian", "male", nil, "night", "u1", "u1", now, nil, "active", 91, nil, now, now))

	out, err := store.Residents().ListResidents(context.Background(), domain.PopulationRussian, ResidentFilters{
		Status: domain.ResidentStatusActive,
		Search: "AB12",
		Scope:  domain.SectorScope("s1"),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.PopulationRussian, out[0].Population)
	assert.Equal(t, "AB1234567", out[0].DocumentNumber())
	assert.Equal(t, int64(91), out[0].OCRConfidence.Int64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResidentColumns(t *testing.T) {
	assert.Equal(t,
		"id, name, national_id, phone, shift, unit_id, last_unit_id, check_in_date, check_out_date, status, ocr_confidence, image_url, created_at, updated_at",
		residentColumns(domain.PopulationEgyptian, ""))
	assert.Contains(t, residentColumns(domain.PopulationRussian, "r"), "r.passport_number, r.nationality, r.gender")
}

func TestPostgresResidents_CountActiveByUnit(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT unit_id, count(*) FROM`)).
		WillReturnRows(sqlmock.NewRows([]string{"unit_id", "count"}).AddRow("u1", 2).AddRow("u2", 1))

	counts, err := store.Residents().CountActiveByUnit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"u1": 2, "u2": 1}, counts)
}

func TestPostgresRecords_ListRecordsAppendsLimit(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	cols := []string{"id", "resident_type", "resident_id", "resident_name", "unit_id", "unit_code", "action",
		"from_unit_id", "from_unit_code", "notes", "action_date", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE r.action = $1 ORDER BY r.created_at DESC, r.action_date DESC, r.id DESC LIMIT $2`)).
		WithArgs("transfer_in", 5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("rec1", "egyptian", "r1", "Ahmed", "u2", "A-2", "transfer_in", "u1", "A-1", nil, now, now))

	recs, err := store.OccupancyRecords().ListRecords(context.Background(), RecordFilters{Action: domain.ActionTransferIn, Limit: 5})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A-1", recs[0].FromUnitCode.String)
}

func TestPostgresImportLogs_GetDecodesErrors(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	cols := []string{"id", "file_name", "total_rows", "success_rows", "failed_rows", "errors", "status",
		"imported_by", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM import_logs WHERE id = $1`)).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("l1", "residents.xlsx", 2, 1, 1, []byte(`[{"row":2,"error":"unit not found","kind":"not_found"}]`), "completed", nil, now, now))

	l, err := store.ImportLogs().GetImportLog(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, l.Errors, 1)
	assert.Equal(t, 2, l.Errors[0].Row)
	assert.Equal(t, domain.KindNotFound, l.Errors[0].Kind)
}

func TestPostgresNotifications_MarkAllReadScoped(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE AND (sector_id IS NULL OR sector_id = $1)`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Notifications().MarkAllRead(context.Background(), domain.SectorScope("s1"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPostgresStore_MalformedIDIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	badUUID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE id = $1 FOR UPDATE`)).
		WithArgs("abc").
		WillReturnError(badUUID)
	_, err := store.Units().LockUnit(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM egyptian_residents WHERE id = $1`)).
		WithArgs("abc").
		WillReturnError(badUUID)
	_, err = store.Residents().GetResident(context.Background(), domain.PopulationEgyptian, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM egyptian_residents r`)).
		WithArgs("abc").
		WillReturnError(badUUID)
	out, err := store.Residents().ListResidents(context.Background(), domain.PopulationEgyptian, ResidentFilters{UnitID: "abc"})
	require.NoError(t, err)
	assert.Empty(t, out)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM occupancy_records r`)).
		WithArgs("abc").
		WillReturnError(badUUID)
	recs, err := store.OccupancyRecords().ListRecords(context.Background(), RecordFilters{UnitID: "abc"})
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError_LeavesOtherDriverErrors(t *testing.T) {
	fk := &pq.Error{Code: "23503"}
	assert.Equal(t, error(fk), mapError(fk))
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505", Constraint: "units_code_unique"}), ErrDuplicate)
}

func TestPostgresResidents_ActiveByUnitHasStableOrder(t *testing.T) {
	store, mock := newMockStore(t)
	cols := []string{"id"}
	mock.ExpectQuery(`FROM egyptian_residents\s+WHERE unit_id = \$1 AND status = 'active' ORDER BY check_in_date, id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("r1").AddRow("r2"))
	mock.ExpectQuery(`FROM russian_residents\s+WHERE unit_id = \$1 AND status = 'active' ORDER BY check_in_date, id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols))

	out, err := store.Residents().ListActiveByUnit(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r1", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNotifications_MarkReadIsScoped(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND (sector_id IS NULL OR sector_id = $2)`)).
		WithArgs("n1", "s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Notifications().MarkRead(context.Background(), "n1", domain.SectorScope("s1"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
