package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"
	"github.com/abdoelngaar-maker/housing-management/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLMockOccupancy(t *testing.T) (OccupancyService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	st := repository.NewPostgresStore(sqlx.NewDb(db, "postgres"))
	metrics := NewMetrics(prometheus.NewRegistry())
	cache := NewDashboardCache(store.NewMemoryKV(), time.Minute, metrics, logger)
	return NewOccupancyService(st, NewNotificationService(st, metrics, logger), cache, metrics, logger), mock
}

func TestCheckIn_MalformedUnitIDOnPostgres(t *testing.T) {
	occ, mock := newSQLMockOccupancy(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE id = $1 FOR UPDATE`)).
		WithArgs("nope").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "nope"`})
	mock.ExpectRollback()

	_, err := occ.CheckIn(context.Background(), admin, CheckInRequest{
		Population: domain.PopulationEgyptian,
		Name:       "Ahmed",
		NationalID: "29901011234567",
		UnitID:     "nope",
	})
	de := requireKind(t, err, domain.KindNotFound)
	assert.Equal(t, "unit", de.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_MalformedResidentIDOnPostgres(t *testing.T) {
	occ, mock := newSQLMockOccupancy(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM egyptian_residents WHERE id = $1 FOR UPDATE`)).
		WithArgs("abc").
		WillReturnError(&pq.Error{Code: "22P02"})
	mock.ExpectRollback()

	err := occ.CheckOut(context.Background(), admin, domain.ResidentRef{Population: domain.PopulationEgyptian, ID: "abc"})
	de := requireKind(t, err, domain.KindNotFound)
	assert.Equal(t, "resident", de.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
