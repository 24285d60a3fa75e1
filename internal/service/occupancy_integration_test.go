//go:build integration

package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/common/config"
	"github.com/abdoelngaar-maker/housing-management/common/database"
	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/migrations"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"
	"github.com/abdoelngaar-maker/housing-management/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func integrationEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// 获取测试数据库连接
func getTestPostgres(t *testing.T) *repository.PostgresStore {
	port, err := strconv.Atoi(integrationEnv("TEST_DB_PORT", "5432"))
	require.NoError(t, err)
	cfg := &config.DatabaseConfig{
		Host:     integrationEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     integrationEnv("TEST_DB_USER", "postgres"),
		Password: integrationEnv("TEST_DB_PASSWORD", "postgres"),
		Database: integrationEnv("TEST_DB_NAME", "housing_test"),
		SSLMode:  integrationEnv("TEST_DB_SSLMODE", "disable"),
	}
	db, err := database.NewPostgresDBx(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := migrations.Up(db.DB); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`TRUNCATE occupancy_records, egyptian_residents, russian_residents, notifications, import_logs, units, users, sectors`)
		db.Close()
	})
	return repository.NewPostgresStore(db)
}

func TestCheckIn_Integration_ConcurrentCallsRespectCapacity(t *testing.T) {
	st := getTestPostgres(t)
	ctx := context.Background()
	logger := zap.NewNop()
	metrics := NewMetrics(prometheus.NewRegistry())
	cache := NewDashboardCache(store.NewMemoryKV(), time.Minute, metrics, logger)
	occ := NewOccupancyService(st, NewNotificationService(st, metrics, logger), cache, metrics, logger)

	const beds, callers = 3, 10
	unitID, err := st.Units().CreateUnit(ctx, &domain.Unit{
		Code: "IT-C1", Name: "Concurrent", Type: domain.UnitTypeApartment,
		Rooms: 1, Beds: beds, Status: domain.UnitStatusVacant,
	})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := occ.CheckIn(ctx, domain.SystemCaller(), CheckInRequest{
				Population: domain.PopulationEgyptian,
				Name:       fmt.Sprintf("Resident %d", i),
				NationalID: fmt.Sprintf("299010112345%02d", i),
				UnitID:     unitID,
			})
			if err == nil {
				succeeded.Add(1)
				return
			}
			de, ok := domain.AsError(err)
			assert.True(t, ok && de.Kind == domain.KindCapacityExceeded, "unexpected error: %v", err)
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, beds, succeeded.Load())
	u, err := st.Units().GetUnit(ctx, unitID)
	require.NoError(t, err)
	assert.Equal(t, beds, u.CurrentOccupants)
	counts, err := st.Residents().CountActiveByUnit(ctx)
	require.NoError(t, err)
	assert.Equal(t, beds, counts[unitID])
	recs, err := st.OccupancyRecords().ListRecords(ctx, repository.RecordFilters{UnitID: unitID})
	require.NoError(t, err)
	assert.Len(t, recs, beds)
}
