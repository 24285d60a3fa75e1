package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconciler_Run(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	unitID, err := store.Units().CreateUnit(ctx, &domain.Unit{Code: "A-1", Name: "A-1", Type: domain.UnitTypeApartment, Rooms: 1, Beds: 2})
	require.NoError(t, err)
	require.NoError(t, store.Units().SetOccupancy(ctx, unitID, 1, domain.UnitStatusOccupied))

	reg := prometheus.NewRegistry()
	r := NewReconciler(store, reg, zap.NewNop())

	drifts, err := r.Run(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, Drift{UnitID: unitID, UnitCode: "A-1", Stored: 1, Actual: 0}, drifts[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(r.drift))

	_, err = store.Residents().CreateResident(ctx, &domain.Resident{
		Population:  domain.PopulationEgyptian,
		Name:        "Ahmed",
		NationalID:  "29901011234567",
		UnitID:      domain.NewNullString(unitID),
		LastUnitID:  domain.NewNullString(unitID),
		Status:      domain.ResidentStatusActive,
		CheckInDate: time.Now(),
	})
	require.NoError(t, err)

	drifts, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.drift))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs.WithLabelValues("ok")))
}

func TestReconciler_StartRejectsBadSchedule(t *testing.T) {
	r := NewReconciler(repository.NewMemoryStore(), prometheus.NewRegistry(), zap.NewNop())
	assert.Error(t, r.Start("not a schedule"))
}

func TestReconciler_StartStop(t *testing.T) {
	r := NewReconciler(repository.NewMemoryStore(), prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, r.Start(""))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
