package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReportService_DashboardStats(t *testing.T) {
	f := newFixture(t)
	a := f.unit("A-1", domain.UnitTypeApartment, 4, domain.GlobalScope())
	c := f.unit("C-1", domain.UnitTypeChalet, 2, domain.GlobalScope())
	m := f.unit("A-2", domain.UnitTypeApartment, 2, domain.GlobalScope())
	require.NoError(t, f.store.Units().SetOccupancy(f.ctx, m.ID, 0, domain.UnitStatusMaintenance))
	f.checkInEgyptian(a, "One", "1")
	f.checkInRussian(c, "Ivan", "AB1234567")

	stats, err := f.reports.DashboardStats(f.ctx, admin, nil)
	require.NoError(t, err)
	assert.Equal(t, &DashboardStats{
		TotalUnits:       3,
		OccupiedUnits:    2,
		MaintenanceUnits: 1,
		Apartments:       2,
		Chalets:          1,
		ActiveEgyptians:  1,
		ActiveRussians:   1,
		TotalBeds:        8,
		OccupiedBeds:     2,
		OccupancyRate:    25,
	}, stats)

	again, err := f.reports.DashboardStats(f.ctx, admin, nil)
	require.NoError(t, err)
	assert.Equal(t, stats, again)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.cacheLookups.WithLabelValues("hit")))

	_, err = f.kv.Get(f.ctx, dashboardKeyPrefix+"global")
	require.NoError(t, err)

	f.checkInEgyptian(a, "Two", "2")
	_, err = f.kv.Get(f.ctx, dashboardKeyPrefix+"global")
	assert.ErrorIs(t, err, store.ErrMiss)

	fresh, err := f.reports.DashboardStats(f.ctx, admin, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.OccupiedBeds)
	assert.Equal(t, 37.5, fresh.OccupancyRate)
}

func TestComputeDashboardStats_Rounding(t *testing.T) {
	units := []*domain.Unit{
		{Type: domain.UnitTypeApartment, Beds: 3, CurrentOccupants: 1, Status: domain.UnitStatusOccupied},
	}
	st := computeDashboardStats(units, 1, 0)
	assert.Equal(t, 33.3, st.OccupancyRate)

	empty := computeDashboardStats(nil, 0, 0)
	assert.Equal(t, 0.0, empty.OccupancyRate)
}

func TestReportService_DashboardStatsByScope(t *testing.T) {
	f := newFixture(t)
	north, south := f.sector("N"), f.sector("S")
	n := f.unit("N-1", domain.UnitTypeApartment, 2, north.Scope())
	f.unit("S-1", domain.UnitTypeApartment, 2, south.Scope())
	f.checkInEgyptian(n, "One", "1")
	caller := domain.Caller{UserID: "u-1", Role: domain.RoleUser, Scope: north.Scope()}

	stats, err := f.reports.DashboardStats(f.ctx, caller, &south.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUnits, "sector callers stay in their sector")
	assert.Equal(t, 1, stats.ActiveEgyptians)

	narrowed, err := f.reports.DashboardStats(f.ctx, admin, &south.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, narrowed.TotalUnits)
	assert.Equal(t, 0, narrowed.OccupiedBeds)

	global, err := f.reports.DashboardStats(f.ctx, admin, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, global.TotalUnits)
}

func TestReportService_DetailedReport(t *testing.T) {
	f := newFixture(t)
	u := f.unit("A-1", domain.UnitTypeApartment, 3, domain.GlobalScope())
	f.unit("A-2", domain.UnitTypeApartment, 3, domain.GlobalScope())
	f.checkInEgyptian(u, "Staying", "1")
	gone := f.checkInEgyptian(u, "Leaving", "2")
	require.NoError(t, f.occ.CheckOut(f.ctx, admin, domain.ResidentRef{Population: domain.PopulationEgyptian, ID: gone}))

	reps, err := f.reports.DetailedReport(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, "A-1", reps[0].Unit.Code)
	require.Len(t, reps[0].Residents, 1)
	assert.Equal(t, "Staying", reps[0].Residents[0].Name)
	require.Len(t, reps[0].PastResidents, 1)
	assert.Equal(t, "Leaving", reps[0].PastResidents[0].ResidentName)
	assert.Empty(t, reps[1].Residents)
	assert.NotNil(t, reps[1].PastResidents)
}

func TestReportService_OccupancyStats(t *testing.T) {
	f := newFixture(t)
	u := f.unit("A-1", domain.UnitTypeApartment, 3, domain.GlobalScope())
	f.checkInEgyptian(u, "One", "1")

	rows, err := f.reports.OccupancyStats(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, OccupancyStatsRow{
		UnitCode:     "A-1",
		BuildingName: "-",
		TotalBeds:    3,
		OccupiedBeds: 1,
		VacantBeds:   2,
		Status:       domain.UnitStatusOccupied,
	}, rows[0])
}

func TestReportService_ResidentHistory(t *testing.T) {
	f := newFixture(t)
	a := f.unit("A-1", domain.UnitTypeApartment, 3, domain.GlobalScope())
	c := f.unit("C-1", domain.UnitTypeChalet, 3, domain.GlobalScope())

	old := f.checkInEgyptian(a, "Old", "1")
	require.NoError(t, f.occ.CheckOut(f.ctx, admin, domain.ResidentRef{Population: domain.PopulationEgyptian, ID: old}))

	f.occ.(*occupancyService).now = func() time.Time { return fixedNow.Add(time.Hour) }
	f.checkInRussian(c, "Ivan", "AB1234567")

	rows, err := f.reports.ResidentHistory(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ivan", rows[0].Name)
	assert.Equal(t, "AB1234567", rows[0].IDNumber)
	assert.Equal(t, "C-1", rows[0].UnitCode)
	assert.Equal(t, domain.PopulationRussian, rows[0].Type)
	assert.Nil(t, rows[0].CheckOutDate)

	assert.Equal(t, "Old", rows[1].Name)
	assert.Equal(t, "A-1", rows[1].UnitCode, "checked-out residents keep their last unit")
	require.NotNil(t, rows[1].CheckOutDate)

	require.NoError(t, f.store.Units().DeleteUnit(f.ctx, a.ID))
	rows, err = f.reports.ResidentHistory(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, unknownUnitCode, rows[1].UnitCode)
}

func TestReportService_RecordsAndReport(t *testing.T) {
	f := newFixture(t)
	u := f.unit("A-1", domain.UnitTypeApartment, 30, domain.GlobalScope())
	for i := 0; i < 12; i++ {
		f.checkInEgyptian(u, "R", string(rune('a'+i)))
	}

	recent, err := f.reports.RecentActivity(f.ctx, admin, 0)
	require.NoError(t, err)
	assert.Len(t, recent, defaultRecentActivity)

	rep, err := f.reports.OccupancyReport(f.ctx, admin, 0)
	require.NoError(t, err)
	assert.Len(t, rep.Records, 12)
	assert.Equal(t, 12, rep.Stats.OccupiedBeds)

	_, err = f.reports.ListRecords(f.ctx, admin, ListRecordsRequest{Action: "moved"})
	requireKind(t, err, domain.KindMissingField)

	outs, err := f.reports.ListRecords(f.ctx, admin, ListRecordsRequest{Action: domain.ActionCheckOut})
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestReportService_ImportLogs(t *testing.T) {
	f := newFixture(t)
	f.unit("A-1", domain.UnitTypeApartment, 2, domain.GlobalScope())
	res, err := f.occ.ImportResidents(f.ctx, admin, ImportResidentsRequest{
		FileName: "r.xlsx",
		Rows:     []ResidentImportRow{{Name: "One", NationalID: "1", UnitCode: "A-1"}},
	})
	require.NoError(t, err)

	logs, err := f.reports.ListImportLogs(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "r.xlsx", logs[0].FileName)

	got, err := f.reports.GetImportLog(f.ctx, res.LogID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SuccessRows)

	_, err = f.reports.GetImportLog(f.ctx, "missing")
	requireKind(t, err, domain.KindNotFound)
}

type stubInsights struct {
	got  *DashboardStats
	text string
	err  error
}

func (s *stubInsights) Analyze(_ context.Context, stats *DashboardStats) (string, error) {
	s.got = stats
	return s.text, s.err
}

func TestReportService_Insights(t *testing.T) {
	f := newFixture(t)
	f.unit("A-1", domain.UnitTypeApartment, 2, domain.GlobalScope())

	_, err := f.reports.Insights(f.ctx, admin)
	assert.ErrorIs(t, err, ErrInsightsDisabled)

	stub := &stubInsights{text: "نسبة الإشغال منخفضة"}
	reports := NewReportService(f.store, f.cache, stub, zap.NewNop())
	text, err := reports.Insights(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "نسبة الإشغال منخفضة", text)
	require.NotNil(t, stub.got)
	assert.Equal(t, 1, stub.got.TotalUnits)

	stub.err = errors.New("upstream down")
	_, err = reports.Insights(f.ctx, admin)
	assert.EqualError(t, err, "upstream down")
}

func TestReportService_ReadsRepeatAfterBulkCheckIn(t *testing.T) {
	f := newFixture(t)
	u := f.unit("A-1", domain.UnitTypeApartment, 8, domain.GlobalScope())
	entries := make([]BulkCheckInEntry, 0, 8)
	for i := 0; i < 8; i++ {
		entries = append(entries, BulkCheckInEntry{Name: fmt.Sprintf("Resident %d", i), NationalID: fmt.Sprintf("2990101123456%d", i)})
	}
	_, err := f.occ.BulkCheckIn(f.ctx, admin, BulkCheckInRequest{Population: domain.PopulationEgyptian, UnitID: u.ID, Entries: entries})
	require.NoError(t, err)

	history, err := f.reports.ResidentHistory(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, history, 8)
	detailed, err := f.reports.DetailedReport(f.ctx, admin)
	require.NoError(t, err)
	stats, err := f.reports.OccupancyStats(f.ctx, admin)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := f.reports.ResidentHistory(f.ctx, admin)
		require.NoError(t, err)
		require.Equal(t, history, again)

		d, err := f.reports.DetailedReport(f.ctx, admin)
		require.NoError(t, err)
		require.Equal(t, detailed, d)

		s, err := f.reports.OccupancyStats(f.ctx, admin)
		require.NoError(t, err)
		require.Equal(t, stats, s)
	}
}
