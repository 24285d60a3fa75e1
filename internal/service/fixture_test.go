package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"
	"github.com/abdoelngaar-maker/housing-management/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 2, 8, 9, 30, 0, 0, time.UTC)

// recordingPublisher captures fanned-out notifications.
type recordingPublisher struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n *domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *n)
	return nil
}

func (p *recordingPublisher) titles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, n := range p.sent {
		out = append(out, n.Title)
	}
	return out
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *repository.MemoryStore
	kv      *store.MemoryKV
	pub     *recordingPublisher
	cache   *DashboardCache
	metrics *Metrics
	notify  NotificationService
	occ     OccupancyService
	units   UnitService
	sectors SectorService
	people  ResidentService
	reports ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   repository.NewMemoryStore(),
		kv:      store.NewMemoryKV(),
		pub:     &recordingPublisher{},
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	f.cache = NewDashboardCache(f.kv, time.Minute, f.metrics, logger)
	f.notify = NewNotificationService(f.store, f.metrics, logger, f.pub)
	f.occ = NewOccupancyService(f.store, f.notify, f.cache, f.metrics, logger)
	f.occ.(*occupancyService).now = func() time.Time { return fixedNow }
	f.units = NewUnitService(f.store, f.notify, f.cache, logger)
	f.sectors = NewSectorService(f.store, f.cache, logger)
	f.people = NewResidentService(f.store, logger)
	f.reports = NewReportService(f.store, f.cache, nil, logger)
	return f
}

var admin = domain.SystemCaller()

func (f *fixture) unit(code string, typ domain.UnitType, beds int, scope domain.Scope) *domain.Unit {
	f.t.Helper()
	u := &domain.Unit{Code: code, Name: code, Type: typ, Rooms: 1, Beds: beds, Scope: scope, Status: domain.UnitStatusVacant}
	id, err := f.store.Units().CreateUnit(f.ctx, u)
	require.NoError(f.t, err)
	u.ID = id
	return u
}

func (f *fixture) sector(code string) *domain.Sector {
	f.t.Helper()
	sec, err := f.sectors.CreateSector(f.ctx, CreateSectorRequest{Name: "Sector " + code, Code: code})
	require.NoError(f.t, err)
	return sec
}

func (f *fixture) reload(u *domain.Unit) *domain.Unit {
	f.t.Helper()
	got, err := f.store.Units().GetUnit(f.ctx, u.ID)
	require.NoError(f.t, err)
	return got
}

func (f *fixture) checkInEgyptian(u *domain.Unit, name, nationalID string) string {
	f.t.Helper()
	resp, err := f.occ.CheckIn(f.ctx, admin, CheckInRequest{
		Population: domain.PopulationEgyptian,
		Name:       name,
		NationalID: nationalID,
		UnitID:     u.ID,
	})
	require.NoError(f.t, err)
	return resp.ResidentID
}

func (f *fixture) checkInRussian(u *domain.Unit, name, passport string) string {
	f.t.Helper()
	resp, err := f.occ.CheckIn(f.ctx, admin, CheckInRequest{
		Population:     domain.PopulationRussian,
		Name:           name,
		PassportNumber: passport,
		UnitID:         u.ID,
	})
	require.NoError(f.t, err)
	return resp.ResidentID
}

func (f *fixture) records(filters repository.RecordFilters) []*domain.OccupancyRecord {
	f.t.Helper()
	recs, err := f.store.OccupancyRecords().ListRecords(f.ctx, filters)
	require.NoError(f.t, err)
	return recs
}

func (f *fixture) residents(pop domain.Population) []*domain.Resident {
	f.t.Helper()
	rs, err := f.store.Residents().ListResidents(f.ctx, pop, repository.ResidentFilters{})
	require.NoError(f.t, err)
	return rs
}

// assertUnitsConsistent checks every unit against its active residents.
func (f *fixture) assertUnitsConsistent() {
	f.t.Helper()
	units, err := f.store.Units().ListUnits(f.ctx, repository.UnitFilters{})
	require.NoError(f.t, err)
	counts, err := f.store.Residents().CountActiveByUnit(f.ctx)
	require.NoError(f.t, err)
	for _, u := range units {
		require.GreaterOrEqual(f.t, u.CurrentOccupants, 0, u.Code)
		require.LessOrEqual(f.t, u.CurrentOccupants, u.Beds, u.Code)
		require.Equal(f.t, counts[u.ID], u.CurrentOccupants, u.Code)
		if u.Status != domain.UnitStatusMaintenance {
			require.Equal(f.t, domain.OccupancyStatus(u.CurrentOccupants), u.Status, u.Code)
		}
	}
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.Error {
	t.Helper()
	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	require.Equal(t, kind, de.Kind, err.Error())
	return de
}
