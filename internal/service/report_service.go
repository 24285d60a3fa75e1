package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportService serves the read-only reporting views. Every view is filtered by the caller scope.
type ReportService interface {
	DashboardStats(ctx context.Context, caller domain.Caller, sectorID *string) (*DashboardStats, error)
	DetailedReport(ctx context.Context, caller domain.Caller) ([]*UnitReport, error)
	OccupancyStats(ctx context.Context, caller domain.Caller) ([]OccupancyStatsRow, error)
	ResidentHistory(ctx context.Context, caller domain.Caller) ([]ResidentHistoryRow, error)
	RecentActivity(ctx context.Context, caller domain.Caller, limit int) ([]*domain.OccupancyRecord, error)
	OccupancyReport(ctx context.Context, caller domain.Caller, limit int) (*OccupancyReport, error)
	ListRecords(ctx context.Context, caller domain.Caller, req ListRecordsRequest) ([]*domain.OccupancyRecord, error)
	ListImportLogs(ctx context.Context, limit int) ([]*domain.ImportLog, error)
	GetImportLog(ctx context.Context, id string) (*domain.ImportLog, error)
	Insights(ctx context.Context, caller domain.Caller) (string, error)
}

const (
	defaultRecentActivity = 10
	defaultRecordsLimit   = 20
	defaultImportLogs     = 50
)

type reportService struct {
	store    repository.Store
	cache    *DashboardCache
	insights InsightsClient
	logger   *zap.Logger
}

// NewReportService builds the reporting views. insights may be nil when text generation is not configured.
func NewReportService(store repository.Store, cache *DashboardCache, insights InsightsClient, logger *zap.Logger) ReportService {
	return &reportService{store: store, cache: cache, insights: insights, logger: logger}
}

// DashboardStats is the unit and resident summary shown on the dashboard.
type DashboardStats struct {
	TotalUnits       int     `json:"totalUnits"`
	OccupiedUnits    int     `json:"occupiedUnits"`
	VacantUnits      int     `json:"vacantUnits"`
	MaintenanceUnits int     `json:"maintenanceUnits"`
	Apartments       int     `json:"apartments"`
	Chalets          int     `json:"chalets"`
	ActiveEgyptians  int     `json:"activeEgyptians"`
	ActiveRussians   int     `json:"activeRussians"`
	TotalBeds        int     `json:"totalBeds"`
	OccupiedBeds     int     `json:"occupiedBeds"`
	OccupancyRate    float64 `json:"occupancyRate"` // percent, one decimal
}

// UnitReport is one unit of the detailed report.
type UnitReport struct {
	Unit          *domain.Unit              `json:"unit"`
	Residents     []*domain.Resident        `json:"residents"`
	PastResidents []*domain.OccupancyRecord `json:"pastResidents"`
}

type OccupancyStatsRow struct {
	UnitCode     string            `json:"unitCode"`
	BuildingName string            `json:"buildingName"`
	TotalBeds    int               `json:"totalBeds"`
	OccupiedBeds int               `json:"occupiedBeds"`
	VacantBeds   int               `json:"vacantBeds"`
	Status       domain.UnitStatus `json:"status"`
}

type ResidentHistoryRow struct {
	Name         string            `json:"name"`
	IDNumber     string            `json:"idNumber"`
	Phone        string            `json:"phone"`
	UnitCode     string            `json:"unitCode"`
	CheckInDate  time.Time         `json:"checkInDate"`
	CheckOutDate *time.Time        `json:"checkOutDate"`
	Type         domain.Population `json:"type"`
}

type OccupancyReport struct {
	Stats   *DashboardStats           `json:"stats"`
	Records []*domain.OccupancyRecord `json:"records"`
}

type ListRecordsRequest struct {
	UnitID     string
	ResidentID string
	Action     domain.OccupancyAction
	Limit      int
}

const unknownUnitCode = "Unknown"

func (s *reportService) DashboardStats(ctx context.Context, caller domain.Caller, sectorID *string) (*DashboardStats, error) {
	scope, err := resolveScope(ctx, s.store, caller, sectorID)
	if err != nil {
		return nil, err
	}
	gen := s.cache.generation(ctx)
	if stats, ok := s.cache.get(ctx, scope, gen); ok {
		return stats, nil
	}

	var (
		units     []*domain.Unit
		egyptians []*domain.Resident
		russians  []*domain.Resident
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		units, err = s.store.Units().ListUnits(gctx, repository.UnitFilters{Scope: scope})
		return err
	})
	g.Go(func() error {
		var err error
		egyptians, err = s.store.Residents().ListResidents(gctx, domain.PopulationEgyptian, repository.ResidentFilters{
			Status: domain.ResidentStatusActive,
			Scope:  scope,
		})
		return err
	})
	g.Go(func() error {
		var err error
		russians, err = s.store.Residents().ListResidents(gctx, domain.PopulationRussian, repository.ResidentFilters{
			Status: domain.ResidentStatusActive,
			Scope:  scope,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	stats := computeDashboardStats(units, len(egyptians), len(russians))
	s.cache.put(ctx, scope, gen, stats)
	return stats, nil
}

func computeDashboardStats(units []*domain.Unit, egyptians, russians int) *DashboardStats {
	st := &DashboardStats{
		TotalUnits:      len(units),
		ActiveEgyptians: egyptians,
		ActiveRussians:  russians,
	}
	for _, u := range units {
		switch u.Status {
		case domain.UnitStatusOccupied:
			st.OccupiedUnits++
		case domain.UnitStatusVacant:
			st.VacantUnits++
		case domain.UnitStatusMaintenance:
			st.MaintenanceUnits++
		}
		switch u.Type {
		case domain.UnitTypeApartment:
			st.Apartments++
		case domain.UnitTypeChalet:
			st.Chalets++
		}
		st.TotalBeds += u.Beds
		st.OccupiedBeds += u.CurrentOccupants
	}
	if st.TotalBeds > 0 {
		rate := float64(st.OccupiedBeds) * 1000 / float64(st.TotalBeds)
		st.OccupancyRate = float64(int(rate+0.5)) / 10
	}
	return st
}

func (s *reportService) DetailedReport(ctx context.Context, caller domain.Caller) ([]*UnitReport, error) {
	var (
		units     []*domain.Unit
		residents []*domain.Resident
		past      []*domain.OccupancyRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		units, err = s.store.Units().ListUnits(gctx, repository.UnitFilters{Scope: caller.Scope})
		return err
	})
	g.Go(func() error {
		var err error
		residents, err = s.activeResidents(gctx, caller.Scope)
		return err
	})
	g.Go(func() error {
		var err error
		past, err = s.store.OccupancyRecords().ListRecords(gctx, repository.RecordFilters{
			Action: domain.ActionCheckOut,
			Scope:  caller.Scope,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load detailed report: %w", err)
	}

	byUnit := make(map[string]*UnitReport, len(units))
	out := make([]*UnitReport, 0, len(units))
	for _, u := range units {
		rep := &UnitReport{Unit: u, Residents: []*domain.Resident{}, PastResidents: []*domain.OccupancyRecord{}}
		byUnit[u.ID] = rep
		out = append(out, rep)
	}
	for _, r := range residents {
		if rep, ok := byUnit[r.UnitID.String]; ok && r.UnitID.Valid {
			rep.Residents = append(rep.Residents, r)
		}
	}
	for _, rec := range past {
		if rep, ok := byUnit[rec.UnitID]; ok {
			rep.PastResidents = append(rep.PastResidents, rec)
		}
	}
	return out, nil
}

func (s *reportService) activeResidents(ctx context.Context, scope domain.Scope) ([]*domain.Resident, error) {
	var out []*domain.Resident
	for _, pop := range []domain.Population{domain.PopulationEgyptian, domain.PopulationRussian} {
		rs, err := s.store.Residents().ListResidents(ctx, pop, repository.ResidentFilters{
			Status: domain.ResidentStatusActive,
			Scope:  scope,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (s *reportService) OccupancyStats(ctx context.Context, caller domain.Caller) ([]OccupancyStatsRow, error) {
	units, err := s.store.Units().ListUnits(ctx, repository.UnitFilters{Scope: caller.Scope})
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	out := make([]OccupancyStatsRow, 0, len(units))
	for _, u := range units {
		building := u.BuildingName.String
		if building == "" {
			building = "-"
		}
		out = append(out, OccupancyStatsRow{
			UnitCode:     u.Code,
			BuildingName: building,
			TotalBeds:    u.Beds,
			OccupiedBeds: u.CurrentOccupants,
			VacantBeds:   u.AvailableBeds(),
			Status:       u.Status,
		})
	}
	return out, nil
}

// ResidentHistory flattens both populations, newest check-in first.
func (s *reportService) ResidentHistory(ctx context.Context, caller domain.Caller) ([]ResidentHistoryRow, error) {
	var (
		units     []*domain.Unit
		egyptians []*domain.Resident
		russians  []*domain.Resident
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		// 全部单元：历史住户可能关联到当前 scope 以外的全局单元
		units, err = s.store.Units().ListUnits(gctx, repository.UnitFilters{})
		return err
	})
	g.Go(func() error {
		var err error
		egyptians, err = s.store.Residents().ListResidents(gctx, domain.PopulationEgyptian, repository.ResidentFilters{Scope: caller.Scope})
		return err
	})
	g.Go(func() error {
		var err error
		russians, err = s.store.Residents().ListResidents(gctx, domain.PopulationRussian, repository.ResidentFilters{Scope: caller.Scope})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load resident history: %w", err)
	}

	codes := make(map[string]string, len(units))
	for _, u := range units {
		codes[u.ID] = u.Code
	}
	out := make([]ResidentHistoryRow, 0, len(egyptians)+len(russians))
	for _, r := range append(egyptians, russians...) {
		row := ResidentHistoryRow{
			Name:        r.Name,
			IDNumber:    r.DocumentNumber(),
			Phone:       r.Phone.String,
			UnitCode:    unknownUnitCode,
			CheckInDate: r.CheckInDate,
			Type:        r.Population,
		}
		unitID := r.UnitID
		if !unitID.Valid {
			unitID = r.LastUnitID
		}
		if code, ok := codes[unitID.String]; ok && unitID.Valid {
			row.UnitCode = code
		}
		if r.CheckOutDate.Valid {
			t := r.CheckOutDate.Time
			row.CheckOutDate = &t
		}
		out = append(out, row)
	}
	// 同一批次共享入住时间：再按人群、证件号、姓名排序，保证重复读取结果一致
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CheckInDate.Equal(b.CheckInDate) {
			return a.CheckInDate.After(b.CheckInDate)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.IDNumber != b.IDNumber {
			return a.IDNumber < b.IDNumber
		}
		return a.Name < b.Name
	})
	return out, nil
}

func (s *reportService) RecentActivity(ctx context.Context, caller domain.Caller, limit int) ([]*domain.OccupancyRecord, error) {
	if limit <= 0 {
		limit = defaultRecentActivity
	}
	return s.ListRecords(ctx, caller, ListRecordsRequest{Limit: limit})
}

func (s *reportService) OccupancyReport(ctx context.Context, caller domain.Caller, limit int) (*OccupancyReport, error) {
	stats, err := s.DashboardStats(ctx, caller, nil)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecordsLimit
	}
	records, err := s.ListRecords(ctx, caller, ListRecordsRequest{Limit: limit})
	if err != nil {
		return nil, err
	}
	return &OccupancyReport{Stats: stats, Records: records}, nil
}

func (s *reportService) ListRecords(ctx context.Context, caller domain.Caller, req ListRecordsRequest) ([]*domain.OccupancyRecord, error) {
	if req.Action != "" && !req.Action.Valid() {
		return nil, domain.MissingField("action")
	}
	if req.Limit <= 0 {
		req.Limit = defaultRecordsLimit
	}
	out, err := s.store.OccupancyRecords().ListRecords(ctx, repository.RecordFilters{
		UnitID:     req.UnitID,
		ResidentID: req.ResidentID,
		Action:     req.Action,
		Scope:      caller.Scope,
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list occupancy records: %w", err)
	}
	return out, nil
}

func (s *reportService) ListImportLogs(ctx context.Context, limit int) ([]*domain.ImportLog, error) {
	if limit <= 0 {
		limit = defaultImportLogs
	}
	out, err := s.store.ImportLogs().ListImportLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	return out, nil
}

func (s *reportService) GetImportLog(ctx context.Context, id string) (*domain.ImportLog, error) {
	l, err := s.store.ImportLogs().GetImportLog(ctx, id)
	if err != nil {
		return nil, translate(err, "import log")
	}
	return l, nil
}

// Insights asks the text generation service to comment on the caller's dashboard stats.
func (s *reportService) Insights(ctx context.Context, caller domain.Caller) (string, error) {
	if s.insights == nil {
		return "", ErrInsightsDisabled
	}
	stats, err := s.DashboardStats(ctx, caller, nil)
	if err != nil {
		return "", err
	}
	text, err := s.insights.Analyze(ctx, stats)
	if err != nil {
		s.logger.Warn("insights request failed", zap.Error(err))
		return "", err
	}
	return text, nil
}
