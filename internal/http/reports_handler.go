package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"
	"github.com/abdoelngaar-maker/housing-management/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportsHandler 仪表盘、报表、占用记录与导入日志
type ReportsHandler struct {
	reports service.ReportService
	logger  *zap.Logger
}

func NewReportsHandler(reports service.ReportService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, logger: logger}
}

func (h *ReportsHandler) Routes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/detailed", h.Detailed)
	r.Get("/occupancy", h.Occupancy)
	r.Get("/occupancy-stats", h.OccupancyStats)
	r.Get("/occupancy-stats/export", h.ExportOccupancyStats)
	r.Get("/resident-history", h.ResidentHistory)
	r.Get("/resident-history/export", h.ExportResidentHistory)
	r.Get("/insights", h.Insights)
}

// RecordRoutes mounts /records.
func (h *ReportsHandler) RecordRoutes(r chi.Router) {
	r.Get("/", h.ListRecords)
	r.Get("/recent", h.RecentActivity)
}

// ImportLogRoutes mounts /import-logs.
func (h *ReportsHandler) ImportLogRoutes(r chi.Router) {
	r.Get("/", h.ListImportLogs)
	r.Get("/{id}", h.GetImportLog)
}

func recordsToJSON(records []*domain.OccupancyRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ToJSON())
	}
	return out
}

func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.DashboardStats(r.Context(), callerFrom(r), optionalQuery(r, "sectorId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

func (h *ReportsHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.DetailedReport(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]map[string]any, 0, len(report))
	for _, ur := range report {
		out = append(out, map[string]any{
			"unit":           ur.Unit.ToJSON(),
			"residents":      residentsToJSON(ur.Residents),
			"past_residents": recordsToJSON(ur.PastResidents),
		})
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

// Occupancy 返回统计与最近记录 (?limit=)
func (h *ReportsHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.OccupancyReport(r.Context(), callerFrom(r), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"stats":   report.Stats,
		"records": recordsToJSON(report.Records),
	}))
}

func (h *ReportsHandler) OccupancyStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.OccupancyStats(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rows))
}

func (h *ReportsHandler) ExportOccupancyStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.OccupancyStats(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := spreadsheet.OccupancyStatsExport(rows)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeFile(w, "occupancy-stats.xlsx", xlsxContentType, data)
}

func (h *ReportsHandler) ResidentHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.ResidentHistory(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rows))
}

func (h *ReportsHandler) ExportResidentHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.ResidentHistory(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := spreadsheet.ResidentHistoryExport(rows)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeFile(w, "resident-history.xlsx", xlsxContentType, data)
}

func (h *ReportsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	text, err := h.reports.Insights(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"insights": text}))
}

// ListRecords (?unitId=&residentId=&action=&limit=)
func (h *ReportsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.reports.ListRecords(r.Context(), callerFrom(r), service.ListRecordsRequest{
		UnitID:     q.Get("unitId"),
		ResidentID: q.Get("residentId"),
		Action:     domain.OccupancyAction(q.Get("action")),
		Limit:      parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(recordsToJSON(records)))
}

func (h *ReportsHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	records, err := h.reports.RecentActivity(r.Context(), callerFrom(r), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(recordsToJSON(records)))
}

func (h *ReportsHandler) ListImportLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.reports.ListImportLogs(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]map[string]any, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ReportsHandler) GetImportLog(w http.ResponseWriter, r *http.Request) {
	l, err := h.reports.GetImportLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(l.ToJSON()))
}
