package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"
	"github.com/abdoelngaar-maker/housing-management/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UnitsHandler 单元管理 Handler
type UnitsHandler struct {
	units     service.UnitService
	maxUpload int64
	logger    *zap.Logger
}

func NewUnitsHandler(units service.UnitService, maxUpload int64, logger *zap.Logger) *UnitsHandler {
	return &UnitsHandler{units: units, maxUpload: maxUpload, logger: logger}
}

func (h *UnitsHandler) Routes(r chi.Router) {
	r.Get("/", h.ListUnits)
	r.Post("/", h.CreateUnit)
	r.Post("/import", h.ImportUnits)
	r.Get("/template", h.Template)
	r.Get("/by-code/{code}", h.GetUnitByCode)
	r.Get("/{id}", h.GetUnit)
	r.Put("/{id}", h.UpdateUnit)
	r.Delete("/{id}", h.DeleteUnit)
	r.Get("/{id}/residents", h.ListUnitResidents)
}

func unitsToJSON(units []*domain.Unit) []map[string]any {
	out := make([]map[string]any, 0, len(units))
	for _, u := range units {
		out = append(out, u.ToJSON())
	}
	return out
}

func residentsToJSON(rs []*domain.Resident) []map[string]any {
	out := make([]map[string]any, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ToJSON())
	}
	return out
}

// ListUnits 查询单元列表 (?type=&status=&search=&sectorId=)
func (h *UnitsHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	units, err := h.units.ListUnits(r.Context(), callerFrom(r), service.ListUnitsRequest{
		Type:     domain.UnitType(q.Get("type")),
		Status:   domain.UnitStatus(q.Get("status")),
		Search:   q.Get("search"),
		SectorID: q.Get("sectorId"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(unitsToJSON(units)))
}

func (h *UnitsHandler) GetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.units.GetUnit(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u.ToJSON()))
}

func (h *UnitsHandler) GetUnitByCode(w http.ResponseWriter, r *http.Request) {
	u, err := h.units.GetUnitByCode(r.Context(), callerFrom(r), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u.ToJSON()))
}

func (h *UnitsHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUnitRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	u, err := h.units.CreateUnit(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(u.ToJSON()))
}

func (h *UnitsHandler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUnitRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	u, err := h.units.UpdateUnit(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u.ToJSON()))
}

func (h *UnitsHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.units.DeleteUnit(r.Context(), callerFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

func (h *UnitsHandler) ListUnitResidents(w http.ResponseWriter, r *http.Request) {
	rs, err := h.units.ListUnitResidents(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(residentsToJSON(rs)))
}

// ImportUnits 接受 multipart 表格文件（file, sectorId）或 JSON {sectorId, units}
func (h *UnitsHandler) ImportUnits(w http.ResponseWriter, r *http.Request) {
	var req service.ImportUnitsRequest
	if isMultipart(r) {
		f, name, err := formFile(w, r, h.maxUpload)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		defer f.Close()
		rows, err := spreadsheet.ParseUnits(f, name)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		req.Units = rows
		if id := r.FormValue("sectorId"); id != "" {
			req.SectorID = &id
		}
	} else if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.units.ImportUnits(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *UnitsHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := spreadsheet.UnitImportTemplate()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeFile(w, "units-template.xlsx", xlsxContentType, data)
}
