package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/service"
	"github.com/abdoelngaar-maker/housing-management/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OccupancyHandler 入住、批量入住、转移、批量退房、表格导入
type OccupancyHandler struct {
	occupancy service.OccupancyService
	maxUpload int64
	logger    *zap.Logger
}

func NewOccupancyHandler(occupancy service.OccupancyService, maxUpload int64, logger *zap.Logger) *OccupancyHandler {
	return &OccupancyHandler{occupancy: occupancy, maxUpload: maxUpload, logger: logger}
}

func (h *OccupancyHandler) Routes(r chi.Router) {
	r.Post("/check-in", h.CheckIn)
	r.Post("/bulk-check-in", h.BulkCheckIn)
	r.Post("/transfer", h.Transfer)
	r.Post("/evictions", h.BulkEvict)
	r.Get("/evictions/template", h.EvictionTemplate)
	r.Post("/imports", h.ImportResidents)
	r.Get("/imports/template", h.ImportTemplate)
}

func (h *OccupancyHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req service.CheckInRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp, err := h.occupancy.CheckIn(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp))
}

func (h *OccupancyHandler) BulkCheckIn(w http.ResponseWriter, r *http.Request) {
	var req service.BulkCheckInRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp, err := h.occupancy.BulkCheckIn(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp))
}

func (h *OccupancyHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req service.TransferRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp, err := h.occupancy.Transfer(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// BulkEvict 接受 multipart 表格文件或 JSON {fileName, rows}
func (h *OccupancyHandler) BulkEvict(w http.ResponseWriter, r *http.Request) {
	var req service.BulkEvictRequest
	if isMultipart(r) {
		f, name, err := formFile(w, r, h.maxUpload)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		defer f.Close()
		if req.Rows, err = spreadsheet.ParseEviction(f, name); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		req.FileName = name
	} else if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.occupancy.BulkEvict(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	localizeRows(requestLanguage(r), res.Errors)
	writeJSON(w, http.StatusOK, Ok(res))
}

// ImportResidents 接受 multipart 表格文件或 JSON {fileName, rows}
func (h *OccupancyHandler) ImportResidents(w http.ResponseWriter, r *http.Request) {
	var req service.ImportResidentsRequest
	if isMultipart(r) {
		f, name, err := formFile(w, r, h.maxUpload)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		defer f.Close()
		if req.Rows, err = spreadsheet.ParseResidentImport(f, name); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		req.FileName = name
	} else if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.occupancy.ImportResidents(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	localizeRows(requestLanguage(r), res.Errors)
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *OccupancyHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := spreadsheet.ResidentImportTemplate()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeFile(w, "residents-template.xlsx", xlsxContentType, data)
}

func (h *OccupancyHandler) EvictionTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := spreadsheet.EvictionTemplate()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeFile(w, "eviction-template.xlsx", xlsxContentType, data)
}
