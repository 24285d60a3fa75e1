package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ResidentsHandler serves both resident ledgers under /residents/{type}.
type ResidentsHandler struct {
	residents service.ResidentService
	occupancy service.OccupancyService
	logger    *zap.Logger
}

func NewResidentsHandler(residents service.ResidentService, occupancy service.OccupancyService, logger *zap.Logger) *ResidentsHandler {
	return &ResidentsHandler{residents: residents, occupancy: occupancy, logger: logger}
}

func (h *ResidentsHandler) Routes(r chi.Router) {
	r.Get("/{type}", h.ListResidents)
	r.Get("/{type}/{id}", h.GetResident)
	r.Put("/{type}/{id}", h.UpdateResident)
	r.Post("/{type}/{id}/check-out", h.CheckOut)
}

func populationParam(r *http.Request) (domain.Population, error) {
	pop, ok := domain.ParsePopulation(chi.URLParam(r, "type"))
	if !ok {
		return "", domain.MissingField("type")
	}
	return pop, nil
}

// ListResidents (?status=&unitId=&search=)
func (h *ResidentsHandler) ListResidents(w http.ResponseWriter, r *http.Request) {
	pop, err := populationParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	q := r.URL.Query()
	rs, err := h.residents.ListResidents(r.Context(), callerFrom(r), service.ListResidentsRequest{
		Population: pop,
		Status:     domain.ResidentStatus(q.Get("status")),
		UnitID:     q.Get("unitId"),
		Search:     q.Get("search"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(residentsToJSON(rs)))
}

func (h *ResidentsHandler) GetResident(w http.ResponseWriter, r *http.Request) {
	pop, err := populationParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.residents.GetResident(r.Context(), callerFrom(r), domain.ResidentRef{Population: pop, ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res.ToJSON()))
}

func (h *ResidentsHandler) UpdateResident(w http.ResponseWriter, r *http.Request) {
	pop, err := populationParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.UpdateResidentRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Population, req.ID = pop, chi.URLParam(r, "id")
	res, err := h.residents.UpdateResident(r.Context(), callerFrom(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res.ToJSON()))
}

func (h *ResidentsHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	pop, err := populationParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ref := domain.ResidentRef{Population: pop, ID: chi.URLParam(r, "id")}
	if err := h.occupancy.CheckOut(r.Context(), callerFrom(r), ref); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}
