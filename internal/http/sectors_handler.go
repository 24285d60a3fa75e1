package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SectorsHandler 区域与用户分配. Writes are admin only.
type SectorsHandler struct {
	sectors service.SectorService
	logger  *zap.Logger
}

func NewSectorsHandler(sectors service.SectorService, logger *zap.Logger) *SectorsHandler {
	return &SectorsHandler{sectors: sectors, logger: logger}
}

func (h *SectorsHandler) Routes(r chi.Router) {
	r.Get("/", h.ListSectors)
	r.Get("/{id}", h.GetSector)
	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/", h.CreateSector)
		r.Put("/{id}", h.UpdateSector)
		r.Delete("/{id}", h.DeleteSector)
	})
}

// UserRoutes mounts /users; the router wraps it in requireAdmin.
func (h *SectorsHandler) UserRoutes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Put("/{id}/sector", h.AssignUser)
	r.Post("/sync", h.SyncUser)
}

func (h *SectorsHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.sectors.ListSectors(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]map[string]any, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, s.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *SectorsHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	s, err := h.sectors.GetSector(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(s.ToJSON()))
}

func (h *SectorsHandler) CreateSector(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSectorRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	s, err := h.sectors.CreateSector(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(s.ToJSON()))
}

func (h *SectorsHandler) UpdateSector(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateSectorRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	s, err := h.sectors.UpdateSector(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(s.ToJSON()))
}

func (h *SectorsHandler) DeleteSector(w http.ResponseWriter, r *http.Request) {
	if err := h.sectors.DeleteSector(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

func usersToJSON(users []*domain.User) []map[string]any {
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToJSON())
	}
	return out
}

func (h *SectorsHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.sectors.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(usersToJSON(users)))
}

type assignUserRequest struct {
	SectorID string `json:"sectorId"` // 空 = 全局
}

func (h *SectorsHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	var req assignUserRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	u, err := h.sectors.AssignUser(r.Context(), chi.URLParam(r, "id"), req.SectorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u.ToJSON()))
}

type syncUserRequest struct {
	OpenID string `json:"openId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func (h *SectorsHandler) SyncUser(w http.ResponseWriter, r *http.Request) {
	var req syncUserRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	u, err := h.sectors.SyncUser(r.Context(), req.OpenID, req.Name, req.Email)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u.ToJSON()))
}
