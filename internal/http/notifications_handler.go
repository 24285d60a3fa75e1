package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationsHandler struct {
	notifications service.NotificationService
	logger        *zap.Logger
}

func NewNotificationsHandler(notifications service.NotificationService, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, logger: logger}
}

func (h *NotificationsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/unread", h.Unread)
	r.Post("/read-all", h.MarkAllRead)
	r.Post("/{id}/read", h.MarkRead)
}

func notificationsToJSON(ns []*domain.Notification) []map[string]any {
	out := make([]map[string]any, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ToJSON())
	}
	return out
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ns, err := h.notifications.List(r.Context(), callerFrom(r), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(notificationsToJSON(ns)))
}

func (h *NotificationsHandler) Unread(w http.ResponseWriter, r *http.Request) {
	ns, err := h.notifications.Unread(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(notificationsToJSON(ns)))
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), callerFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"updated": n}))
}
