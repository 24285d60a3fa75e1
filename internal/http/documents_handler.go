package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DocumentsHandler 证件识别与图片上传
type DocumentsHandler struct {
	documents service.DocumentService
	logger    *zap.Logger
}

func NewDocumentsHandler(documents service.DocumentService, logger *zap.Logger) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, logger: logger}
}

func (h *DocumentsHandler) Routes(r chi.Router) {
	r.Post("/scan", h.Scan)
	r.Post("/images", h.UploadImage)
}

type scanRequest struct {
	Type        domain.Population `json:"type"`
	ImageBase64 string            `json:"imageBase64"`
}

func (h *DocumentsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	docs, err := h.documents.Scan(r.Context(), req.Type, req.ImageBase64)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"documents": docs}))
}

type uploadImageRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

func (h *DocumentsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	var req uploadImageRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	url, err := h.documents.UploadImage(r.Context(), req.ImageBase64)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"url": url}))
}

