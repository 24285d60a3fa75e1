package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService scans identity documents and stores their images.
type DocumentService interface {
	Scan(ctx context.Context, pop domain.Population, imageBase64 string) ([]ScannedDocument, error)
	UploadImage(ctx context.Context, imageBase64 string) (string, error)
}

type documentService struct {
	ocr     OCRClient
	objects storage.ObjectStore
	logger  *zap.Logger
}

// NewDocumentService builds the document service. ocr may be nil when no OCR service is configured.
func NewDocumentService(ocr OCRClient, objects storage.ObjectStore, logger *zap.Logger) DocumentService {
	return &documentService{ocr: ocr, objects: objects, logger: logger}
}

func (s *documentService) Scan(ctx context.Context, pop domain.Population, imageBase64 string) ([]ScannedDocument, error) {
	if s.ocr == nil {
		return nil, ErrOCRDisabled
	}
	return s.ocr.Scan(ctx, pop, imageBase64)
}

// UploadImage normalizes the image and stores it under ocr-images/.
func (s *documentService) UploadImage(ctx context.Context, imageBase64 string) (string, error) {
	raw := stripDataURL(imageBase64)
	if raw == "" {
		return "", domain.MissingField("imageBase64")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", domain.MissingField("imageBase64")
	}
	jpeg, err := storage.NormalizeImage(data)
	if err != nil {
		return "", domain.MissingField("imageBase64")
	}

	key := "ocr-images/" + uuid.NewString() + ".jpg"
	url, err := s.objects.Put(ctx, key, jpeg, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	s.logger.Info("document image stored", zap.String("key", key), zap.Int("bytes", len(jpeg)))
	return url, nil
}
