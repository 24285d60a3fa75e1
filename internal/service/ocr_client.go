package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrOCRDisabled is returned when no OCR service is configured.
var ErrOCRDisabled = errors.New("ocr service is not configured")

// ScannedDocument is one identity document read from an image.
type ScannedDocument struct {
	Name           string        `json:"name"`
	NationalID     string        `json:"nationalId,omitempty"`
	PassportNumber string        `json:"passportNumber,omitempty"`
	Nationality    string        `json:"nationality,omitempty"`
	Gender         domain.Gender `json:"gender,omitempty"`
	Confidence     int           `json:"confidence"`
	NeedsReview    bool          `json:"needsReview"`
}

// OCRClient extracts identity documents from a base64 image.
type OCRClient interface {
	Scan(ctx context.Context, pop domain.Population, imageBase64 string) ([]ScannedDocument, error)
}

var (
	nationalIDPattern = regexp.MustCompile(`\d{14}`)
	passportPattern   = regexp.MustCompile(`(?i)\b[A-Z0-9]{9}\b`)
)

type ocrRequest struct {
	Image string `json:"image"`
}

type ocrDocument struct {
	Name           string  `json:"name"`
	NationalID     string  `json:"nationalId"`
	PassportNumber string  `json:"passportNumber"`
	Nationality    string  `json:"nationality"`
	Gender         string  `json:"gender"`
	Confidence     float64 `json:"confidence"`
	RawText        string  `json:"rawText"`
}

type ocrResponse struct {
	Documents []ocrDocument `json:"documents"`
	Message   string        `json:"message,omitempty"`
}

// HTTPOCRClient talks to the document extraction service.
type HTTPOCRClient struct {
	httpClient      *resty.Client
	reviewThreshold int
	logger          *zap.Logger
}

func NewHTTPOCRClient(baseURL, apiKey string, timeout time.Duration, reviewThreshold int, logger *zap.Logger) *HTTPOCRClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &HTTPOCRClient{httpClient: client, reviewThreshold: reviewThreshold, logger: logger}
}

func ocrPath(pop domain.Population) string {
	if pop == domain.PopulationRussian {
		return "/v1/documents/russian-passport"
	}
	return "/v1/documents/egyptian-id"
}

func (c *HTTPOCRClient) Scan(ctx context.Context, pop domain.Population, imageBase64 string) ([]ScannedDocument, error) {
	if !pop.Valid() {
		return nil, domain.MissingField("type")
	}
	image := stripDataURL(imageBase64)
	if image == "" {
		return nil, domain.MissingField("imageBase64")
	}

	var out ocrResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(ocrRequest{Image: image}).
		SetResult(&out).
		SetError(&out).
		Post(ocrPath(pop))
	if err != nil {
		return nil, fmt.Errorf("failed to call OCR service: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("OCR service returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", out.Message),
		)
		return nil, fmt.Errorf("OCR service error: %s (status: %d)", out.Message, resp.StatusCode())
	}

	docs := make([]ScannedDocument, 0, len(out.Documents))
	for _, d := range out.Documents {
		docs = append(docs, c.normalize(pop, d))
	}
	c.logger.Info("OCR scan completed",
		zap.String("population", string(pop)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

func (c *HTTPOCRClient) normalize(pop domain.Population, d ocrDocument) ScannedDocument {
	confidence := int(d.Confidence + 0.5)
	if d.Confidence > 0 && d.Confidence <= 1 {
		confidence = int(d.Confidence*100 + 0.5)
	}
	doc := ScannedDocument{Name: strings.TrimSpace(d.Name), Confidence: confidence}

	if pop == domain.PopulationRussian {
		doc.PassportNumber = strings.ToUpper(strings.TrimSpace(d.PassportNumber))
		if doc.PassportNumber == "" {
			doc.PassportNumber = strings.ToUpper(passportPattern.FindString(d.RawText))
		}
		doc.Nationality = strings.TrimSpace(d.Nationality)
		if doc.Nationality == "" {
			doc.Nationality = domain.DefaultNationality
		}
		doc.Gender = domain.Gender(strings.ToLower(strings.TrimSpace(d.Gender)))
		if !doc.Gender.Valid() {
			doc.Gender = domain.GenderMale
		}
	} else {
		doc.NationalID = strings.TrimSpace(d.NationalID)
		if doc.NationalID == "" {
			doc.NationalID = nationalIDPattern.FindString(d.RawText)
		}
	}
	if doc.Name == "" {
		doc.Name = firstNameLine(pop, d.RawText)
	}
	doc.NeedsReview = doc.Confidence < c.reviewThreshold ||
		(pop == domain.PopulationRussian && doc.PassportNumber == "") ||
		(pop == domain.PopulationEgyptian && doc.NationalID == "")
	return doc
}

var latinNameLine = regexp.MustCompile(`[A-Z]{3,}`)

// firstNameLine picks the first plausible name line from raw OCR text.
func firstNameLine(pop domain.Population, text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if pop == domain.PopulationRussian {
			if latinNameLine.MatchString(line) {
				return line
			}
			continue
		}
		if len([]rune(line)) > 5 && !nationalIDPattern.MatchString(line) {
			return line
		}
	}
	return ""
}

// stripDataURL removes a "data:image/...;base64," prefix.
func stripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
