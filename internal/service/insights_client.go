package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrInsightsDisabled is returned when no text generation API key is configured.
var ErrInsightsDisabled = errors.New("insights are not configured")

// InsightsClient turns dashboard stats into short written insights.
type InsightsClient interface {
	Analyze(ctx context.Context, stats *DashboardStats) (string, error)
}

const insightsSystemPrompt = "أنت محلل بيانات ذكي متخصص في إدارة التسكين. قدم رؤى وتوصيات بناءً على الإحصائيات المقدمة. اكتب بالعربية بشكل مختصر ومفيد. قدم 3-5 رؤى رئيسية."

const insightsUserPrefix = "حلل هذه الإحصائيات وقدم رؤى ذكية:\n"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIInsightsClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIInsightsClient struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

func NewOpenAIInsightsClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *OpenAIInsightsClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OpenAIInsightsClient{httpClient: client, model: model, logger: logger}
}

func (c *OpenAIInsightsClient) Analyze(ctx context.Context, stats *DashboardStats) (string, error) {
	payload, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode stats: %w", err)
	}
	req := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: insightsSystemPrompt},
			{Role: "user", Content: insightsUserPrefix + string(payload)},
		},
	}

	var out chatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to call chat completions: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		c.logger.Error("chat completions returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return "", fmt.Errorf("chat completions error: %s", msg)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completions returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
