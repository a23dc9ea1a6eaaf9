// Package sentiment is the client for the AI service that runs the
// chatbot and scores free text for mood.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/moodwatch/pkg/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrUnavailable wraps every transport or non-2xx failure from the service.
var ErrUnavailable = errors.New("ai service unavailable")

// Config is the "ai" configuration section.
type Config struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client talks to the AI service over JSON/HTTP.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a Client. A zero timeout defaults to 15s.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: c, logger: logger}
}

// HistoryMessage is one prior chat turn sent as context.
type HistoryMessage struct {
	Message string `json:"message"`
	IsBot   bool   `json:"isBot"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string           `json:"message"`
	UserID  string           `json:"userId"`
	History []HistoryMessage `json:"conversationHistory,omitempty"`
}

// ChatResponse is the subset of the /chat reply moodwatch consumes.
type ChatResponse struct {
	Success            bool                `json:"success"`
	Response           string              `json:"response"`
	MoodAnalysis       *models.MoodReading `json:"moodAnalysis"`
	Suggestions        []string            `json:"suggestions"`
	EmergencyTriggered bool                `json:"emergencyTriggered"`
	Error              string              `json:"error,omitempty"`
}

// Chat sends one user message and returns the bot's reply with its mood reading.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("%w: chat: %v", ErrUnavailable, err)
	}
	if resp.IsError() || !out.Success {
		c.logger.Warn("ai chat failed",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", out.Error),
		)
		return nil, fmt.Errorf("%w: chat returned %d: %s", ErrUnavailable, resp.StatusCode(), out.Error)
	}
	return &out, nil
}

type analyzeRequest struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
	Mood  string `json:"mood,omitempty"`
}

type analyzeResponse struct {
	Analysis *models.MoodAnalysis `json:"analysis"`
	Error    string               `json:"error,omitempty"`
}

// AnalyzeMood scores a mood entry's notes. Implements mood.Analyzer.
func (c *Client) AnalyzeMood(ctx context.Context, notes string, score int, mood models.Mood) (*models.MoodAnalysis, error) {
	var out analyzeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Text: notes, Score: score, Mood: string(mood)}).
		SetResult(&out).
		SetError(&out).
		Post("/analyze-mood")
	if err != nil {
		return nil, fmt.Errorf("%w: analyze mood: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: analyze mood returned %d: %s", ErrUnavailable, resp.StatusCode(), out.Error)
	}
	if out.Analysis == nil {
		return nil, fmt.Errorf("%w: analyze mood: empty analysis", ErrUnavailable)
	}
	return out.Analysis, nil
}

// Ping checks GET /health.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: health returned %d", ErrUnavailable, resp.StatusCode())
	}
	return nil
}
