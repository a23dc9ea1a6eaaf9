package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// Compile-time interface guard.
var _ Sender = (*TwilioSender)(nil)

// TwilioSender sends SMS through the Twilio Messages REST API.
type TwilioSender struct {
	client *resty.Client
	cfg    TwilioConfig
	logger *zap.Logger
}

// twilioMessage is the subset of the Messages resource we read back.
type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// twilioError is Twilio's error body.
type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// NewFromConfig returns a TwilioSender, or ErrNotConfigured when the
// credentials fail validation.
func NewFromConfig(cfg TwilioConfig, logger *zap.Logger) (*TwilioSender, error) {
	if !cfg.Valid() {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}

	// No retries: a retried POST can deliver the same alert twice.
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(15*time.Second).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "moodwatch-notify")

	return &TwilioSender{client: client, cfg: cfg, logger: logger}, nil
}

// Configured implements Sender.
func (s *TwilioSender) Configured() bool { return true }

// Send posts one message. Cancellation of ctx aborts the request.
func (s *TwilioSender) Send(ctx context.Context, phone, body string) error {
	if strings.TrimSpace(phone) == "" {
		return fmt.Errorf("send sms: empty destination")
	}

	var msg twilioMessage
	var apiErr twilioError
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   phone,
			"From": s.cfg.FromNumber,
			"Body": body,
		}).
		SetResult(&msg).
		SetError(&apiErr).
		SetPathParam("sid", s.cfg.AccountSID).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.IsError() {
		s.logger.Warn("twilio rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("twilio_code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		return fmt.Errorf("send sms: twilio %d: %s", resp.StatusCode(), apiErr.Message)
	}

	s.logger.Info("sms sent",
		zap.String("message_sid", msg.SID),
		zap.String("status", msg.Status),
	)
	return nil
}
