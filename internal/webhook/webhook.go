// Package webhook forwards emergency alert events to an external HTTP
// endpoint, such as a care team's incident channel.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/HerbHall/moodwatch/internal/emergency"
	"github.com/HerbHall/moodwatch/internal/version"
	"github.com/HerbHall/moodwatch/pkg/plugin"
)

// SignatureHeader carries the hex HMAC-SHA256 of the body when a secret
// is configured.
const SignatureHeader = "X-Moodwatch-Signature"

// Config is the "webhook" configuration section.
type Config struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Enabled bool          `mapstructure:"enabled"`
	Secret  string        `mapstructure:"secret"` //nolint:gosec // G101: config field name, not a credential
}

// Forwarder posts alert events to the configured URL.
type Forwarder struct {
	cfg    Config
	client *resty.Client
	logger *zap.Logger
}

// New creates a Forwarder. A zero timeout defaults to 10s.
func New(cfg Config, logger *zap.Logger) *Forwarder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "Moodwatch-Webhook/"+version.Short())
	return &Forwarder{cfg: cfg, client: client, logger: logger}
}

// Active reports whether events will be delivered.
func (f *Forwarder) Active() bool {
	return f.cfg.Enabled && f.cfg.URL != ""
}

// Subscribe registers the forwarder for alert events.
func (f *Forwarder) Subscribe(bus plugin.Subscriber) (unsubscribe func()) {
	if f.cfg.Enabled && f.cfg.URL == "" {
		f.logger.Warn("webhook enabled without a URL; alert events will be dropped")
	}
	return bus.Subscribe(emergency.TopicAlertDispatched, f.HandleEvent)
}

// Payload is the JSON body sent to the webhook URL.
type Payload struct {
	Event     string `json:"event"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// HandleEvent delivers one bus event. Failures are logged only.
func (f *Forwarder) HandleEvent(ctx context.Context, event plugin.Event) {
	if !f.Active() {
		return
	}

	body, err := json.Marshal(Payload{
		Event:     event.Topic,
		Source:    event.Source,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Data:      event.Payload,
	})
	if err != nil {
		f.logger.Error("failed to marshal webhook payload", zap.String("topic", event.Topic), zap.Error(err))
		return
	}

	if err := f.post(ctx, body); err != nil {
		f.logger.Warn("webhook delivery failed",
			zap.String("url", f.cfg.URL),
			zap.String("topic", event.Topic),
			zap.Error(err),
		)
		return
	}
	f.logger.Debug("webhook delivered", zap.String("topic", event.Topic))
}

func (f *Forwarder) post(ctx context.Context, body []byte) error {
	req := f.client.R().SetContext(ctx).SetBody(body)
	if f.cfg.Secret != "" {
		req.SetHeader(SignatureHeader, Sign(f.cfg.Secret, body))
	}
	resp, err := req.Post(f.cfg.URL)
	if err != nil {
		return fmt.Errorf("POST %s: %w", f.cfg.URL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s: status %d", f.cfg.URL, resp.StatusCode())
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
