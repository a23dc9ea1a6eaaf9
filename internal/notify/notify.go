// Package notify delivers SMS notifications to emergency contacts.
package notify

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when SMS credentials are missing or malformed.
var ErrNotConfigured = errors.New("sms sender not configured")

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
	// Configured reports whether Send can possibly succeed.
	Configured() bool
}

// Disabled is the Sender used when credentials are absent. Every Send
// fails with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string) error { return ErrNotConfigured }
func (Disabled) Configured() bool                           { return false }

// TwilioConfig is the "twilio" configuration section.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"` //nolint:gosec // G101: config field name, not a credential
	FromNumber string `mapstructure:"from_number"`
	BaseURL    string `mapstructure:"base_url"`
}

// Valid reports whether the credentials look usable: an account SID with
// the AC prefix, a token longer than 20 characters and a sender number.
func (c TwilioConfig) Valid() bool {
	return strings.HasPrefix(c.AccountSID, "AC") &&
		len(c.AuthToken) > 20 &&
		strings.TrimSpace(c.FromNumber) != ""
}
