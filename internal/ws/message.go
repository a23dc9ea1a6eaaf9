package ws

import (
	"time"

	"github.com/HerbHall/moodwatch/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageAlertDispatched MessageType = "alert.dispatched"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// AlertData is the payload for alert.dispatched messages. It tells the
// user's dashboard that their contact was (or could not be) notified.
type AlertData struct {
	Channel  string          `json:"channel"`
	Reason   string          `json:"reason"`
	Severity models.Severity `json:"severity,omitempty"`
	Score    int             `json:"score,omitempty"`
	Sent     bool            `json:"sent"`
	SampleID string          `json:"sample_id,omitempty"`
}
