package emergency

import (
	"time"

	"github.com/HerbHall/moodwatch/pkg/models"
)

// TopicAlertDispatched is published after every alert delivery attempt,
// successful or not.
const TopicAlertDispatched = "emergency.alert.dispatched"

// Channel names the path that produced an alert.
type Channel string

const (
	ChannelSweep     Channel = "sweep"
	ChannelManual    Channel = "manual"
	ChannelTest      Channel = "test"
	ChannelMoodEntry Channel = "mood-entry"
	ChannelChat      Channel = "chat"
)

// AlertEvent is the payload for TopicAlertDispatched.
type AlertEvent struct {
	UserID    string          `json:"user_id"`
	Channel   Channel         `json:"channel"`
	Reason    Reason          `json:"reason"`
	Severity  models.Severity `json:"severity,omitempty"`
	Score     int             `json:"score,omitempty"`
	Sent      bool            `json:"sent"`
	Error     string          `json:"error,omitempty"`
	SampleID  string          `json:"sample_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
