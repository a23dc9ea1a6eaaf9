// Package emergency is the crisis-detection and alerting engine: it
// evaluates users' mood history, sends at most one SMS per user per day to
// their emergency contact, and records every alert as a mood sample.
package emergency

import (
	"context"
	"errors"
	"time"

	"github.com/HerbHall/moodwatch/pkg/models"
)

var (
	// ErrNoActiveContact is returned by explicit actions when the user has
	// no active emergency contact with a phone number.
	ErrNoActiveContact = errors.New("no active emergency contact configured")
	// ErrUserNotFound is returned when the directory has no such user.
	ErrUserNotFound = errors.New("user not found")
	// ErrDeliveryFailed wraps a send failure surfaced to the caller.
	ErrDeliveryFailed = errors.New("emergency notification delivery failed")
)

// SampleStore is the mood history the engine reads and appends to.
// Lookups return nil, nil when nothing matches.
type SampleStore interface {
	LatestSample(ctx context.Context, userID string) (*models.MoodSample, error)
	LatestSampleBetween(ctx context.Context, userID string, from, to time.Time) (*models.MoodSample, error)
	HasSampleSince(ctx context.Context, userID string, since time.Time) (bool, error)
	WeeklyAverage(ctx context.Context, userID string, since time.Time) (avg float64, n int, err error)
	HasTriggeredSince(ctx context.Context, userID string, since time.Time) (bool, error)
	InsertSample(ctx context.Context, sample *models.MoodSample) error
	ListEmergencies(ctx context.Context, userID string, since time.Time) ([]models.MoodSample, error)
}

// Directory resolves users and their emergency contacts.
type Directory interface {
	// ListMonitoredUsers returns users with an active contact.
	ListMonitoredUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Reason says why an evaluation did or did not raise an emergency.
type Reason string

const (
	ReasonCriticalScore      Reason = "critical-score"
	ReasonSharpDecline       Reason = "sharp-decline"
	ReasonBelowWeeklyAverage Reason = "below-weekly-average"
	ReasonNone               Reason = "none"
	ReasonNoData             Reason = "no-data"
	// Reasons recorded by explicit and inline paths.
	ReasonManual  Reason = "manual"
	ReasonChatbot Reason = "chatbot"
)

// Summary is the phrase stored in sample notes and sent in alerts.
func (r Reason) Summary() string {
	switch r {
	case ReasonCriticalScore:
		return "Critical mood score"
	case ReasonSharpDecline:
		return "Sharp mood decline"
	case ReasonBelowWeeklyAverage:
		return "Significant drop from weekly average"
	case ReasonNoData:
		return "No mood data"
	case ReasonManual:
		return "Manual emergency trigger"
	case ReasonChatbot:
		return "Chatbot emergency trigger"
	}
	return "No emergency conditions detected"
}

// Evaluation is the outcome of one risk check. It is never persisted.
type Evaluation struct {
	IsEmergency   bool            `json:"is_emergency"`
	Reason        Reason          `json:"reason"`
	Severity      models.Severity `json:"severity,omitempty"`
	Score         int             `json:"score,omitempty"`
	PreviousScore *int            `json:"previous_score,omitempty"`
	WeeklyAverage *float64        `json:"weekly_average,omitempty"`
}

// Thresholds are the fixed rule constants. They are not read from
// configuration.
type Thresholds struct {
	// CriticalScore and below is always an emergency.
	CriticalScore int
	// DeclineRatio of yesterday's score is the sharp-decline cutoff.
	DeclineRatio float64
	// WeeklyRatio of the weekly mean is the below-average cutoff.
	WeeklyRatio float64
	// WeeklyWindow is how far back the mean looks.
	WeeklyWindow time.Duration
	// InlineDrop is the absolute fall below the mean that trips the
	// entry-local rule.
	InlineDrop float64
	// RecentWindow: users with nothing logged inside it are skipped by the sweep.
	RecentWindow time.Duration
}

var thresholds = Thresholds{
	CriticalScore: 2,
	DeclineRatio:  0.5,
	WeeklyRatio:   0.4,
	WeeklyWindow:  7 * 24 * time.Hour,
	InlineDrop:    4,
	RecentWindow:  24 * time.Hour,
}

// DefaultThresholds returns a copy of the rule constants.
func DefaultThresholds() Thresholds { return thresholds }

// emergencyMood labels synthetic emergency samples.
func emergencyMood(score int) models.Mood {
	if score <= thresholds.CriticalScore {
		return models.MoodVeryLow
	}
	return models.MoodLow
}

// clampScore fits an external reading into the sample score range,
// treating missing or non-positive readings as the lowest score.
func clampScore(v float64) int {
	if v <= 0 {
		return models.MinScore
	}
	n := int(v + 0.5)
	if n < models.MinScore {
		return models.MinScore
	}
	if n > models.MaxScore {
		return models.MaxScore
	}
	return n
}
