package models

import (
	"errors"
	"fmt"
	"time"
)

// Score bounds for a mood sample.
const (
	MinScore = 1
	MaxScore = 10
	// MaxNotesLength caps free-text notes on a sample.
	MaxNotesLength = 1000
)

// Mood is the categorical label of a mood sample, ordered by score.
type Mood string

const (
	MoodVeryLow   Mood = "very-low"
	MoodLow       Mood = "low"
	MoodModerate  Mood = "moderate"
	MoodGood      Mood = "good"
	MoodVeryGood  Mood = "very-good"
	MoodExcellent Mood = "excellent"
)

// Valid reports whether m is one of the six known labels.
func (m Mood) Valid() bool {
	switch m {
	case MoodVeryLow, MoodLow, MoodModerate, MoodGood, MoodVeryGood, MoodExcellent:
		return true
	}
	return false
}

// Description returns the human-readable label with its score band.
func (m Mood) Description() string {
	switch m {
	case MoodVeryLow:
		return "Very Low (1-2)"
	case MoodLow:
		return "Low (3-4)"
	case MoodModerate:
		return "Moderate (5-6)"
	case MoodGood:
		return "Good (7-8)"
	case MoodVeryGood:
		return "Very Good (9)"
	case MoodExcellent:
		return "Excellent (10)"
	}
	return ""
}

// MoodForScore maps a 1-10 score onto its label.
func MoodForScore(score int) Mood {
	switch {
	case score <= 2:
		return MoodVeryLow
	case score <= 4:
		return MoodLow
	case score <= 6:
		return MoodModerate
	case score <= 8:
		return MoodGood
	case score == 9:
		return MoodVeryGood
	default:
		return MoodExcellent
	}
}

// Severity grades an emergency evaluation.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Origin says who wrote a sample.
type Origin string

const (
	// OriginUser is a sample the user logged.
	OriginUser Origin = "user"
	// OriginAlert is the record the alerting engine writes for a sent or
	// attempted alert. It is not user activity.
	OriginAlert Origin = "alert"
)

// EmergencyDetail is attached to samples written by the alert dispatcher and
// records why the emergency was raised.
type EmergencyDetail struct {
	Reason        string   `json:"reason"`
	Severity      Severity `json:"severity,omitempty"`
	PreviousScore *int     `json:"previous_score,omitempty"`
	WeeklyAverage *float64 `json:"weekly_average,omitempty"`
}

// MoodAnalysis is the AI service's read of a user-created entry.
type MoodAnalysis struct {
	Sentiment   string   `json:"sentiment,omitempty" example:"negative"`
	Confidence  float64  `json:"confidence,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// MoodSample is one user's self-reported state at a point in time.
type MoodSample struct {
	ID                 string           `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID             string           `json:"user_id"`
	Score              int              `json:"score" example:"6"`
	Mood               Mood             `json:"mood" example:"moderate"`
	Notes              string           `json:"notes,omitempty"`
	IsEmergency        bool             `json:"is_emergency"`
	EmergencyTriggered bool             `json:"emergency_triggered"`
	Emergency          *EmergencyDetail `json:"emergency,omitempty"`
	Analysis           *MoodAnalysis    `json:"analysis,omitempty"`
	Origin             Origin           `json:"origin,omitempty" example:"user"`
	Timestamp          time.Time        `json:"timestamp"`
}

// ErrTriggeredWithoutEmergency is returned for samples claiming a sent
// notification without being flagged as an emergency.
var ErrTriggeredWithoutEmergency = errors.New("emergency_triggered requires is_emergency")

// Validate checks the score range, label and flag invariant.
func (s *MoodSample) Validate() error {
	if s.UserID == "" {
		return errors.New("user_id is required")
	}
	if s.Score < MinScore || s.Score > MaxScore {
		return fmt.Errorf("score %d out of range %d-%d", s.Score, MinScore, MaxScore)
	}
	if !s.Mood.Valid() {
		return fmt.Errorf("unknown mood %q", s.Mood)
	}
	if len(s.Notes) > MaxNotesLength {
		return fmt.Errorf("notes exceed %d characters", MaxNotesLength)
	}
	if s.EmergencyTriggered && !s.IsEmergency {
		return ErrTriggeredWithoutEmergency
	}
	return nil
}

// MoodReading is the AI service's read of a single chat message.
type MoodReading struct {
	Score      float64 `json:"score" example:"3"`
	Sentiment  string  `json:"sentiment,omitempty" example:"negative"`
	Emotion    string  `json:"emotion,omitempty" example:"sadness"`
	Confidence float64 `json:"confidence,omitempty" example:"0.82"`
}
