// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/moodwatch/internal/store"
	"github.com/HerbHall/moodwatch/pkg/models"
)

// NewStore opens an in-memory SQLite store closed at test cleanup.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// NewMoodSample returns a moderate, non-emergency sample recorded now.
// Override fields with the With* options.
func NewMoodSample(userID string, opts ...func(*models.MoodSample)) models.MoodSample {
	m := models.MoodSample{
		ID:        uuid.New().String(),
		UserID:    userID,
		Score:     6,
		Mood:      models.MoodModerate,
		Timestamp: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// WithScore sets the score and its matching mood label.
func WithScore(score int) func(*models.MoodSample) {
	return func(m *models.MoodSample) {
		m.Score = score
		m.Mood = models.MoodForScore(score)
	}
}

// At sets the sample timestamp.
func At(ts time.Time) func(*models.MoodSample) {
	return func(m *models.MoodSample) { m.Timestamp = ts }
}

// WithNotes sets the free-text notes.
func WithNotes(notes string) func(*models.MoodSample) {
	return func(m *models.MoodSample) { m.Notes = notes }
}

// AsEmergency flags the sample as an emergency; triggered also marks the
// alert as delivered.
func AsEmergency(triggered bool) func(*models.MoodSample) {
	return func(m *models.MoodSample) {
		m.IsEmergency = true
		m.EmergencyTriggered = triggered
	}
}

// NewUser returns a user with an active emergency contact.
func NewUser(opts ...func(*models.User)) models.User {
	u := models.User{
		ID:        uuid.New().String(),
		FirstName: "Jamie",
		LastName:  "Rivera",
		Contact: &models.EmergencyContact{
			Name:         "Alex Rivera",
			Phone:        "+15555550100",
			Relationship: "sibling",
			IsActive:     true,
		},
	}
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// WithUserID sets the user ID.
func WithUserID(id string) func(*models.User) {
	return func(u *models.User) { u.ID = id }
}

// WithName sets the user's first and last name.
func WithName(first, last string) func(*models.User) {
	return func(u *models.User) {
		u.FirstName = first
		u.LastName = last
	}
}

// WithContact replaces the emergency contact. Pass nil for none.
func WithContact(c *models.EmergencyContact) func(*models.User) {
	return func(u *models.User) { u.Contact = c }
}

// WithInactiveContact keeps the contact but marks it inactive.
func WithInactiveContact() func(*models.User) {
	return func(u *models.User) {
		if u.Contact != nil {
			c := *u.Contact
			c.IsActive = false
			u.Contact = &c
		}
	}
}
