// Package mood stores the per-user mood time series and serves the mood
// entry API. Samples are append-only.
package mood

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/moodwatch/pkg/models"
	"github.com/google/uuid"
)

const sampleColumns = `id, user_id, score, mood, notes, is_emergency, emergency_triggered,
	emergency_detail, analysis, recorded_at, origin`

// Store provides database access for mood samples.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// InsertSample validates and appends a sample. A missing ID or timestamp
// is filled in; the sample is updated in place.
func (s *Store) InsertSample(ctx context.Context, m *models.MoodSample) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	if m.Mood == "" {
		m.Mood = models.MoodForScore(m.Score)
	}
	if m.Origin == "" {
		m.Origin = models.OriginUser
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}

	detail, err := marshalOptional(m.Emergency)
	if err != nil {
		return fmt.Errorf("encode emergency detail: %w", err)
	}
	analysis, err := marshalOptional(m.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mood_samples (`+sampleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Score, string(m.Mood), m.Notes,
		boolToInt(m.IsEmergency), boolToInt(m.EmergencyTriggered),
		detail, analysis, m.Timestamp.UnixMilli(), string(m.Origin),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// LatestSample returns the user's most recent sample. Returns nil, nil if
// the user has none.
func (s *Store) LatestSample(ctx context.Context, userID string) (*models.MoodSample, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sampleColumns+` FROM mood_samples
		WHERE user_id = ?
		ORDER BY recorded_at DESC, rowid DESC LIMIT 1`,
		userID,
	)
	m, err := scanSample(row)
	if err != nil {
		return nil, fmt.Errorf("latest sample: %w", err)
	}
	return m, nil
}

// LatestSampleBetween returns the most recent sample in [from, to).
// Returns nil, nil if there is none.
func (s *Store) LatestSampleBetween(ctx context.Context, userID string, from, to time.Time) (*models.MoodSample, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sampleColumns+` FROM mood_samples
		WHERE user_id = ? AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at DESC, rowid DESC LIMIT 1`,
		userID, from.UnixMilli(), to.UnixMilli(),
	)
	m, err := scanSample(row)
	if err != nil {
		return nil, fmt.Errorf("latest sample between: %w", err)
	}
	return m, nil
}

// HasSampleSince reports whether the user logged anything at or after since.
// Records written by the alerting engine are not user activity.
func (s *Store) HasSampleSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM mood_samples
			WHERE user_id = ? AND recorded_at >= ? AND origin = ?)`,
		userID, since.UnixMilli(), string(models.OriginUser),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has sample since: %w", err)
	}
	return exists == 1, nil
}

// WeeklyAverage returns the mean score and count of non-emergency samples
// recorded at or after since. The mean is 0 when count is 0.
func (s *Store) WeeklyAverage(ctx context.Context, userID string, since time.Time) (float64, int, error) {
	var avg sql.NullFloat64
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(score), COUNT(*) FROM mood_samples
		WHERE user_id = ? AND is_emergency = 0 AND recorded_at >= ?`,
		userID, since.UnixMilli(),
	).Scan(&avg, &n)
	if err != nil {
		return 0, 0, fmt.Errorf("weekly average: %w", err)
	}
	return avg.Float64, n, nil
}

// HasTriggeredSince reports whether an alert was recorded for the user at
// or after since: a sample with both emergency flags set.
func (s *Store) HasTriggeredSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM mood_samples
			WHERE user_id = ? AND is_emergency = 1 AND emergency_triggered = 1 AND recorded_at >= ?)`,
		userID, since.UnixMilli(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has triggered since: %w", err)
	}
	return exists == 1, nil
}

// ListEmergencies returns the user's emergency samples at or after since,
// newest first.
func (s *Store) ListEmergencies(ctx context.Context, userID string, since time.Time) ([]models.MoodSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sampleColumns+` FROM mood_samples
		WHERE user_id = ? AND is_emergency = 1 AND recorded_at >= ?
		ORDER BY recorded_at DESC, rowid DESC`,
		userID, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("list emergencies: %w", err)
	}
	return collect(rows)
}

// ListFilter narrows List. Zero Since means no lower bound.
type ListFilter struct {
	Since  time.Time
	Limit  int
	Offset int
}

// List returns the user's samples newest first.
func (s *Store) List(ctx context.Context, userID string, f ListFilter) ([]models.MoodSample, error) {
	if f.Limit <= 0 {
		f.Limit = 30
	}
	var since int64
	if !f.Since.IsZero() {
		since = f.Since.UnixMilli()
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sampleColumns+` FROM mood_samples
		WHERE user_id = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ? OFFSET ?`,
		userID, since, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	return collect(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSample returns nil, nil on sql.ErrNoRows.
func scanSample(row rowScanner) (*models.MoodSample, error) {
	var (
		m                      models.MoodSample
		mood, origin           string
		isEmergency, triggered int
		detail, analysis       sql.NullString
		recordedAt             int64
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Score, &mood, &m.Notes,
		&isEmergency, &triggered, &detail, &analysis, &recordedAt, &origin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Mood = models.Mood(mood)
	m.Origin = models.Origin(origin)
	m.IsEmergency = isEmergency != 0
	m.EmergencyTriggered = triggered != 0
	m.Timestamp = time.UnixMilli(recordedAt).UTC()
	if detail.Valid {
		m.Emergency = &models.EmergencyDetail{}
		if err := json.Unmarshal([]byte(detail.String), m.Emergency); err != nil {
			return nil, fmt.Errorf("decode emergency detail: %w", err)
		}
	}
	if analysis.Valid {
		m.Analysis = &models.MoodAnalysis{}
		if err := json.Unmarshal([]byte(analysis.String), m.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
	}
	return &m, nil
}

func collect(rows *sql.Rows) ([]models.MoodSample, error) {
	defer rows.Close()
	var out []models.MoodSample
	for rows.Next() {
		m, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func marshalOptional(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case *models.EmergencyDetail:
		if x == nil {
			return sql.NullString{}, nil
		}
	case *models.MoodAnalysis:
		if x == nil {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
