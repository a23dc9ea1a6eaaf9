package mood

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/HerbHall/moodwatch/internal/testutil"
	"github.com/HerbHall/moodwatch/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.NewStore(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db.DB())
}

func insert(t *testing.T, s *Store, m models.MoodSample) models.MoodSample {
	t.Helper()
	if err := s.InsertSample(context.Background(), &m); err != nil {
		t.Fatalf("InsertSample: %v", err)
	}
	return m
}

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestInsertSample_RoundTrip(t *testing.T) {
	s := testStore(t)
	prev := 8
	avg := 7.5

	want := testutil.NewMoodSample("u1",
		testutil.WithScore(2),
		testutil.WithNotes("Emergency detected: critical mood score"),
		testutil.AsEmergency(true),
		testutil.At(base),
		func(m *models.MoodSample) {
			m.Emergency = &models.EmergencyDetail{
				Reason: "critical-score", Severity: models.SeverityHigh,
				PreviousScore: &prev, WeeklyAverage: &avg,
			}
			m.Analysis = &models.MoodAnalysis{Sentiment: "negative", Confidence: 0.9}
		},
	)
	insert(t, s, want)

	got, err := s.LatestSample(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if got == nil {
		t.Fatal("LatestSample returned nil")
	}
	if got.ID != want.ID || got.Score != 2 || got.Mood != models.MoodVeryLow {
		t.Errorf("got %+v", got)
	}
	if !got.IsEmergency || !got.EmergencyTriggered {
		t.Error("emergency flags not persisted")
	}
	if got.Origin != models.OriginUser {
		t.Errorf("Origin = %q, want %q", got.Origin, models.OriginUser)
	}
	if !got.Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, base)
	}
	if got.Emergency == nil || got.Emergency.Reason != "critical-score" || *got.Emergency.PreviousScore != 8 {
		t.Errorf("Emergency = %+v", got.Emergency)
	}
	if got.Analysis == nil || got.Analysis.Sentiment != "negative" {
		t.Errorf("Analysis = %+v", got.Analysis)
	}
}

func TestInsertSample_Defaults(t *testing.T) {
	s := testStore(t)
	s.now = func() time.Time { return base }

	m := models.MoodSample{UserID: "u1", Score: 9}
	if err := s.InsertSample(context.Background(), &m); err != nil {
		t.Fatalf("InsertSample: %v", err)
	}
	if m.ID == "" {
		t.Error("ID not assigned")
	}
	if !m.Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, want %v", m.Timestamp, base)
	}
	if m.Mood != models.MoodVeryGood {
		t.Errorf("Mood = %q, want very-good", m.Mood)
	}
}

func TestInsertSample_RejectsTriggeredWithoutEmergency(t *testing.T) {
	s := testStore(t)

	m := testutil.NewMoodSample("u1", func(m *models.MoodSample) { m.EmergencyTriggered = true })
	err := s.InsertSample(context.Background(), &m)
	if !errors.Is(err, models.ErrTriggeredWithoutEmergency) {
		t.Fatalf("err = %v, want ErrTriggeredWithoutEmergency", err)
	}

	if latest, _ := s.LatestSample(context.Background(), "u1"); latest != nil {
		t.Error("invalid sample was stored")
	}
}

func TestInsertSample_RejectsOutOfRange(t *testing.T) {
	s := testStore(t)
	for _, score := range []int{0, 11} {
		m := testutil.NewMoodSample("u1", func(m *models.MoodSample) { m.Score = score })
		if err := s.InsertSample(context.Background(), &m); err == nil {
			t.Errorf("score %d: expected error", score)
		}
	}
}

func TestLatestSample_NoneReturnsNil(t *testing.T) {
	s := testStore(t)
	got, err := s.LatestSample(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestLatestSample_IncludesEmergencyRecords(t *testing.T) {
	s := testStore(t)
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(7), testutil.At(base.Add(-time.Hour))))
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(1), testutil.AsEmergency(true), testutil.At(base)))

	got, err := s.LatestSample(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if got.Score != 1 {
		t.Errorf("Score = %d, want 1", got.Score)
	}
}

func TestLatestSampleBetween(t *testing.T) {
	s := testStore(t)
	from := base.Add(-24 * time.Hour)
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(3), testutil.At(from.Add(-time.Minute))))
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(6), testutil.At(from.Add(time.Hour))))
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(8), testutil.At(from.Add(20*time.Hour))))
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(2), testutil.At(base)))
	insert(t, s, testutil.NewMoodSample("u2", testutil.WithScore(9), testutil.At(from.Add(21*time.Hour))))

	got, err := s.LatestSampleBetween(context.Background(), "u1", from, base)
	if err != nil {
		t.Fatalf("LatestSampleBetween: %v", err)
	}
	if got == nil || got.Score != 8 {
		t.Fatalf("got %+v, want score 8", got)
	}

	empty, err := s.LatestSampleBetween(context.Background(), "u1", base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("LatestSampleBetween: %v", err)
	}
	if empty != nil {
		t.Errorf("got %+v, want nil", empty)
	}
}

func TestHasSampleSince(t *testing.T) {
	s := testStore(t)
	insert(t, s, testutil.NewMoodSample("u1", testutil.At(base.Add(-25*time.Hour))))

	got, err := s.HasSampleSince(context.Background(), "u1", base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("HasSampleSince: %v", err)
	}
	if got {
		t.Error("sample older than the window reported as recent")
	}

	insert(t, s, testutil.NewMoodSample("u1", testutil.At(base.Add(-23*time.Hour))))
	got, _ = s.HasSampleSince(context.Background(), "u1", base.Add(-24*time.Hour))
	if !got {
		t.Error("recent sample not found")
	}
}

func TestHasSampleSince_IgnoresAlertRecords(t *testing.T) {
	s := testStore(t)
	insert(t, s, testutil.NewMoodSample("u1",
		testutil.WithScore(1),
		testutil.AsEmergency(true),
		testutil.At(base.Add(-time.Hour)),
		func(m *models.MoodSample) { m.Origin = models.OriginAlert },
	))

	got, err := s.HasSampleSince(context.Background(), "u1", base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("HasSampleSince: %v", err)
	}
	if got {
		t.Error("alert record counted as user activity")
	}

	latest, _ := s.LatestSample(context.Background(), "u1")
	if latest == nil || latest.Origin != models.OriginAlert {
		t.Errorf("origin not persisted: %+v", latest)
	}
}

func TestWeeklyAverage_ExcludesEmergencies(t *testing.T) {
	s := testStore(t)
	from := base.Add(-7 * 24 * time.Hour)
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(8), testutil.At(from.Add(time.Hour))))
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(6), testutil.At(from.Add(48*time.Hour))))
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(1), testutil.AsEmergency(true), testutil.At(from.Add(72*time.Hour))))
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(2), testutil.At(from.Add(-time.Hour))))

	avg, n, err := s.WeeklyAverage(context.Background(), "u1", from)
	if err != nil {
		t.Fatalf("WeeklyAverage: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if math.Abs(avg-7) > 1e-9 {
		t.Errorf("avg = %v, want 7", avg)
	}
}

func TestWeeklyAverage_Empty(t *testing.T) {
	s := testStore(t)
	avg, n, err := s.WeeklyAverage(context.Background(), "u1", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("WeeklyAverage: %v", err)
	}
	if avg != 0 || n != 0 {
		t.Errorf("avg, n = %v, %d; want 0, 0", avg, n)
	}
}

func TestHasTriggeredSince(t *testing.T) {
	s := testStore(t)
	dayStart := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	// Flagged but undelivered does not count.
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(1), testutil.AsEmergency(false), testutil.At(base)))
	// Delivered yesterday does not count.
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(1), testutil.AsEmergency(true), testutil.At(dayStart.Add(-time.Minute))))

	got, err := s.HasTriggeredSince(context.Background(), "u1", dayStart)
	if err != nil {
		t.Fatalf("HasTriggeredSince: %v", err)
	}
	if got {
		t.Fatal("unexpected alert today")
	}

	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(2), testutil.AsEmergency(true), testutil.At(dayStart)))
	got, _ = s.HasTriggeredSince(context.Background(), "u1", dayStart)
	if !got {
		t.Error("alert at the start of today not found")
	}
}

func TestListEmergencies(t *testing.T) {
	s := testStore(t)
	for i := range 7 {
		insert(t, s, testutil.NewMoodSample("u1",
			testutil.WithScore(1),
			testutil.AsEmergency(i%2 == 0),
			testutil.At(base.Add(time.Duration(-i)*24*time.Hour)),
		))
	}
	insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(7), testutil.At(base)))

	got, err := s.ListEmergencies(context.Background(), "u1", base.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("ListEmergencies: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatal("emergencies not sorted newest first")
		}
	}
}

func TestList_Paging(t *testing.T) {
	s := testStore(t)
	for i := range 5 {
		insert(t, s, testutil.NewMoodSample("u1", testutil.WithScore(i+1), testutil.At(base.Add(time.Duration(i)*time.Hour))))
	}

	page, err := s.List(context.Background(), "u1", ListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 || page[0].Score != 4 || page[1].Score != 3 {
		t.Errorf("page = %+v", page)
	}

	recent, err := s.List(context.Background(), "u1", ListFilter{Since: base.Add(3 * time.Hour)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("len(recent) = %d, want 2", len(recent))
	}
}
