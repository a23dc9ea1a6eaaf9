package emergency

import (
	"testing"
	"time"
)

func TestCalendar_DayBoundaries(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		wantToday     time.Time
		wantYesterday time.Time
	}{
		{
			name:          "ordinary day",
			now:           nyc(time.March, 12, 15),
			wantToday:     nyc(time.March, 12, 0),
			wantYesterday: nyc(time.March, 11, 0),
		},
		{
			// Clocks sprang forward on 2026-03-08; yesterday was 23h long.
			name:          "day after spring forward",
			now:           nyc(time.March, 9, 9),
			wantToday:     nyc(time.March, 9, 0),
			wantYesterday: nyc(time.March, 8, 0),
		},
		{
			name:          "day after fall back",
			now:           time.Date(2026, time.November, 2, 9, 0, 0, 0, newYork),
			wantToday:     time.Date(2026, time.November, 2, 0, 0, 0, 0, newYork),
			wantYesterday: time.Date(2026, time.November, 1, 0, 0, 0, 0, newYork),
		},
		{
			name:          "utc instant past local midnight",
			now:           time.Date(2026, time.March, 12, 3, 30, 0, 0, time.UTC),
			wantToday:     nyc(time.March, 11, 0),
			wantYesterday: nyc(time.March, 10, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			cal, err := NewCalendar("America/New_York", func() time.Time { return now })
			if err != nil {
				t.Fatalf("NewCalendar: %v", err)
			}
			if got := cal.StartOfToday(); !got.Equal(tt.wantToday) {
				t.Errorf("StartOfToday = %v, want %v", got, tt.wantToday)
			}
			if got := cal.StartOfYesterday(); !got.Equal(tt.wantYesterday) {
				t.Errorf("StartOfYesterday = %v, want %v", got, tt.wantYesterday)
			}
		})
	}
}

func TestNewCalendar_UnknownZone(t *testing.T) {
	if _, err := NewCalendar("Nowhere/Special", nil); err == nil {
		t.Fatal("expected error")
	}
}
