package emergency

import (
	"fmt"
	"time"
)

// Calendar computes day boundaries in the monitoring timezone. Every user
// shares one reference zone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar loads the IANA zone name. A nil now uses time.Now.
func NewCalendar(zone string, now func() time.Time) (Calendar, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Calendar{}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	if now == nil {
		now = time.Now
	}
	return Calendar{loc: loc, now: now}, nil
}

// Now returns the current instant in the monitoring zone.
func (c Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// Location returns the monitoring zone.
func (c Calendar) Location() *time.Location {
	return c.loc
}

// StartOfDay returns local midnight of the day containing t.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// StartOfToday returns local midnight today.
func (c Calendar) StartOfToday() time.Time {
	return c.StartOfDay(c.Now())
}

// StartOfYesterday returns local midnight of the previous calendar day,
// which is not always 24h earlier across DST changes.
func (c Calendar) StartOfYesterday() time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, c.loc)
}
