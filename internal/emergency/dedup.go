package emergency

import (
	"context"
	"fmt"
)

// DedupGuard enforces at most one delivered alert per user per calendar
// day in the monitoring zone. It reads the alert log implied by samples
// carrying both emergency flags; check and insert are not atomic.
type DedupGuard struct {
	store SampleStore
	cal   Calendar
}

// NewDedupGuard creates a guard over store.
func NewDedupGuard(store SampleStore, cal Calendar) *DedupGuard {
	return &DedupGuard{store: store, cal: cal}
}

// AlreadyAlerted reports whether userID was alerted since local midnight.
func (g *DedupGuard) AlreadyAlerted(ctx context.Context, userID string) (bool, error) {
	ok, err := g.store.HasTriggeredSince(ctx, userID, g.cal.StartOfToday())
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return ok, nil
}
