package emergency

import (
	"context"
	"fmt"

	"github.com/HerbHall/moodwatch/pkg/models"
)

// Rule evaluates a user's stored history.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, userID string) (Evaluation, error)
}

// Compile-time interface guard.
var _ Rule = (*DailySweepRule)(nil)

// DailySweepRule is the sweep's evaluator. Checks run in priority order
// and the first match wins:
//
//  1. latest score at or below the critical score
//  2. latest score under half of yesterday's last score
//  3. latest score under 40% of the 7-day non-emergency mean
type DailySweepRule struct {
	store SampleStore
	cal   Calendar
}

// NewDailySweepRule creates the sweep evaluator.
func NewDailySweepRule(store SampleStore, cal Calendar) *DailySweepRule {
	return &DailySweepRule{store: store, cal: cal}
}

// Name implements Rule.
func (r *DailySweepRule) Name() string { return "daily-sweep" }

// Evaluate implements Rule.
func (r *DailySweepRule) Evaluate(ctx context.Context, userID string) (Evaluation, error) {
	latest, err := r.store.LatestSample(ctx, userID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("load latest sample: %w", err)
	}
	if latest == nil {
		return Evaluation{Reason: ReasonNoData}, nil
	}
	current := latest.Score

	if current <= thresholds.CriticalScore {
		return Evaluation{
			IsEmergency: true,
			Reason:      ReasonCriticalScore,
			Severity:    models.SeverityHigh,
			Score:       current,
		}, nil
	}

	yesterday, err := r.store.LatestSampleBetween(ctx, userID, r.cal.StartOfYesterday(), r.cal.StartOfToday())
	if err != nil {
		return Evaluation{}, fmt.Errorf("load yesterday's sample: %w", err)
	}
	if yesterday != nil && float64(current) < float64(yesterday.Score)*thresholds.DeclineRatio {
		prev := yesterday.Score
		return Evaluation{
			IsEmergency:   true,
			Reason:        ReasonSharpDecline,
			Severity:      models.SeverityMedium,
			Score:         current,
			PreviousScore: &prev,
		}, nil
	}

	avg, n, err := r.store.WeeklyAverage(ctx, userID, r.cal.Now().Add(-thresholds.WeeklyWindow))
	if err != nil {
		return Evaluation{}, fmt.Errorf("load weekly average: %w", err)
	}
	if n > 0 && avg > 0 && float64(current) < avg*thresholds.WeeklyRatio {
		return Evaluation{
			IsEmergency:   true,
			Reason:        ReasonBelowWeeklyAverage,
			Severity:      models.SeverityMedium,
			Score:         current,
			WeeklyAverage: &avg,
		}, nil
	}

	return Evaluation{Reason: ReasonNone, Score: current}, nil
}

// InlineEntryRule is the entry-local check run before a new sample is
// stored: emergency when the candidate score is critical, or when it sits
// at least InlineDrop points under the 7-day non-emergency mean. The
// candidate never contributes to its own mean.
type InlineEntryRule struct {
	store SampleStore
	cal   Calendar
}

// NewInlineEntryRule creates the entry-local evaluator.
func NewInlineEntryRule(store SampleStore, cal Calendar) *InlineEntryRule {
	return &InlineEntryRule{store: store, cal: cal}
}

// Name identifies the rule in logs.
func (r *InlineEntryRule) Name() string { return "inline-entry" }

// Check reports whether score is an emergency for userID.
func (r *InlineEntryRule) Check(ctx context.Context, userID string, score int) (bool, error) {
	eval, err := r.Assess(ctx, userID, score)
	return eval.IsEmergency, err
}

// Assess is Check with the triggering condition attached.
func (r *InlineEntryRule) Assess(ctx context.Context, userID string, score int) (Evaluation, error) {
	if score <= thresholds.CriticalScore {
		return Evaluation{
			IsEmergency: true,
			Reason:      ReasonCriticalScore,
			Severity:    models.SeverityHigh,
			Score:       score,
		}, nil
	}

	avg, n, err := r.store.WeeklyAverage(ctx, userID, r.cal.Now().Add(-thresholds.WeeklyWindow))
	if err != nil {
		return Evaluation{Score: score}, fmt.Errorf("load weekly average: %w", err)
	}
	if n > 0 && avg > 0 && avg-float64(score) >= thresholds.InlineDrop {
		return Evaluation{
			IsEmergency:   true,
			Reason:        ReasonBelowWeeklyAverage,
			Severity:      models.SeverityMedium,
			Score:         score,
			WeeklyAverage: &avg,
		}, nil
	}
	return Evaluation{Reason: ReasonNone, Score: score}, nil
}
