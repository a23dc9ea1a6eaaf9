package emergency

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/HerbHall/moodwatch/internal/testutil"
	"github.com/HerbHall/moodwatch/pkg/models"
)

func sweepRule(t *testing.T, env *testEnv) *DailySweepRule {
	t.Helper()
	return env.monitor.rule.(*DailySweepRule)
}

func TestDailySweepRule_NoData(t *testing.T) {
	env := newTestEnv(t, nyc(time.March, 10, 9))
	eval, err := sweepRule(t, env).Evaluate(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.IsEmergency || eval.Reason != ReasonNoData {
		t.Errorf("eval = %+v", eval)
	}
}

func TestDailySweepRule_CriticalScoreIgnoresHistory(t *testing.T) {
	for _, score := range []int{1, 2} {
		now := nyc(time.March, 10, 9)
		env := newTestEnv(t, now)
		env.record(t, "u1", 9, nyc(time.March, 9, 12))
		env.record(t, "u1", 9, nyc(time.March, 7, 12))
		env.record(t, "u1", score, now.Add(-time.Hour))

		eval, err := sweepRule(t, env).Evaluate(context.Background(), "u1")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if !eval.IsEmergency || eval.Reason != ReasonCriticalScore || eval.Severity != models.SeverityHigh || eval.Score != score {
			t.Errorf("score %d: eval = %+v", score, eval)
		}
	}
}

func TestDailySweepRule_SharpDecline(t *testing.T) {
	tests := []struct {
		name  string
		today int
		want  bool
	}{
		{name: "below half of yesterday", today: 3, want: true},
		{name: "exactly half is not a decline", today: 4, want: false},
		{name: "above half", today: 5, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := nyc(time.March, 10, 9)
			env := newTestEnv(t, now)
			env.record(t, "u1", 6, nyc(time.March, 9, 8))
			env.record(t, "u1", 8, nyc(time.March, 9, 20))
			env.record(t, "u1", tt.today, now.Add(-time.Hour))

			eval, err := sweepRule(t, env).Evaluate(context.Background(), "u1")
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if eval.IsEmergency != tt.want {
				t.Fatalf("eval = %+v, want emergency=%v", eval, tt.want)
			}
			if !tt.want {
				return
			}
			if eval.Reason != ReasonSharpDecline || eval.Severity != models.SeverityMedium {
				t.Errorf("eval = %+v", eval)
			}
			if eval.PreviousScore == nil || *eval.PreviousScore != 8 {
				t.Errorf("previous score = %v, want yesterday's last (8)", eval.PreviousScore)
			}
		})
	}
}

func TestDailySweepRule_SharpDeclineUsesCalendarYesterday(t *testing.T) {
	// 01:00 local: a sample from 23:00 the night before is yesterday's,
	// one from 25 hours ago is not.
	now := nyc(time.March, 10, 1)
	env := newTestEnv(t, now)
	env.record(t, "u1", 8, nyc(time.March, 8, 23))
	env.record(t, "u1", 3, now.Add(-30*time.Minute))

	eval, err := sweepRule(t, env).Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Reason == ReasonSharpDecline {
		t.Errorf("sample from two calendar days ago must not count as yesterday: %+v", eval)
	}
}

func TestDailySweepRule_BelowWeeklyAverage(t *testing.T) {
	tests := []struct {
		name  string
		today int
		want  bool
	}{
		// history 10,10,10 plus today: mean 8.25, cutoff 3.3
		{name: "under 40% of mean", today: 3, want: true},
		// mean 8.5, cutoff 3.4
		{name: "above cutoff", today: 4, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := nyc(time.March, 10, 9)
			env := newTestEnv(t, now)
			for _, d := range []int{3, 4, 5} {
				env.record(t, "u1", 10, nyc(time.March, 10-d, 12))
			}
			// Emergency samples do not count toward the mean.
			env.record(t, "u1", 1, nyc(time.March, 8, 12), testutil.AsEmergency(true))
			// Outside the 7-day window.
			env.record(t, "u1", 1, nyc(time.March, 1, 12))
			env.record(t, "u1", tt.today, now.Add(-time.Hour))

			eval, err := sweepRule(t, env).Evaluate(context.Background(), "u1")
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if eval.IsEmergency != tt.want {
				t.Fatalf("eval = %+v, want emergency=%v", eval, tt.want)
			}
			if !tt.want {
				if eval.Reason != ReasonNone {
					t.Errorf("reason = %q, want none", eval.Reason)
				}
				return
			}
			if eval.Reason != ReasonBelowWeeklyAverage || eval.WeeklyAverage == nil {
				t.Fatalf("eval = %+v", eval)
			}
			if math.Abs(*eval.WeeklyAverage-8.25) > 1e-9 {
				t.Errorf("weekly average = %v, want 8.25", *eval.WeeklyAverage)
			}
		})
	}
}

func TestDailySweepRule_CriticalWinsOverWeeklyAverage(t *testing.T) {
	now := nyc(time.March, 10, 9)
	env := newTestEnv(t, now)
	for _, d := range []int{2, 3, 4} {
		env.record(t, "u1", 6, nyc(time.March, 10-d, 12))
	}
	env.record(t, "u1", 2, now.Add(-time.Hour))

	eval, err := sweepRule(t, env).Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !eval.IsEmergency || eval.Reason != ReasonCriticalScore {
		t.Errorf("eval = %+v, want critical-score", eval)
	}
}

func TestInlineEntryRule_Check(t *testing.T) {
	tests := []struct {
		name    string
		history []int
		score   int
		want    bool
		reason  Reason
	}{
		{name: "critical without history", score: 2, want: true, reason: ReasonCriticalScore},
		{name: "no history", score: 3, want: false, reason: ReasonNone},
		{name: "drop of four from mean", history: []int{8, 8}, score: 4, want: true, reason: ReasonBelowWeeklyAverage},
		{name: "drop of three", history: []int{8, 8}, score: 5, want: false, reason: ReasonNone},
		{name: "mean of mixed history", history: []int{9, 7}, score: 4, want: true, reason: ReasonBelowWeeklyAverage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := nyc(time.March, 10, 9)
			env := newTestEnv(t, now)
			for i, s := range tt.history {
				env.record(t, "u1", s, now.Add(-time.Duration(i+1)*24*time.Hour))
			}
			// An old emergency never lowers the mean.
			env.record(t, "u1", 1, now.Add(-12*time.Hour), testutil.AsEmergency(false))

			rule := env.monitor.inlineRule
			got, err := rule.Check(context.Background(), "u1", tt.score)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got != tt.want {
				t.Errorf("Check = %v, want %v", got, tt.want)
			}
			eval, _ := rule.Assess(context.Background(), "u1", tt.score)
			if eval.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", eval.Reason, tt.reason)
			}
		})
	}
}

func TestDedupGuard(t *testing.T) {
	now := nyc(time.March, 10, 9)
	env := newTestEnv(t, now)
	g := env.monitor.guard

	// Flagged but never delivered does not count.
	env.record(t, "u1", 1, now.Add(-time.Hour), testutil.AsEmergency(false))
	// Delivered yesterday does not count.
	env.record(t, "u1", 1, nyc(time.March, 9, 23), testutil.AsEmergency(true))

	dup, err := g.AlreadyAlerted(context.Background(), "u1")
	if err != nil {
		t.Fatalf("AlreadyAlerted: %v", err)
	}
	if dup {
		t.Fatal("expected no alert today")
	}

	env.record(t, "u1", 1, nyc(time.March, 10, 0), testutil.AsEmergency(true))
	dup, err = g.AlreadyAlerted(context.Background(), "u1")
	if err != nil {
		t.Fatalf("AlreadyAlerted: %v", err)
	}
	if !dup {
		t.Fatal("alert at local midnight should count as today")
	}
}
