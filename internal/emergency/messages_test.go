package emergency

import (
	"strings"
	"testing"

	"github.com/HerbHall/moodwatch/internal/testutil"
)

func TestMessages_EndWithDisclaimer(t *testing.T) {
	u := testutil.NewUser(testutil.WithName("Sam", "Lee"))
	prev, avg := 8, 7.0

	msgs := map[string]string{
		"critical": composeSweepMessage(u, Evaluation{Reason: ReasonCriticalScore, Score: 2}),
		"decline":  composeSweepMessage(u, Evaluation{Reason: ReasonSharpDecline, Score: 3, PreviousScore: &prev}),
		"weekly":   composeSweepMessage(u, Evaluation{Reason: ReasonBelowWeeklyAverage, Score: 2, WeeklyAverage: &avg}),
		"test":     composeTestMessage(u),
		"manual":   composeManualMessage(u),
		"entry":    composeMoodEntryMessage(u, 2),
		"chat":     composeChatMessage(u, "negative"),
	}
	for name, body := range msgs {
		if !strings.HasSuffix(body, "If this is a life-threatening emergency, call 911 immediately.") {
			t.Errorf("%s: missing disclaimer: %q", name, body)
		}
		if !strings.Contains(body, "Sam Lee") {
			t.Errorf("%s: missing user name: %q", name, body)
		}
	}
}

func TestComposeSweepMessage_ReasonLines(t *testing.T) {
	u := testutil.NewUser()
	prev, avg := 8, 7.0

	tests := []struct {
		name string
		eval Evaluation
		want string
	}{
		{
			name: "critical",
			eval: Evaluation{Reason: ReasonCriticalScore, Score: 2},
			want: "Their current mood score is 2/10, which indicates severe distress.",
		},
		{
			name: "decline",
			eval: Evaluation{Reason: ReasonSharpDecline, Score: 3, PreviousScore: &prev},
			want: "Their mood has dropped significantly from 8/10 to 3/10.",
		},
		{
			name: "weekly",
			eval: Evaluation{Reason: ReasonBelowWeeklyAverage, Score: 2, WeeklyAverage: &avg},
			want: "Their current mood (2/10) is significantly below their weekly average (7.0/10).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := composeSweepMessage(u, tt.eval)
			if !strings.HasPrefix(body, "EMERGENCY ALERT: Jamie Rivera may need immediate support.") {
				t.Errorf("unexpected opening: %q", body)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body %q missing %q", body, tt.want)
			}
		})
	}
}

func TestComposeChatMessage_DefaultSentiment(t *testing.T) {
	body := composeChatMessage(testutil.NewUser(), "")
	if !strings.Contains(body, "Mood analysis indicates: concerning state.") {
		t.Errorf("body = %q", body)
	}
}

func TestComposeMoodEntryMessage_MentionsScore(t *testing.T) {
	body := composeMoodEntryMessage(testutil.NewUser(), 1)
	if !strings.Contains(body, "Mood score: 1/10") {
		t.Errorf("body = %q", body)
	}
}
