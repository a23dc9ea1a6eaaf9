package emergency

import (
	"fmt"
	"strings"

	"github.com/HerbHall/moodwatch/pkg/models"
)

const (
	appName    = "the Mental Health App"
	disclaimer = "If this is a life-threatening emergency, call 911 immediately."
)

// composeSweepMessage renders the alert for a sweep evaluation.
func composeSweepMessage(user models.User, eval Evaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EMERGENCY ALERT: %s may need immediate support.\n\n", user.DisplayName())

	switch eval.Reason {
	case ReasonCriticalScore:
		fmt.Fprintf(&b, "Their current mood score is %d/10, which indicates severe distress.\n", eval.Score)
	case ReasonSharpDecline:
		if eval.PreviousScore != nil {
			fmt.Fprintf(&b, "Their mood has dropped significantly from %d/10 to %d/10.\n", *eval.PreviousScore, eval.Score)
		}
	case ReasonBelowWeeklyAverage:
		if eval.WeeklyAverage != nil {
			fmt.Fprintf(&b, "Their current mood (%d/10) is significantly below their weekly average (%.1f/10).\n",
				eval.Score, *eval.WeeklyAverage)
		}
	}

	fmt.Fprintf(&b, "\nPlease check on them immediately. This is an automated alert from %s.\n\n", appName)
	b.WriteString(disclaimer)
	return b.String()
}

func composeTestMessage(user models.User) string {
	return fmt.Sprintf("TEST MESSAGE: This is a test from %s. %s is testing their emergency contact setup. "+
		"If you receive this message, the emergency system is working correctly.\n\n%s",
		appName, user.DisplayName(), disclaimer)
}

func composeManualMessage(user models.User) string {
	return fmt.Sprintf("EMERGENCY ALERT: %s has manually triggered an emergency alert. "+
		"Please check on them immediately. This is an automated message from %s.\n\n%s",
		user.DisplayName(), appName, disclaimer)
}

func composeMoodEntryMessage(user models.User, score int) string {
	return fmt.Sprintf("URGENT: %s has reported a mental health emergency. Mood score: %d/10. "+
		"Please check on them immediately. This is an automated message from %s.\n\n%s",
		user.DisplayName(), score, appName, disclaimer)
}

func composeChatMessage(user models.User, sentiment string) string {
	if strings.TrimSpace(sentiment) == "" {
		sentiment = "concerning state"
	}
	return fmt.Sprintf("URGENT: %s has triggered an emergency alert through the chatbot. "+
		"Mood analysis indicates: %s. Please check on them immediately. "+
		"This is an automated message from %s.\n\n%s",
		user.DisplayName(), sentiment, appName, disclaimer)
}
