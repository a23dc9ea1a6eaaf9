package emergency

import (
	"context"

	"github.com/HerbHall/moodwatch/pkg/models"
	"go.uber.org/zap"
)

// InlineTrigger checks mood entries and chat turns as they arrive. It
// never fails the caller's request: problems are logged and dropped.
type InlineTrigger struct {
	m *Monitor
}

// Inline returns the entry-time trigger sharing m's store, clock and sender.
func (m *Monitor) Inline() *InlineTrigger {
	return &InlineTrigger{m: m}
}

// OnMoodEntry runs before sample is stored. It flags IsEmergency when the
// entry-local rule fires and sets EmergencyTriggered only after a
// successful send.
func (t *InlineTrigger) OnMoodEntry(ctx context.Context, sample *models.MoodSample) {
	log := t.m.logger.With(zap.String("user_id", sample.UserID), zap.String("channel", string(ChannelMoodEntry)))

	eval, err := t.m.inlineRule.Assess(ctx, sample.UserID, sample.Score)
	if err != nil {
		// A critical score is decided before any lookup.
		log.Warn("inline emergency check incomplete", zap.Error(err))
	}
	if !eval.IsEmergency {
		return
	}
	sample.IsEmergency = true

	user, ok := t.alertable(ctx, log, sample.UserID, ChannelMoodEntry)
	if !ok {
		return
	}

	sendErr := t.m.dispatcher.deliver(ctx, ChannelMoodEntry, *user, composeMoodEntryMessage(*user, sample.Score))
	if sendErr == nil {
		sample.EmergencyTriggered = true
		sample.Emergency = &models.EmergencyDetail{
			Reason:        string(eval.Reason),
			Severity:      eval.Severity,
			WeeklyAverage: eval.WeeklyAverage,
		}
	}
	t.m.dispatcher.publish(ctx, ChannelMoodEntry, user.ID, eval, Outcome{
		Attempted: true,
		Sent:      sendErr == nil,
		SampleID:  sample.ID,
		SendErr:   sendErr,
	})
}

// OnChatTurn handles one analyzed chat message. flagged is the AI
// service's own emergency verdict; reading may be nil. A successful send
// is recorded as an emergency sample so the daily limit sees it.
func (t *InlineTrigger) OnChatTurn(ctx context.Context, userID string, flagged bool, reading *models.MoodReading) {
	log := t.m.logger.With(zap.String("user_id", userID), zap.String("channel", string(ChannelChat)))

	score := models.MinScore
	sentiment := ""
	if reading != nil {
		score = clampScore(reading.Score)
		sentiment = reading.Sentiment
	}

	eval := Evaluation{
		IsEmergency: flagged,
		Reason:      ReasonChatbot,
		Severity:    models.SeverityHigh,
		Score:       score,
	}
	if !flagged {
		// Without the AI's verdict only a real reading can raise an alert.
		if reading == nil || !validReading(reading.Score) {
			return
		}
		var err error
		eval, err = t.m.inlineRule.Assess(ctx, userID, score)
		if err != nil {
			log.Warn("inline emergency check incomplete", zap.Error(err))
		}
		if !eval.IsEmergency {
			return
		}
	}

	user, ok := t.alertable(ctx, log, userID, ChannelChat)
	if !ok {
		return
	}

	out := Outcome{Attempted: true}
	out.SendErr = t.m.dispatcher.deliver(ctx, ChannelChat, *user, composeChatMessage(*user, sentiment))
	out.Sent = out.SendErr == nil
	if out.Sent {
		sample := &models.MoodSample{
			UserID:             userID,
			Score:              score,
			Mood:               emergencyMood(score),
			Notes:              ReasonChatbot.Summary(),
			IsEmergency:        true,
			EmergencyTriggered: true,
			Emergency: &models.EmergencyDetail{
				Reason:        string(eval.Reason),
				Severity:      eval.Severity,
				WeeklyAverage: eval.WeeklyAverage,
			},
			Origin:    models.OriginAlert,
			Timestamp: t.m.cal.Now(),
		}
		if err := t.m.store.InsertSample(ctx, sample); err != nil {
			log.Error("failed to record chat emergency", zap.Error(err))
		} else {
			out.SampleID = sample.ID
		}
	}
	t.m.dispatcher.publish(ctx, ChannelChat, userID, eval, out)
}

// validReading reports whether an AI score is a usable 1-10 reading. Zero
// means the service returned no score.
func validReading(v float64) bool {
	return v >= models.MinScore && v <= models.MaxScore
}

// alertable resolves the user and applies the contact, sender and daily
// limit checks shared by both inline paths.
func (t *InlineTrigger) alertable(ctx context.Context, log *zap.Logger, userID string, ch Channel) (*models.User, bool) {
	user, err := t.m.dir.GetUser(ctx, userID)
	if err != nil {
		log.Error("inline emergency: load user failed", zap.Error(err))
		return nil, false
	}
	if user == nil || !user.Contact.Usable() {
		log.Info("inline emergency: no active emergency contact")
		return nil, false
	}
	if !t.m.sender.Configured() {
		log.Warn("inline emergency: sms sender not configured")
		return nil, false
	}
	dup, err := t.m.guard.AlreadyAlerted(ctx, userID)
	if err != nil {
		log.Error("inline emergency: dedup check failed", zap.Error(err))
		return nil, false
	}
	if dup {
		alertsDeduplicated.WithLabelValues(string(ch)).Inc()
		log.Info("emergency alert already sent today")
		return nil, false
	}
	return user, true
}
