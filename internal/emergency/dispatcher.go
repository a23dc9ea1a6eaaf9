package emergency

import (
	"context"
	"fmt"
	"time"

	"github.com/HerbHall/moodwatch/internal/notify"
	"github.com/HerbHall/moodwatch/pkg/models"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

// DefaultSendTimeout bounds a single SMS delivery.
const DefaultSendTimeout = 10 * time.Second

// EventPublisher receives alert events. The event bus satisfies it.
type EventPublisher interface {
	PublishAsync(ctx context.Context, event plugin.Event)
}

// Outcome describes what one dispatch did.
type Outcome struct {
	// Attempted is false when the contact or sender made delivery impossible.
	Attempted bool
	Sent      bool
	SampleID  string
	SendErr   error
}

// Dispatcher composes alert messages, delivers them and records every
// attempted alert as an emergency sample.
type Dispatcher struct {
	store       SampleStore
	sender      notify.Sender
	events      EventPublisher
	sendTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewDispatcher creates a dispatcher. events may be nil.
func NewDispatcher(store SampleStore, sender notify.Sender, events EventPublisher, sendTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if sender == nil {
		sender = notify.Disabled{}
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:       store,
		sender:      sender,
		events:      events,
		sendTimeout: sendTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// Dispatch sends the sweep alert for eval and records it. Delivery
// failures are reported in the Outcome only; the returned error is
// reserved for failing to persist the record.
func (d *Dispatcher) Dispatch(ctx context.Context, user models.User, eval Evaluation) (Outcome, error) {
	if !user.Contact.Usable() {
		d.logger.Warn("no usable emergency contact, alert not sent",
			zap.String("user_id", user.ID),
			zap.String("reason", string(eval.Reason)),
		)
		return Outcome{}, nil
	}
	if !d.sender.Configured() {
		d.logger.Warn("sms sender not configured, alert not sent",
			zap.String("user_id", user.ID),
			zap.String("reason", string(eval.Reason)),
		)
		return Outcome{}, nil
	}

	out := Outcome{Attempted: true}
	out.SendErr = d.deliver(ctx, ChannelSweep, user, composeSweepMessage(user, eval))
	out.Sent = out.SendErr == nil

	sample := &models.MoodSample{
		UserID:             user.ID,
		Score:              eval.Score,
		Mood:               emergencyMood(eval.Score),
		Notes:              "Emergency detected: " + eval.Reason.Summary(),
		IsEmergency:        true,
		EmergencyTriggered: true,
		Emergency: &models.EmergencyDetail{
			Reason:        string(eval.Reason),
			Severity:      eval.Severity,
			PreviousScore: eval.PreviousScore,
			WeeklyAverage: eval.WeeklyAverage,
		},
		Origin:    models.OriginAlert,
		Timestamp: d.now(),
	}
	err := d.store.InsertSample(ctx, sample)
	if err == nil {
		out.SampleID = sample.ID
	}
	d.publish(ctx, ChannelSweep, user.ID, eval, out)
	if err != nil {
		return out, fmt.Errorf("record emergency for user %s: %w", user.ID, err)
	}
	return out, nil
}

// deliver sends body to the user's contact within the send timeout.
func (d *Dispatcher) deliver(ctx context.Context, ch Channel, user models.User, body string) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, user.Contact.Phone, body); err != nil {
		alertSendFailures.WithLabelValues(string(ch)).Inc()
		d.logger.Error("emergency notification failed",
			zap.String("user_id", user.ID),
			zap.String("channel", string(ch)),
			zap.Error(err),
		)
		return err
	}
	alertsSent.WithLabelValues(string(ch)).Inc()
	d.logger.Info("emergency notification sent",
		zap.String("user_id", user.ID),
		zap.String("channel", string(ch)),
		zap.String("contact", user.Contact.Name),
	)
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, ch Channel, userID string, eval Evaluation, out Outcome) {
	if d.events == nil {
		return
	}
	ev := AlertEvent{
		UserID:    userID,
		Channel:   ch,
		Reason:    eval.Reason,
		Severity:  eval.Severity,
		Score:     eval.Score,
		Sent:      out.Sent,
		SampleID:  out.SampleID,
		Timestamp: d.now(),
	}
	if out.SendErr != nil {
		ev.Error = out.SendErr.Error()
	}
	d.events.PublishAsync(context.WithoutCancel(ctx), plugin.Event{
		Topic:     TopicAlertDispatched,
		Source:    "emergency",
		Timestamp: ev.Timestamp,
		Payload:   &ev,
	})
}
