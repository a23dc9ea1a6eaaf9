package emergency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/moodwatch/internal/notify"
	"github.com/HerbHall/moodwatch/pkg/models"
	"go.uber.org/zap"
)

// MonitorConfig is the "emergency" configuration section.
type MonitorConfig struct {
	Schedule    string        `mapstructure:"schedule"`
	Timezone    string        `mapstructure:"timezone"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// Configuration defaults.
const (
	DefaultSchedule = "0 9 * * *"
	DefaultTimezone = "America/New_York"
	// DefaultStatsDays is the stats window when none is given.
	DefaultStatsDays = 30
	// recentEmergencyLimit caps Stats.Recent.
	recentEmergencyLimit = 5
)

// DefaultMonitorConfig returns the production defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Schedule:    DefaultSchedule,
		Timezone:    DefaultTimezone,
		SendTimeout: DefaultSendTimeout,
	}
}

// SweepReport summarizes one pass over every monitored user.
type SweepReport struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Users        int       `json:"users"`
	Evaluated    int       `json:"evaluated"`
	Skipped      int       `json:"skipped"`
	Emergencies  int       `json:"emergencies"`
	Deduplicated int       `json:"deduplicated"`
	Sent         int       `json:"sent"`
	SendFailures int       `json:"send_failures"`
	Failed       int       `json:"failed"`
}

// Stats is a user's emergency history over a window.
type Stats struct {
	Days      int                 `json:"days"`
	Total     int                 `json:"total_emergencies"`
	Triggered int                 `json:"triggered_emergencies"`
	Recent    []models.MoodSample `json:"recent_emergencies"`
}

// Option customizes a Monitor.
type Option func(*monitorOptions)

type monitorOptions struct {
	now    func() time.Time
	rule   Rule
	events EventPublisher
}

// WithClock replaces time.Now for every time-dependent decision.
func WithClock(now func() time.Time) Option {
	return func(o *monitorOptions) { o.now = now }
}

// WithRule replaces the sweep evaluator.
func WithRule(r Rule) Option {
	return func(o *monitorOptions) { o.rule = r }
}

// WithEvents publishes alert events to p.
func WithEvents(p EventPublisher) Option {
	return func(o *monitorOptions) { o.events = p }
}

// Monitor runs sweeps and the explicit emergency actions.
type Monitor struct {
	cfg        MonitorConfig
	store      SampleStore
	dir        Directory
	sender     notify.Sender
	cal        Calendar
	rule       Rule
	inlineRule *InlineEntryRule
	guard      *DedupGuard
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewMonitor wires the engine. It fails only on an unknown timezone.
func NewMonitor(cfg MonitorConfig, store SampleStore, dir Directory, sender notify.Sender, logger *zap.Logger, opts ...Option) (*Monitor, error) {
	o := monitorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if sender == nil {
		sender = notify.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cal, err := NewCalendar(cfg.Timezone, o.now)
	if err != nil {
		return nil, err
	}

	d := NewDispatcher(store, sender, o.events, cfg.SendTimeout, logger)
	d.now = o.now

	rule := o.rule
	if rule == nil {
		rule = NewDailySweepRule(store, cal)
	}

	return &Monitor{
		cfg:        cfg,
		store:      store,
		dir:        dir,
		sender:     sender,
		cal:        cal,
		rule:       rule,
		inlineRule: NewInlineEntryRule(store, cal),
		guard:      NewDedupGuard(store, cal),
		dispatcher: d,
		logger:     logger,
	}, nil
}

// Config returns the effective configuration.
func (m *Monitor) Config() MonitorConfig { return m.cfg }

// Armed reports whether alerts can be delivered at all.
func (m *Monitor) Armed() bool { return m.sender.Configured() }

// Sweep evaluates every monitored user once. Per-user failures are
// isolated and counted; only failing to enumerate users is returned.
func (m *Monitor) Sweep(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	report := SweepReport{StartedAt: m.cal.Now()}
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	users, err := m.dir.ListMonitoredUsers(ctx)
	if err != nil {
		sweepsTotal.WithLabelValues("error").Inc()
		m.logger.Error("emergency sweep: list users failed", zap.Error(err))
		return report, fmt.Errorf("list monitored users: %w", err)
	}
	report.Users = len(users)

	for i := range users {
		if ctx.Err() != nil {
			m.logger.Warn("emergency sweep interrupted", zap.Int("remaining", len(users)-i))
			break
		}
		m.sweepUser(ctx, users[i], &report)
	}

	report.FinishedAt = m.cal.Now()
	sweepsTotal.WithLabelValues("completed").Inc()
	m.logger.Info("emergency sweep completed",
		zap.Int("users", report.Users),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("emergencies", report.Emergencies),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

func (m *Monitor) sweepUser(ctx context.Context, user models.User, report *SweepReport) {
	log := m.logger.With(zap.String("user_id", user.ID))
	defer func() {
		if r := recover(); r != nil {
			report.Failed++
			log.Error("emergency sweep: panic evaluating user", zap.Any("panic", r))
		}
	}()

	recent, err := m.store.HasSampleSince(ctx, user.ID, m.cal.Now().Add(-thresholds.RecentWindow))
	if err != nil {
		report.Failed++
		log.Error("emergency sweep: recent sample lookup failed", zap.Error(err))
		return
	}
	if !recent {
		report.Skipped++
		return
	}

	eval, err := m.rule.Evaluate(ctx, user.ID)
	if err != nil {
		report.Failed++
		log.Error("emergency sweep: evaluation failed", zap.String("rule", m.rule.Name()), zap.Error(err))
		return
	}
	report.Evaluated++
	if !eval.IsEmergency {
		return
	}
	report.Emergencies++

	dup, err := m.guard.AlreadyAlerted(ctx, user.ID)
	if err != nil {
		report.Failed++
		log.Error("emergency sweep: dedup check failed", zap.Error(err))
		return
	}
	if dup {
		report.Deduplicated++
		alertsDeduplicated.WithLabelValues(string(ChannelSweep)).Inc()
		log.Info("emergency alert already sent today", zap.String("reason", string(eval.Reason)))
		return
	}

	log.Warn("emergency detected",
		zap.String("reason", string(eval.Reason)),
		zap.String("severity", string(eval.Severity)),
		zap.Int("score", eval.Score),
	)
	out, err := m.dispatcher.Dispatch(ctx, user, eval)
	if out.Attempted {
		if out.Sent {
			report.Sent++
		} else {
			report.SendFailures++
		}
	}
	if err != nil {
		report.Failed++
		log.Error("emergency sweep: dispatch failed", zap.Error(err))
	}
}

// TestContact sends the fixed test message to the user's contact.
func (m *Monitor) TestContact(ctx context.Context, userID string) error {
	user, err := m.resolve(ctx, userID)
	if err != nil {
		return err
	}
	if !m.sender.Configured() {
		return notify.ErrNotConfigured
	}
	if err := m.dispatcher.deliver(ctx, ChannelTest, *user, composeTestMessage(*user)); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

// ManualTrigger records a user-initiated emergency and notifies the
// contact. Evaluation and dedup are bypassed. The record is written even
// when delivery fails.
func (m *Monitor) ManualTrigger(ctx context.Context, userID string) (Outcome, error) {
	user, err := m.resolve(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	eval := Evaluation{
		IsEmergency: true,
		Reason:      ReasonManual,
		Severity:    models.SeverityHigh,
		Score:       models.MinScore,
	}
	sample := &models.MoodSample{
		UserID:             user.ID,
		Score:              eval.Score,
		Mood:               models.MoodVeryLow,
		Notes:              ReasonManual.Summary(),
		IsEmergency:        true,
		EmergencyTriggered: true,
		Emergency:          &models.EmergencyDetail{Reason: string(ReasonManual), Severity: eval.Severity},
		Origin:             models.OriginAlert,
		Timestamp:          m.cal.Now(),
	}
	if err := m.store.InsertSample(ctx, sample); err != nil {
		return Outcome{}, fmt.Errorf("record manual emergency: %w", err)
	}

	out := Outcome{Attempted: true, SampleID: sample.ID}
	out.SendErr = m.dispatcher.deliver(ctx, ChannelManual, *user, composeManualMessage(*user))
	out.Sent = out.SendErr == nil
	m.dispatcher.publish(ctx, ChannelManual, user.ID, eval, out)
	if out.SendErr != nil {
		return out, fmt.Errorf("%w: %w", ErrDeliveryFailed, out.SendErr)
	}
	return out, nil
}

// Stats summarizes the user's emergency samples over the last days.
func (m *Monitor) Stats(ctx context.Context, userID string, days int) (Stats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}
	since := m.cal.Now().AddDate(0, 0, -days)
	samples, err := m.store.ListEmergencies(ctx, userID, since)
	if err != nil {
		return Stats{}, fmt.Errorf("list emergencies: %w", err)
	}

	st := Stats{Days: days, Total: len(samples), Recent: []models.MoodSample{}}
	for i := range samples {
		if samples[i].EmergencyTriggered {
			st.Triggered++
		}
	}
	n := min(len(samples), recentEmergencyLimit)
	st.Recent = append(st.Recent, samples[:n]...)
	return st, nil
}

// resolve loads the user and requires a usable contact.
func (m *Monitor) resolve(ctx context.Context, userID string) (*models.User, error) {
	user, err := m.dir.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.Contact.Usable() {
		return nil, ErrNoActiveContact
	}
	return user, nil
}

// isConfigError reports errors caused by missing SMS credentials.
func isConfigError(err error) bool {
	return errors.Is(err, notify.ErrNotConfigured)
}
