package emergency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// State is the scheduler lifecycle state.
type State int

const (
	// StateUninitialized means no SMS sender is configured; sweeps only
	// run on demand.
	StateUninitialized State = iota
	// StateArmed means the daily sweep is scheduled.
	StateArmed
)

func (s State) String() string {
	if s == StateArmed {
		return "armed"
	}
	return "uninitialized"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// SchedulerStatus is reported by the status endpoint.
type SchedulerStatus struct {
	State      State        `json:"state"`
	Schedule   string       `json:"schedule"`
	Timezone   string       `json:"timezone"`
	NextRun    *time.Time   `json:"next_run,omitempty"`
	LastRun    *time.Time   `json:"last_run,omitempty"`
	LastReport *SweepReport `json:"last_report,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler runs the monitor's sweep on a cron schedule in the
// monitoring timezone.
type Scheduler struct {
	monitor  *Monitor
	schedule cron.Schedule
	cron     *cron.Cron
	logger   *zap.Logger

	mu         sync.Mutex
	state      State
	entry      cron.EntryID
	lastRun    time.Time
	lastReport *SweepReport
	lastErr    error
}

// NewScheduler validates the monitor's cron expression. The scheduler is
// armed only when the monitor can deliver alerts.
func NewScheduler(m *Monitor, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sched, err := cronParser.Parse(m.cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", m.cfg.Schedule, err)
	}

	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		monitor:  m,
		schedule: sched,
		logger:   logger,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(m.cal.Location()),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if m.Armed() {
		s.state = StateArmed
	}
	return s, nil
}

// State returns the lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start registers the daily job when armed. Scheduled sweeps run with
// ctx until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateArmed {
		s.logger.Warn("sms sender not configured, daily emergency sweep disabled")
		return nil
	}
	s.entry = s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if _, err := s.RunNow(ctx); err != nil {
			s.logger.Error("scheduled emergency sweep failed", zap.Error(err))
		}
	}))
	s.cron.Start()

	s.logger.Info("daily emergency sweep scheduled",
		zap.String("schedule", s.monitor.cfg.Schedule),
		zap.String("timezone", s.monitor.cfg.Timezone),
		zap.Time("next_run", s.schedule.Next(s.monitor.cal.Now())),
	)
	return nil
}

// RunNow runs one sweep synchronously regardless of state.
func (s *Scheduler) RunNow(ctx context.Context) (SweepReport, error) {
	report, err := s.monitor.Sweep(ctx)

	s.mu.Lock()
	s.lastRun = s.monitor.cal.Now()
	s.lastReport = &report
	s.lastErr = err
	s.mu.Unlock()
	return report, err
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("emergency sweep still running at shutdown")
	}
}

// Status reports the schedule and the most recent run.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SchedulerStatus{
		State:    s.state,
		Schedule: s.monitor.cfg.Schedule,
		Timezone: s.monitor.cfg.Timezone,
	}
	if s.state == StateArmed {
		next := s.schedule.Next(s.monitor.cal.Now())
		st.NextRun = &next
	}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
		st.LastReport = s.lastReport
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
