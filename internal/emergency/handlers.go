package emergency

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/pkg/models"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.HTTPProvider = (*Handler)(nil)

// Handler serves /api/v1/emergency.
type Handler struct {
	monitor   *Monitor
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewHandler wires the emergency API. scheduler may be nil, in which case
// checks call the monitor directly and status reports uninitialized.
func NewHandler(m *Monitor, s *Scheduler, logger *zap.Logger) *Handler {
	return &Handler{monitor: m, scheduler: s, logger: logger}
}

// RoutePrefix implements plugin.HTTPProvider.
func (h *Handler) RoutePrefix() string { return "emergency" }

// Routes implements plugin.HTTPProvider.
func (h *Handler) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/check", Handler: h.handleCheck},
		{Method: "POST", Path: "/test", Handler: h.handleTest},
		{Method: "POST", Path: "/trigger", Handler: h.handleTrigger},
		{Method: "GET", Path: "/stats", Handler: h.handleStats},
		{Method: "GET", Path: "/resources", Handler: h.handleResources},
		{Method: "GET", Path: "/status", Handler: h.handleStatus},
	}
}

// CheckResponse reports a manual sweep.
type CheckResponse struct {
	Message   string      `json:"message" example:"Emergency check completed successfully"`
	Report    SweepReport `json:"report"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// TriggerResponse acknowledges a manual alert.
type TriggerResponse struct {
	Message  string `json:"message" example:"Emergency alert sent successfully"`
	SampleID string `json:"sample_id"`
}

// StatsResponse wraps Stats.
type StatsResponse struct {
	Stats Stats `json:"stats"`
}

// ResourcesResponse wraps the crisis directory.
type ResourcesResponse struct {
	Resources Resources `json:"resources"`
}

// handleCheck runs the emergency sweep immediately.
//
//	@Summary		Run emergency check
//	@Description	Evaluates every monitored user now and sends any due alerts.
//	@Tags			emergency
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} CheckResponse
//	@Failure		500 {object} models.APIProblem
//	@Router			/emergency/check [post]
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var (
		report SweepReport
		err    error
	)
	// The sweep finishes for every user even if the caller disconnects.
	ctx := context.WithoutCancel(r.Context())
	if h.scheduler != nil {
		report, err = h.scheduler.RunNow(ctx)
	} else {
		report, err = h.monitor.Sweep(ctx)
	}
	if err != nil {
		h.logger.Error("manual emergency check failed", zap.Error(err))
		emergencyWriteError(w, http.StatusInternalServerError, "failed to run emergency check")
		return
	}
	emergencyWriteJSON(w, http.StatusOK, CheckResponse{
		Message:   "Emergency check completed successfully",
		Report:    report,
		Timestamp: time.Now().UTC(),
	})
}

// handleTest sends a test message to the caller's emergency contact.
//
//	@Summary		Test emergency contact
//	@Tags			emergency
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} MessageResponse
//	@Failure		400 {object} models.APIProblem
//	@Failure		404 {object} models.APIProblem
//	@Failure		502 {object} models.APIProblem
//	@Failure		503 {object} models.APIProblem
//	@Router			/emergency/test [post]
func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.monitor.TestContact(r.Context(), userID); err != nil {
		h.writeActionError(w, userID, "failed to send test message", err)
		return
	}
	emergencyWriteJSON(w, http.StatusOK, MessageResponse{Message: "Test message sent successfully"})
}

// handleTrigger records a manual emergency and alerts the caller's contact.
//
//	@Summary		Trigger emergency alert
//	@Description	Records an emergency and notifies the emergency contact. The record is kept even if delivery fails.
//	@Tags			emergency
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} TriggerResponse
//	@Failure		400 {object} models.APIProblem
//	@Failure		404 {object} models.APIProblem
//	@Failure		502 {object} models.APIProblem
//	@Failure		503 {object} models.APIProblem
//	@Router			/emergency/trigger [post]
func (h *Handler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	out, err := h.monitor.ManualTrigger(r.Context(), userID)
	if err != nil {
		h.writeActionError(w, userID, "failed to trigger emergency alert", err)
		return
	}
	emergencyWriteJSON(w, http.StatusOK, TriggerResponse{
		Message:  "Emergency alert sent successfully",
		SampleID: out.SampleID,
	})
}

// handleStats summarizes the caller's emergencies.
//
//	@Summary		Emergency statistics
//	@Tags			emergency
//	@Produce		json
//	@Security		BearerAuth
//	@Param			days query int false "Window in days" default(30)
//	@Success		200 {object} StatsResponse
//	@Failure		500 {object} models.APIProblem
//	@Router			/emergency/stats [get]
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	days := DefaultStatsDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 3650 {
			emergencyWriteError(w, http.StatusBadRequest, "days must be an integer between 1 and 3650")
			return
		}
		days = n
	}

	st, err := h.monitor.Stats(r.Context(), userID, days)
	if err != nil {
		h.logger.Error("failed to get emergency stats", zap.String("user_id", userID), zap.Error(err))
		emergencyWriteError(w, http.StatusInternalServerError, "failed to get emergency statistics")
		return
	}
	emergencyWriteJSON(w, http.StatusOK, StatsResponse{Stats: st})
}

// handleResources returns crisis hotlines and support links.
//
//	@Summary		Crisis resources
//	@Tags			emergency
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} ResourcesResponse
//	@Router			/emergency/resources [get]
func (h *Handler) handleResources(w http.ResponseWriter, _ *http.Request) {
	emergencyWriteJSON(w, http.StatusOK, ResourcesResponse{Resources: CrisisResources()})
}

// handleStatus reports the daily sweep schedule.
//
//	@Summary		Emergency scheduler status
//	@Tags			emergency
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} SchedulerStatus
//	@Router			/emergency/status [get]
func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if h.scheduler == nil {
		cfg := h.monitor.Config()
		emergencyWriteJSON(w, http.StatusOK, SchedulerStatus{
			State:    StateUninitialized,
			Schedule: cfg.Schedule,
			Timezone: cfg.Timezone,
		})
		return
	}
	emergencyWriteJSON(w, http.StatusOK, h.scheduler.Status())
}

// writeActionError maps explicit-action failures onto problem responses.
func (h *Handler) writeActionError(w http.ResponseWriter, userID, msg string, err error) {
	switch {
	case errors.Is(err, ErrNoActiveContact):
		emergencyWriteError(w, http.StatusBadRequest, ErrNoActiveContact.Error())
	case errors.Is(err, ErrUserNotFound):
		emergencyWriteError(w, http.StatusNotFound, ErrUserNotFound.Error())
	case isConfigError(err):
		emergencyWriteError(w, http.StatusServiceUnavailable, "sms notifications are not configured")
	case errors.Is(err, ErrDeliveryFailed):
		h.logger.Warn(msg, zap.String("user_id", userID), zap.Error(err))
		emergencyWriteError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error(msg, zap.String("user_id", userID), zap.Error(err))
		emergencyWriteError(w, http.StatusInternalServerError, msg)
	}
}

// -- helpers --

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		emergencyWriteError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}

func emergencyWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func emergencyWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:   "https://moodwatch.dev/problems/" + strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "-")),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
