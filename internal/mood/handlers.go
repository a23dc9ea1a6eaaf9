package mood

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/pkg/models"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

// Analyzer scores free-text notes. Implemented by sentiment.Client.
type Analyzer interface {
	AnalyzeMood(ctx context.Context, notes string, score int, mood models.Mood) (*models.MoodAnalysis, error)
}

// EntryTrigger inspects a sample before it is stored and may flag it as an
// emergency. Implemented by emergency.InlineTrigger.
type EntryTrigger interface {
	OnMoodEntry(ctx context.Context, sample *models.MoodSample)
}

// Compile-time interface guard.
var _ plugin.HTTPProvider = (*Handler)(nil)

// Handler serves /api/v1/mood.
type Handler struct {
	store    *Store
	analyzer Analyzer
	trigger  EntryTrigger
	logger   *zap.Logger
}

// NewHandler wires the mood API. analyzer and trigger may be nil.
func NewHandler(store *Store, analyzer Analyzer, trigger EntryTrigger, logger *zap.Logger) *Handler {
	return &Handler{store: store, analyzer: analyzer, trigger: trigger, logger: logger}
}

// RoutePrefix implements plugin.HTTPProvider.
func (h *Handler) RoutePrefix() string { return "mood" }

// Routes implements plugin.HTTPProvider.
func (h *Handler) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "", Handler: h.handleCreate},
		{Method: "GET", Path: "", Handler: h.handleList},
	}
}

// CreateRequest is the body of POST /mood.
type CreateRequest struct {
	Score int    `json:"score" example:"4"`
	Mood  string `json:"mood,omitempty" example:"low"`
	Notes string `json:"notes,omitempty" example:"rough day at work"`
}

// CreateResponse wraps the stored sample.
type CreateResponse struct {
	Message   string            `json:"message"`
	MoodEntry models.MoodSample `json:"mood_entry"`
}

// handleCreate records a mood entry.
//
//	@Summary		Create mood entry
//	@Description	Records a mood sample. Low scores may raise an emergency alert to the user's contact.
//	@Tags			mood
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body CreateRequest true "Mood entry"
//	@Success		201 {object} CreateResponse
//	@Failure		400 {object} models.APIProblem
//	@Failure		500 {object} models.APIProblem
//	@Router			/mood [post]
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		moodWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		moodWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sample := models.MoodSample{
		UserID: userID,
		Score:  req.Score,
		Mood:   models.Mood(strings.TrimSpace(req.Mood)),
		Notes:  strings.TrimSpace(req.Notes),
	}
	if sample.Mood == "" && req.Score >= models.MinScore && req.Score <= models.MaxScore {
		sample.Mood = models.MoodForScore(req.Score)
	}
	if err := sample.Validate(); err != nil {
		moodWriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.analyzer != nil {
		analysis, err := h.analyzer.AnalyzeMood(r.Context(), sample.Notes, sample.Score, sample.Mood)
		if err != nil {
			h.logger.Warn("mood analysis failed, storing entry without it",
				zap.String("user_id", userID), zap.Error(err))
		} else {
			sample.Analysis = analysis
		}
	}

	// An alert may already be out by now; the entry must be stored even if
	// the client gives up waiting.
	ctx := context.WithoutCancel(r.Context())
	if h.trigger != nil {
		h.trigger.OnMoodEntry(ctx, &sample)
	}

	if err := h.store.InsertSample(ctx, &sample); err != nil {
		h.logger.Error("failed to store mood entry", zap.String("user_id", userID), zap.Error(err))
		moodWriteError(w, http.StatusInternalServerError, "failed to create mood entry")
		return
	}

	moodWriteJSON(w, http.StatusCreated, CreateResponse{
		Message:   "Mood entry created successfully",
		MoodEntry: sample,
	})
}

// ListResponse wraps a page of samples.
type ListResponse struct {
	MoodEntries []models.MoodSample `json:"mood_entries"`
}

// handleList returns the caller's mood entries, newest first.
//
//	@Summary		List mood entries
//	@Description	Returns the caller's mood samples, newest first.
//	@Tags			mood
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit query int false "Max entries (default 30)"
//	@Param			offset query int false "Entries to skip"
//	@Param			days query int false "Only entries from the last N days"
//	@Success		200 {object} ListResponse
//	@Failure		500 {object} models.APIProblem
//	@Router			/mood [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		moodWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	f := ListFilter{
		Limit:  parseBounded(q.Get("limit"), 30, 1, 1000),
		Offset: parseBounded(q.Get("offset"), 0, 0, 1<<20),
	}
	if days := parseBounded(q.Get("days"), 0, 1, 3650); days > 0 {
		f.Since = time.Now().AddDate(0, 0, -days)
	}

	entries, err := h.store.List(r.Context(), userID, f)
	if err != nil {
		h.logger.Warn("failed to list mood entries", zap.String("user_id", userID), zap.Error(err))
		moodWriteError(w, http.StatusInternalServerError, "failed to get mood entries")
		return
	}
	if entries == nil {
		entries = []models.MoodSample{}
	}
	moodWriteJSON(w, http.StatusOK, ListResponse{MoodEntries: entries})
}

// -- helpers --

func moodWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func moodWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:   "https://moodwatch.dev/problems/" + strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "-")),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// parseBounded returns def when s is empty, unparsable or outside [lo, hi].
func parseBounded(s string, def, lo, hi int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return def
	}
	return n
}
