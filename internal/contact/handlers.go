package contact

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/pkg/models"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.HTTPProvider = (*Handler)(nil)

// Handler serves /api/v1/profile: the caller's name and emergency contact.
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates the profile API.
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RoutePrefix implements plugin.HTTPProvider.
func (h *Handler) RoutePrefix() string { return "profile" }

// Routes implements plugin.HTTPProvider.
func (h *Handler) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: h.handleGet},
		{Method: "PUT", Path: "", Handler: h.handlePut},
	}
}

// handleGet returns the caller's profile.
//
//	@Summary		Get profile
//	@Description	Returns the caller's name and emergency contact.
//	@Tags			profile
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} models.User
//	@Failure		404 {object} models.APIProblem
//	@Router			/profile [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	u, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		h.logger.Warn("failed to get profile", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateRequest is the body of PUT /profile. A null contact removes it.
type UpdateRequest struct {
	FirstName string                   `json:"first_name" example:"Jamie"`
	LastName  string                   `json:"last_name" example:"Rivera"`
	Contact   *models.EmergencyContact `json:"emergency_contact"`
}

// handlePut replaces the caller's profile.
//
//	@Summary		Update profile
//	@Description	Sets the caller's name and emergency contact.
//	@Tags			profile
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body UpdateRequest true "Profile"
//	@Success		200 {object} models.User
//	@Failure		400 {object} models.APIProblem
//	@Router			/profile [put]
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Contact != nil && req.Contact.IsActive && strings.TrimSpace(req.Contact.Phone) == "" {
		writeError(w, http.StatusBadRequest, "an active emergency contact needs a phone number")
		return
	}

	u := models.User{ID: userID, FirstName: req.FirstName, LastName: req.LastName, Contact: req.Contact}
	if err := h.store.SaveUser(r.Context(), u); err != nil {
		h.logger.Error("failed to save profile", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	saved, err := h.store.GetUser(r.Context(), userID)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "failed to reload profile")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:   "https://moodwatch.dev/problems/profile",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
