package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/internal/sentiment"
	"github.com/HerbHall/moodwatch/pkg/models"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

const (
	// fallbackReply is stored and returned when the AI service fails.
	fallbackReply = "I'm sorry, I'm having trouble processing your message right now. Please try again later."
	// historyTurns is how many prior user messages are sent as context.
	historyTurns = 10
	// maxMessageLength caps a single user message.
	maxMessageLength = 2000
)

// Bot answers chat messages. Implemented by sentiment.Client.
type Bot interface {
	Chat(ctx context.Context, req sentiment.ChatRequest) (*sentiment.ChatResponse, error)
}

// TurnTrigger inspects an analyzed chat turn for an emergency.
// Implemented by emergency.InlineTrigger.
type TurnTrigger interface {
	OnChatTurn(ctx context.Context, userID string, flagged bool, reading *models.MoodReading)
}

// Compile-time interface guards.
var (
	_ plugin.HTTPProvider = (*Handler)(nil)
	_ Bot                 = (*sentiment.Client)(nil)
)

// Handler serves /api/v1/chat.
type Handler struct {
	store   *Store
	bot     Bot
	trigger TurnTrigger
	logger  *zap.Logger
}

// NewHandler wires the chat API. trigger may be nil.
func NewHandler(store *Store, bot Bot, trigger TurnTrigger, logger *zap.Logger) *Handler {
	return &Handler{store: store, bot: bot, trigger: trigger, logger: logger}
}

// RoutePrefix implements plugin.HTTPProvider.
func (h *Handler) RoutePrefix() string { return "chat" }

// Routes implements plugin.HTTPProvider.
func (h *Handler) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/messages", Handler: h.handleSend},
		{Method: "GET", Path: "/messages", Handler: h.handleHistory},
	}
}

// SendRequest is the body of POST /chat/messages.
type SendRequest struct {
	Message string `json:"message" example:"I can't sleep and everything feels pointless"`
	RoomID  string `json:"room_id,omitempty" example:"bot-chat"`
}

// SendResponse carries both stored messages and the AI metadata.
type SendResponse struct {
	UserMessage  Message             `json:"user_message"`
	BotMessage   Message             `json:"bot_message"`
	MoodAnalysis *models.MoodReading `json:"mood_analysis,omitempty"`
	Suggestions  []string            `json:"suggestions"`
}

// HistoryResponse is a page of chat messages.
type HistoryResponse struct {
	Messages []Message `json:"messages"`
}

// handleSend relays a user message to the chatbot.
//
//	@Summary		Send chat message
//	@Description	Stores the message, asks the AI service for a reply and checks the turn for an emergency.
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body SendRequest true "Chat message"
//	@Success		200 {object} SendResponse
//	@Failure		400 {object} models.APIProblem
//	@Failure		500 {object} models.APIProblem
//	@Router			/chat/messages [post]
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		chatWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req SendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		chatWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		chatWriteError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > maxMessageLength {
		chatWriteError(w, http.StatusBadRequest, "message exceeds 2000 characters")
		return
	}
	// Only the AI call follows the client; once the message is accepted
	// the turn is stored and alerted on regardless.
	ctx := context.WithoutCancel(r.Context())

	userMsg := Message{UserID: userID, RoomID: req.RoomID, Message: req.Message}
	if err := h.store.Insert(ctx, &userMsg); err != nil {
		h.logger.Error("failed to store chat message", zap.String("user_id", userID), zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	reply := h.ask(r.Context(), userMsg)

	botMsg := Message{
		UserID:  userID,
		RoomID:  userMsg.RoomID,
		Message: reply.Response,
		IsBot:   true,
		BotResponse: &BotResponse{
			MoodAnalysis:       reply.MoodAnalysis,
			Suggestions:        reply.Suggestions,
			EmergencyTriggered: reply.EmergencyTriggered,
		},
		CreatedAt: userMsg.CreatedAt.Add(time.Millisecond),
	}
	if err := h.store.Insert(ctx, &botMsg); err != nil {
		h.logger.Error("failed to store bot reply", zap.String("user_id", userID), zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	if h.trigger != nil && (reply.EmergencyTriggered || reply.MoodAnalysis != nil) {
		h.trigger.OnChatTurn(ctx, userID, reply.EmergencyTriggered, reply.MoodAnalysis)
	}

	suggestions := reply.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	chatWriteJSON(w, http.StatusOK, SendResponse{
		UserMessage:  userMsg,
		BotMessage:   botMsg,
		MoodAnalysis: reply.MoodAnalysis,
		Suggestions:  suggestions,
	})
}

// ask calls the bot with recent history and falls back to a canned reply.
func (h *Handler) ask(ctx context.Context, msg Message) *sentiment.ChatResponse {
	fallback := &sentiment.ChatResponse{Response: fallbackReply}
	if h.bot == nil {
		return fallback
	}

	prior, err := h.store.RecentUserMessages(ctx, msg.UserID, msg.CreatedAt, historyTurns)
	if err != nil {
		h.logger.Warn("failed to load chat history", zap.String("user_id", msg.UserID), zap.Error(err))
	}
	history := make([]sentiment.HistoryMessage, 0, len(prior))
	for i := range prior {
		history = append(history, sentiment.HistoryMessage{Message: prior[i].Message})
	}

	reply, err := h.bot.Chat(ctx, sentiment.ChatRequest{
		Message: msg.Message,
		UserID:  msg.UserID,
		History: history,
	})
	if err != nil {
		h.logger.Warn("ai chat failed, using fallback reply", zap.String("user_id", msg.UserID), zap.Error(err))
		return fallback
	}
	if strings.TrimSpace(reply.Response) == "" {
		reply.Response = fallbackReply
	}
	return reply
}

// handleHistory pages through the caller's conversation.
//
//	@Summary		Chat history
//	@Tags			chat
//	@Produce		json
//	@Security		BearerAuth
//	@Param			room_id query string false "Room" default(bot-chat)
//	@Param			limit query int false "Page size" default(50)
//	@Param			offset query int false "Offset" default(0)
//	@Success		200 {object} HistoryResponse
//	@Failure		500 {object} models.APIProblem
//	@Router			/chat/messages [get]
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		chatWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 50, 1, 500)
	offset := queryInt(q.Get("offset"), 0, 0, 1<<20)

	msgs, err := h.store.List(r.Context(), userID, q.Get("room_id"), limit, offset)
	if err != nil {
		h.logger.Error("failed to get chat history", zap.String("user_id", userID), zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to get chat history")
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	chatWriteJSON(w, http.StatusOK, HistoryResponse{Messages: msgs})
}

// -- helpers --

func chatWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func chatWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:   "https://moodwatch.dev/problems/" + strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "-")),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

func queryInt(s string, def, lo, hi int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return def
	}
	return n
}
